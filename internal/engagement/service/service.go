// Package service exposes the engagement workflow operations: starting runs,
// resolving approvals, resuming on inbound replies, and reading state.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/internal/engagement/transport"
	"permitflow_backend/platform/apperr"
	"permitflow_backend/platform/logger"
	"permitflow_backend/platform/phone"
)

// Engine is the state machine surface the service drives.
type Engine interface {
	Start(ctx context.Context, st *domain.WorkflowState) (*domain.WorkflowState, error)
	ResumeFrom(ctx context.Context, leadID string, entry domain.Step) (*domain.WorkflowState, error)
	ResumeWithResponse(ctx context.Context, leadID string, reply *domain.ResponseRecord) (*domain.WorkflowState, bool, error)
}

// Store is the persistence surface the service reads from directly.
type Store interface {
	GetWorkflow(ctx context.Context, leadID string) (*domain.WorkflowState, error)
	SaveWorkflow(ctx context.Context, st *domain.WorkflowState) error
	ListWorkflows(ctx context.Context, includeComplete bool, limit int) ([]*domain.WorkflowState, error)
	ListOutreach(ctx context.Context, leadID string) ([]domain.OutreachRecord, error)
	ListResponses(ctx context.Context, leadID string) ([]domain.ResponseRecord, error)
	AppendResponse(ctx context.Context, rec *domain.ResponseRecord) error
}

type Service struct {
	engine Engine
	store  Store
	log    *logger.Logger
	now    func() time.Time
}

func New(engine Engine, store Store, log *logger.Logger) *Service {
	return &Service{
		engine: engine,
		store:  store,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run starts a new workflow for a lead and drives it until it suspends or
// ends. The returned state carries failure markers instead of failing the
// call for anything short of a storage error.
func (s *Service) Run(ctx context.Context, req transport.RunWorkflowRequest) (*domain.WorkflowState, error) {
	leadID := strings.TrimSpace(req.LeadID)
	if leadID == "" {
		leadID = uuid.NewString()
	}

	st := domain.NewWorkflowState(leadID, s.now())
	st.CompanyName = strings.TrimSpace(req.CompanyName)
	st.ContactName = strings.TrimSpace(req.DecisionMaker.Name)
	st.ContactEmail = strings.TrimSpace(req.DecisionMaker.Email)
	if p := strings.TrimSpace(req.DecisionMaker.Phone); p != "" {
		st.ContactPhone = phone.NormalizeE164(p)
	}
	st.Permit = req.PermitData.ToPermitRecord()

	if req.OutreachChannel != "" {
		channel, ok := domain.ParseChannel(req.OutreachChannel)
		if !ok {
			return nil, apperr.Validation("unknown outreach channel " + req.OutreachChannel)
		}
		st.OutreachChannel = channel
	}

	return s.engine.Start(ctx, st)
}

// Approve resolves a pending approval gate and, on approval, resumes the
// workflow at the send step.
func (s *Service) Approve(ctx context.Context, leadID string, approve bool) (*domain.WorkflowState, error) {
	st, err := s.store.GetWorkflow(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if st.WorkflowComplete {
		return nil, apperr.Conflict("workflow already completed with status " + string(st.WorkflowStatus))
	}
	if st.ApprovalState != domain.ApprovalPending {
		return nil, apperr.Conflict("workflow is not awaiting approval")
	}

	if approve {
		st.ApprovalState = domain.ApprovalApproved
	} else {
		st.ApprovalState = domain.ApprovalRejected
	}
	if err := s.store.SaveWorkflow(ctx, st); err != nil {
		return nil, err
	}

	return s.engine.ResumeFrom(ctx, leadID, domain.StepApprovalGate)
}

// ProcessReply is the resumption gateway: the reply is written to the
// response log first, then the workflow is reloaded and re-entered. A reply
// for a lead without a workflow is recorded and otherwise ignored.
func (s *Service) ProcessReply(ctx context.Context, rec *domain.ResponseRecord) (*domain.WorkflowState, bool, error) {
	if err := s.store.AppendResponse(ctx, rec); err != nil {
		return nil, false, err
	}

	st, resumed, err := s.engine.ResumeWithResponse(ctx, rec.LeadID, rec)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.WithLeadID(rec.LeadID).Info("reply recorded for lead without workflow")
			return nil, false, nil
		}
		return nil, false, err
	}
	return st, resumed, nil
}

// Get returns the workflow state with its outreach and response history.
func (s *Service) Get(ctx context.Context, leadID string) (transport.WorkflowResponse, error) {
	st, err := s.store.GetWorkflow(ctx, leadID)
	if err != nil {
		return transport.WorkflowResponse{}, err
	}

	outreach, err := s.store.ListOutreach(ctx, leadID)
	if err != nil {
		return transport.WorkflowResponse{}, err
	}
	responses, err := s.store.ListResponses(ctx, leadID)
	if err != nil {
		return transport.WorkflowResponse{}, err
	}

	return transport.WorkflowResponse{
		State:     st,
		Outreach:  outreach,
		Responses: responses,
	}, nil
}

// List returns recent workflows, optionally including completed ones.
func (s *Service) List(ctx context.Context, includeComplete bool, limit int) (transport.WorkflowListResponse, error) {
	items, err := s.store.ListWorkflows(ctx, includeComplete, limit)
	if err != nil {
		return transport.WorkflowListResponse{}, err
	}
	return transport.WorkflowListResponse{Items: items, Count: len(items)}, nil
}
