// Package transport defines the request and response shapes of the
// engagement HTTP API.
package transport

import (
	"time"

	"permitflow_backend/internal/engagement/domain"
)

// PermitPayload is the permit snapshot supplied when a workflow starts.
type PermitPayload struct {
	PermitID      string     `json:"permit_id"`
	Status        string     `json:"status"`
	Type          string     `json:"type"`
	Description   string     `json:"description"`
	Jurisdiction  string     `json:"jurisdiction"`
	Address       string     `json:"address"`
	OccupancyType string     `json:"occupancy_type"`
	SourceTag     string     `json:"source_tag"`
	IssuedAt      *time.Time `json:"issued_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// DecisionMaker is the contact a workflow reaches out to.
type DecisionMaker struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

// RunWorkflowRequest starts an engagement workflow for one lead.
type RunWorkflowRequest struct {
	LeadID          string        `json:"lead_id" validate:"omitempty,max=100"`
	CompanyName     string        `json:"company_name" validate:"omitempty,max=200"`
	DecisionMaker   DecisionMaker `json:"decision_maker"`
	PermitData      PermitPayload `json:"permit_data" validate:"required"`
	OutreachChannel string        `json:"outreach_channel" validate:"omitempty,oneof=email chat voice"`
}

// ApproveRequest resolves a pending approval gate.
type ApproveRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

// WorkflowResponse is the full state of a workflow plus its history.
type WorkflowResponse struct {
	State     *domain.WorkflowState   `json:"state"`
	Outreach  []domain.OutreachRecord `json:"outreach,omitempty"`
	Responses []domain.ResponseRecord `json:"responses,omitempty"`
}

// WorkflowListResponse is a page of workflow states.
type WorkflowListResponse struct {
	Items []*domain.WorkflowState `json:"items"`
	Count int                     `json:"count"`
}

// ToPermitRecord maps the payload onto the domain record.
func (p PermitPayload) ToPermitRecord() domain.PermitRecord {
	return domain.PermitRecord{
		PermitID:      p.PermitID,
		Status:        p.Status,
		Type:          p.Type,
		Description:   p.Description,
		Jurisdiction:  p.Jurisdiction,
		Address:       p.Address,
		OccupancyType: p.OccupancyType,
		SourceTag:     p.SourceTag,
		IssuedAt:      p.IssuedAt,
		ExpiresAt:     p.ExpiresAt,
	}
}
