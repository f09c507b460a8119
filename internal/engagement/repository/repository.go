// Package repository persists engagement workflow state and the append-only
// outreach and response logs in Postgres.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/platform/apperr"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateWorkflow inserts the initial state for a lead at version 1.
// A second create for the same lead is a conflict.
func (r *Repository) CreateWorkflow(ctx context.Context, st *domain.WorkflowState) error {
	st.Version = 1
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal workflow state: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO engagement_workflows (lead_id, status, workflow_complete, state, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $5)
		ON CONFLICT (lead_id) DO NOTHING
	`, st.LeadID, string(st.WorkflowStatus), st.WorkflowComplete, payload, st.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("workflow already exists for lead " + st.LeadID)
	}
	return nil
}

// GetWorkflow loads the state for a lead.
func (r *Repository) GetWorkflow(ctx context.Context, leadID string) (*domain.WorkflowState, error) {
	var (
		payload []byte
		version int
	)
	err := r.pool.QueryRow(ctx, `
		SELECT state, version
		FROM engagement_workflows
		WHERE lead_id = $1
	`, leadID).Scan(&payload, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("no workflow for lead " + leadID)
	}
	if err != nil {
		return nil, fmt.Errorf("load workflow: %w", err)
	}

	var st domain.WorkflowState
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("unmarshal workflow state: %w", err)
	}
	// The version column is authoritative; the JSON copy may lag behind.
	st.Version = version
	return &st, nil
}

// SaveWorkflow persists the state with an optimistic version check: the row is
// only updated when its stored version still matches the version the state was
// loaded at. A mismatch means a concurrent writer won and yields a conflict.
func (r *Repository) SaveWorkflow(ctx context.Context, st *domain.WorkflowState) error {
	loadedVersion := st.Version
	st.Version = loadedVersion + 1
	st.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(st)
	if err != nil {
		st.Version = loadedVersion
		return fmt.Errorf("marshal workflow state: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE engagement_workflows
		SET status = $2, workflow_complete = $3, state = $4, version = version + 1, updated_at = $5
		WHERE lead_id = $1 AND version = $6
	`, st.LeadID, string(st.WorkflowStatus), st.WorkflowComplete, payload, st.UpdatedAt, loadedVersion)
	if err != nil {
		st.Version = loadedVersion
		return fmt.Errorf("update workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		st.Version = loadedVersion
		var exists bool
		if checkErr := r.pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM engagement_workflows WHERE lead_id = $1)
		`, st.LeadID).Scan(&exists); checkErr == nil && !exists {
			return apperr.NotFound("no workflow for lead " + st.LeadID)
		}
		return apperr.Conflict(fmt.Sprintf("stale workflow version %d for lead %s", loadedVersion, st.LeadID))
	}
	return nil
}

// ListWorkflows returns workflow states filtered by completion, newest first.
func (r *Repository) ListWorkflows(ctx context.Context, includeComplete bool, limit int) ([]*domain.WorkflowState, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT state, version
		FROM engagement_workflows
		WHERE ($1 OR workflow_complete = false)
		ORDER BY updated_at DESC
		LIMIT $2
	`, includeComplete, limit)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.WorkflowState, 0)
	for rows.Next() {
		var (
			payload []byte
			version int
		)
		if err := rows.Scan(&payload, &version); err != nil {
			return nil, err
		}
		var st domain.WorkflowState
		if err := json.Unmarshal(payload, &st); err != nil {
			return nil, fmt.Errorf("unmarshal workflow state: %w", err)
		}
		st.Version = version
		items = append(items, &st)
	}
	return items, rows.Err()
}

// AppendOutreach records one send attempt in the outreach log.
func (r *Repository) AppendOutreach(ctx context.Context, rec *domain.OutreachRecord) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO outreach_log (lead_id, channel, subject, body, recipient, sent_at, provider_message_id, failed, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, rec.LeadID, string(rec.Channel), rec.Subject, rec.Body, rec.Recipient, rec.SentAt, rec.ProviderMessageID, rec.Failed, rec.FailureReason).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert outreach record: %w", err)
	}
	return nil
}

// ListOutreach returns the send history for a lead, oldest first.
func (r *Repository) ListOutreach(ctx context.Context, leadID string) ([]domain.OutreachRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, channel, subject, body, recipient, sent_at, provider_message_id, failed, failure_reason
		FROM outreach_log
		WHERE lead_id = $1
		ORDER BY sent_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list outreach: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OutreachRecord, 0)
	for rows.Next() {
		var (
			rec     domain.OutreachRecord
			channel string
		)
		if err := rows.Scan(&rec.ID, &rec.LeadID, &channel, &rec.Subject, &rec.Body, &rec.Recipient, &rec.SentAt, &rec.ProviderMessageID, &rec.Failed, &rec.FailureReason); err != nil {
			return nil, err
		}
		rec.Channel = domain.Channel(channel)
		items = append(items, rec)
	}
	return items, rows.Err()
}

// AppendResponse records one inbound reply in the response log. The durable
// write happens before any workflow resumption so a crash cannot lose the reply.
func (r *Repository) AppendResponse(ctx context.Context, rec *domain.ResponseRecord) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO response_log (lead_id, content, sender, received_at, source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, rec.LeadID, rec.Content, rec.Sender, rec.ReceivedAt, rec.Source).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert response record: %w", err)
	}
	return nil
}

// ListResponses returns the reply history for a lead, oldest first.
func (r *Repository) ListResponses(ctx context.Context, leadID string) ([]domain.ResponseRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, content, sender, received_at, source
		FROM response_log
		WHERE lead_id = $1
		ORDER BY received_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	items := make([]domain.ResponseRecord, 0)
	for rows.Next() {
		var rec domain.ResponseRecord
		if err := rows.Scan(&rec.ID, &rec.LeadID, &rec.Content, &rec.Sender, &rec.ReceivedAt, &rec.Source); err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}
