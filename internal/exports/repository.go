// Package exports pushes booked workflows into a CRM export table and serves
// them as CSV. Rows are keyed so re-exporting the same booking is a no-op.
package exports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"permitflow_backend/internal/engagement/domain"
)

// CRMRow is one exported booking.
type CRMRow struct {
	LeadID             string
	CompanyName        string
	ContactName        string
	ContactEmail       string
	MeetingType        string
	PreferredTimes     string
	PreferredDates     string
	Notes              string
	QualificationScore float64
	BookedAt           time.Time
}

// RowFromWorkflow flattens a booked workflow into an export row. The list
// fields are joined deterministically so the dedup key is stable across runs.
func RowFromWorkflow(st *domain.WorkflowState) (CRMRow, error) {
	if st.BookingPayload == nil {
		return CRMRow{}, fmt.Errorf("workflow %s has no booking to export", st.LeadID)
	}

	bookedAt := st.UpdatedAt
	if st.CRMExportedAt != nil {
		bookedAt = *st.CRMExportedAt
	}

	return CRMRow{
		LeadID:             st.LeadID,
		CompanyName:        st.CompanyName,
		ContactName:        st.ContactName,
		ContactEmail:       st.BookingPayload.ContactEmail,
		MeetingType:        st.BookingPayload.MeetingType,
		PreferredTimes:     joinPreferences(st.BookingPayload.PreferredTimes),
		PreferredDates:     joinPreferences(st.BookingPayload.PreferredDates),
		Notes:              st.BookingPayload.Notes,
		QualificationScore: st.QualificationScore,
		BookedAt:           bookedAt,
	}, nil
}

func joinPreferences(values []string) string {
	trimmed := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			trimmed = append(trimmed, v)
		}
	}
	return strings.Join(trimmed, "; ")
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert inserts the row unless its dedup key already exists. Returns whether
// a new row was written.
func (r *Repository) Upsert(ctx context.Context, row CRMRow) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO crm_exports (
			lead_id, company_name, contact_name, contact_email, meeting_type,
			preferred_times, preferred_dates, notes, qualification_score, booked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (lead_id, contact_email, meeting_type, preferred_times, preferred_dates) DO NOTHING
	`, row.LeadID, row.CompanyName, row.ContactName, row.ContactEmail, row.MeetingType,
		row.PreferredTimes, row.PreferredDates, row.Notes, row.QualificationScore, row.BookedAt)
	if err != nil {
		return false, fmt.Errorf("insert crm export: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns all exported rows, newest booking first.
func (r *Repository) List(ctx context.Context) ([]CRMRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lead_id, company_name, contact_name, contact_email, meeting_type,
			preferred_times, preferred_dates, notes, qualification_score, booked_at
		FROM crm_exports
		ORDER BY booked_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list crm exports: %w", err)
	}
	defer rows.Close()

	items := make([]CRMRow, 0)
	for rows.Next() {
		var row CRMRow
		if err := rows.Scan(&row.LeadID, &row.CompanyName, &row.ContactName, &row.ContactEmail, &row.MeetingType,
			&row.PreferredTimes, &row.PreferredDates, &row.Notes, &row.QualificationScore, &row.BookedAt); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

// Exporter adapts the repository to the engine's CRM export hook.
type Exporter struct {
	repo *Repository
}

func NewExporter(repo *Repository) *Exporter {
	return &Exporter{repo: repo}
}

func (e *Exporter) ExportWorkflow(ctx context.Context, st *domain.WorkflowState) error {
	row, err := RowFromWorkflow(st)
	if err != nil {
		return err
	}
	_, err = e.repo.Upsert(ctx, row)
	return err
}
