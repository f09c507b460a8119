package exports

import (
	"testing"
	"time"

	"permitflow_backend/internal/engagement/domain"
)

func TestRowFromWorkflow(t *testing.T) {
	exportedAt := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	st := &domain.WorkflowState{
		LeadID:             "lead-1",
		CompanyName:        "Moran Properties",
		ContactName:        "Alex Moran",
		QualificationScore: 0.8,
		BookingPayload: &domain.BookingPayload{
			ContactEmail:   "alex@example.com",
			MeetingType:    "site_visit",
			PreferredTimes: []string{" morning ", "", "after 3pm"},
			PreferredDates: []string{"Tuesday"},
			Notes:          "gate code 4412",
		},
		CRMExportedAt: &exportedAt,
	}

	row, err := RowFromWorkflow(st)
	if err != nil {
		t.Fatalf("row from workflow: %v", err)
	}

	if row.PreferredTimes != "morning; after 3pm" {
		t.Fatalf("expected normalized preferred times, got %q", row.PreferredTimes)
	}
	if row.PreferredDates != "Tuesday" {
		t.Fatalf("expected preferred dates, got %q", row.PreferredDates)
	}
	if !row.BookedAt.Equal(exportedAt) {
		t.Fatalf("expected booked_at from export stamp, got %v", row.BookedAt)
	}
	if row.ContactEmail != "alex@example.com" || row.MeetingType != "site_visit" {
		t.Fatalf("unexpected key fields %+v", row)
	}
}

func TestRowFromWorkflow_NoBookingFails(t *testing.T) {
	st := &domain.WorkflowState{LeadID: "lead-2"}
	if _, err := RowFromWorkflow(st); err == nil {
		t.Fatal("expected error for workflow without booking")
	}
}

func TestJoinPreferences_IsDeterministic(t *testing.T) {
	a := joinPreferences([]string{"morning", "afternoon"})
	b := joinPreferences([]string{"morning", "afternoon"})
	if a != b || a != "morning; afternoon" {
		t.Fatalf("expected stable join, got %q and %q", a, b)
	}
	if got := joinPreferences(nil); got != "" {
		t.Fatalf("expected empty join for nil, got %q", got)
	}
}
