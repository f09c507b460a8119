package scoring

import (
	"testing"
	"time"

	"permitflow_backend/internal/engagement/domain"
)

func ts(t time.Time) *time.Time { return &t }

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}

func TestQualification_IssuedFireAlarmWithContact_ScoresHigh(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	st := domain.WorkflowState{
		LeadID:       "lead-1",
		ContactEmail: "owner@example.com",
		Permit: domain.PermitRecord{
			Status: "Issued",
			Type:   "Fire Alarm System",
		},
	}

	score := Qualification(st, now)

	// 0.2 base + 0.3 active + 0.2 target vertical + 0.1 contact = 0.8
	if score < 0.7 {
		t.Fatalf("expected score >= 0.7 for issued fire alarm permit with contact, got %v", score)
	}
	if score > 1.0 {
		t.Fatalf("score %v exceeds 1.0", score)
	}
}

func TestQualification_EmptyPermit_GetsBaseOnly(t *testing.T) {
	now := time.Now()
	st := domain.WorkflowState{LeadID: "lead-2"}

	score := Qualification(st, now)

	if !almostEqual(score, baseScore) {
		t.Fatalf("expected base score %v for empty permit, got %v", baseScore, score)
	}
}

func TestQualification_AdjacentVertical_GetsSmallerBonus(t *testing.T) {
	now := time.Now()
	target := domain.WorkflowState{
		LeadID: "lead-3",
		Permit: domain.PermitRecord{Type: "Fire Sprinkler Retrofit"},
	}
	adjacent := domain.WorkflowState{
		LeadID: "lead-4",
		Permit: domain.PermitRecord{Type: "HVAC Replacement"},
	}

	targetScore := Qualification(target, now)
	adjacentScore := Qualification(adjacent, now)

	if targetScore <= adjacentScore {
		t.Fatalf("expected target vertical %v to outscore adjacent vertical %v", targetScore, adjacentScore)
	}
	if !almostEqual(adjacentScore, baseScore+adjacentVerticalBonus) {
		t.Fatalf("expected adjacent score %v, got %v", baseScore+adjacentVerticalBonus, adjacentScore)
	}
}

func TestQualification_SourceTagMatchesTargetVertical(t *testing.T) {
	now := time.Now()
	st := domain.WorkflowState{
		LeadID: "lead-5",
		Permit: domain.PermitRecord{SourceTag: "nfpa-25-registry"},
	}

	score := Qualification(st, now)

	if !almostEqual(score, baseScore+targetVerticalBonus) {
		t.Fatalf("expected source tag to grant vertical bonus, got %v", score)
	}
}

func TestQualification_RecencyWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	recent := domain.WorkflowState{
		LeadID: "lead-6",
		Permit: domain.PermitRecord{IssuedAt: ts(now.AddDate(0, 0, -10))},
	}
	stale := domain.WorkflowState{
		LeadID: "lead-7",
		Permit: domain.PermitRecord{IssuedAt: ts(now.AddDate(0, 0, -45))},
	}

	if got := Qualification(recent, now); !almostEqual(got, baseScore+recencyBonus) {
		t.Fatalf("expected recency bonus for 10-day-old permit, got %v", got)
	}
	if got := Qualification(stale, now); !almostEqual(got, baseScore) {
		t.Fatalf("expected no recency bonus for 45-day-old permit, got %v", got)
	}
}

func TestQualification_MaximalLeadClampsToOne(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	st := domain.WorkflowState{
		LeadID:       "lead-8",
		ContactName:  "Dana Ellis",
		ContactEmail: "dana@example.com",
		Permit: domain.PermitRecord{
			Status:        "Issued - Inspection Scheduled",
			Type:          "Fire Suppression System",
			OccupancyType: "Assembly",
			IssuedAt:      ts(now.AddDate(0, 0, -5)),
		},
		ComplianceUrgencyScore: 1.0,
	}

	score := Qualification(st, now)

	if score != 1.0 {
		t.Fatalf("expected saturated lead to clamp at 1.0, got %v", score)
	}
}

func TestComplianceUrgency_ExpiredPermitWithViolation(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	permit := domain.PermitRecord{
		Status:        "Expired",
		Description:   "Annual fire alarm inspection failed; violation notice issued",
		OccupancyType: "Healthcare",
	}

	urgency := ComplianceUrgency(permit, now)

	// 0.4 expired + 0.3 violation + 0.2 high risk = 0.9
	if urgency < 0.85 || urgency > 0.95 {
		t.Fatalf("expected urgency near 0.9, got %v", urgency)
	}
}

func TestComplianceUrgency_CleanRecentPermit_IsZero(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	permit := domain.PermitRecord{
		Status:   "Issued",
		Type:     "Fire Alarm",
		IssuedAt: ts(now.AddDate(0, 0, -3)),
	}

	if got := ComplianceUrgency(permit, now); got != 0 {
		t.Fatalf("expected zero urgency for clean recent permit, got %v", got)
	}
}

func TestComplianceUrgency_ExpiringSoonScoresLowerThanExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	expiring := domain.PermitRecord{
		Status:    "Active",
		ExpiresAt: ts(now.AddDate(0, 0, 30)),
	}
	expired := domain.PermitRecord{Status: "Expired"}

	a := ComplianceUrgency(expiring, now)
	b := ComplianceUrgency(expired, now)

	if a >= b {
		t.Fatalf("expected expiring-soon urgency %v below expired urgency %v", a, b)
	}
	if !almostEqual(a, 0.30) {
		t.Fatalf("expected 0.30 for expiring-soon permit, got %v", a)
	}
}
