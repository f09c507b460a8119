// Package scoring computes qualification and compliance-urgency scores for a
// lead derived from a permit record. All functions are pure and deterministic:
// the same state and clock always produce the same score, and missing fields
// simply contribute zero.
package scoring

import (
	"strings"
	"time"

	"permitflow_backend/internal/engagement/domain"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	scoreVersion = "2026-v1"

	// Base score - every lead starts here and factors add on top.
	baseScore = 0.20

	// Factor contributions. The clamped sum stays within [0,1].
	activeStatusBonus     = 0.30
	milestoneStatusBonus  = 0.20
	targetVerticalBonus   = 0.20
	adjacentVerticalBonus = 0.10
	contactBonus          = 0.10
	urgencyWeight         = 0.15
	highRiskBonus         = 0.10
	recencyBonus          = 0.05

	recencyWindow = 30 * 24 * time.Hour
)

// Version returns the scoring model version.
func Version() string { return scoreVersion }

// Keyword groups matched against permit status/type fields, lowercase.
var (
	activeStatusKeywords    = []string{"issued", "active", "approved", "finaled"}
	milestoneStatusKeywords = []string{"inspection", "in progress", "in review", "scheduled"}

	// Fire protection is the target vertical; these match either the permit
	// type text or the originating data-source tag.
	targetTypeKeywords   = []string{"fire alarm", "fire sprinkler", "sprinkler", "fire suppression", "fire protection", "alarm system"}
	targetSourceKeywords = []string{"fire", "nfpa"}
	adjacentTypeKeywords = []string{"hvac", "mechanical", "electrical", "security", "low voltage"}

	expiredStatusKeywords  = []string{"expired", "lapsed", "revoked"}
	violationKeywords      = []string{"violation", "failed", "deficiency", "citation", "non-compliant", "noncompliant"}
	highRiskOccupancyTerms = []string{"assembly", "educational", "institutional", "healthcare", "hospital", "high-rise", "highrise", "residential care", "daycare", "hotel"}
)

// Qualification computes the 0-1 qualification score for a lead.
// The compliance urgency sub-score contributes a weighted share, so callers
// should populate ComplianceUrgencyScore first (the research step does).
func Qualification(st domain.WorkflowState, now time.Time) float64 {
	score := baseScore

	status := strings.ToLower(st.Permit.Status)
	if containsAny(status, activeStatusKeywords) {
		score += activeStatusBonus
	}
	if containsAny(status, milestoneStatusKeywords) {
		score += milestoneStatusBonus
	}

	score += verticalBonus(st.Permit)

	if hasContact(st) {
		score += contactBonus
	}

	score += urgencyWeight * clamp01(st.ComplianceUrgencyScore)

	if isHighRisk(st.Permit) {
		score += highRiskBonus
	}

	if st.Permit.IssuedAt != nil && now.Sub(*st.Permit.IssuedAt) <= recencyWindow && !st.Permit.IssuedAt.After(now) {
		score += recencyBonus
	}

	return clamp01(score)
}

// ComplianceUrgency estimates the 0-1 time-sensitivity of a regulatory gap
// from the permit record alone.
func ComplianceUrgency(permit domain.PermitRecord, now time.Time) float64 {
	urgency := 0.0

	status := strings.ToLower(permit.Status)
	haystack := status + " " + strings.ToLower(permit.Description)

	if containsAny(status, expiredStatusKeywords) {
		urgency += 0.40
	} else if permit.ExpiresAt != nil && permit.ExpiresAt.Sub(now) <= 60*24*time.Hour {
		urgency += 0.30
	}

	if containsAny(haystack, violationKeywords) {
		urgency += 0.30
	}

	if isHighRisk(permit) {
		urgency += 0.20
	}

	// Stale open permits accumulate compliance exposure.
	if permit.IssuedAt != nil && now.Sub(*permit.IssuedAt) > 180*24*time.Hour && !containsAny(status, activeStatusKeywords) {
		urgency += 0.10
	}

	return clamp01(urgency)
}

func verticalBonus(permit domain.PermitRecord) float64 {
	permitType := strings.ToLower(permit.Type)
	source := strings.ToLower(permit.SourceTag)

	if containsAny(permitType, targetTypeKeywords) || containsAny(source, targetSourceKeywords) {
		return targetVerticalBonus
	}
	if containsAny(permitType, adjacentTypeKeywords) {
		return adjacentVerticalBonus
	}
	return 0
}

func hasContact(st domain.WorkflowState) bool {
	return strings.TrimSpace(st.ContactName) != "" ||
		strings.TrimSpace(st.ContactEmail) != "" ||
		strings.TrimSpace(st.ContactPhone) != ""
}

func isHighRisk(permit domain.PermitRecord) bool {
	occupancy := strings.ToLower(permit.OccupancyType)
	return containsAny(occupancy, highRiskOccupancyTerms)
}

func containsAny(haystack string, keywords []string) bool {
	if haystack == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
