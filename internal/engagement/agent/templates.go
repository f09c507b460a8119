package agent

import (
	"fmt"
	"strings"

	"permitflow_backend/internal/engagement/domain"
)

// Fallback templates used when the model is unavailable or returns garbage.
// They are deliberately generic: a plain, honest message beats a broken one.

func fallbackInitialDraft(st *domain.WorkflowState) Draft {
	name := contactFirstName(st)
	permitLine := permitSummaryLine(st)

	switch st.OutreachChannel {
	case domain.ChannelChat:
		return Draft{
			Kind:     domain.DraftInitial,
			Fallback: true,
			Body: fmt.Sprintf("Hi %s, this is the team at a local fire protection contractor. We noticed %s and wanted to check whether your inspection and testing schedule is covered. Open to a quick call this week? Reply STOP to opt out.",
				name, permitLine),
		}
	case domain.ChannelVoice:
		return Draft{
			Kind:     domain.DraftInitial,
			Fallback: true,
			Subject:  "Introduce our inspection services and ask for a 15-minute meeting",
			Body: fmt.Sprintf("Hi, may I speak with %s? I'm calling from a local fire protection contractor. We noticed %s. I wanted to ask who currently handles your fire system inspections, and whether you'd be open to a 15-minute conversation about your testing schedule.",
				name, permitLine),
		}
	default:
		return Draft{
			Kind:     domain.DraftInitial,
			Fallback: true,
			Subject:  "Fire system inspection and testing for your property",
			Body: fmt.Sprintf("Hi %s,\n\nWe noticed %s. Keeping fire alarm and sprinkler systems on an inspection schedule is both a code requirement and the cheapest way to avoid findings later.\n\nWould you be open to a short call to see whether we can help? Happy to share references from similar properties.\n\nBest regards,\n{{sender_name}}",
				name, permitLine),
		}
	}
}

func fallbackFollowUpDraft(st *domain.WorkflowState, attempt int) Draft {
	name := contactFirstName(st)

	if attempt >= 3 {
		return Draft{
			Kind:     domain.DraftFollowUp,
			Fallback: true,
			Subject:  "No rush, leaving this with you",
			Body: fmt.Sprintf("Hi %s,\n\nNo pressure from my side. If an inspection and testing review ever becomes useful, I'm happy to send over a one-page summary or pick up where we left off.\n\nEither way, thanks for reading.\n\nBest regards,\n{{sender_name}}", name),
		}
	}

	if attempt == 2 {
		return Draft{
			Kind:     domain.DraftFollowUp,
			Fallback: true,
			Subject:  "Last note on fire system inspections",
			Body: fmt.Sprintf("Hi %s,\n\nI'll keep this short: this is my last active note. If your fire protection systems already have an inspection and testing schedule in place, ignore me entirely. If not, the gap tends to surface at the worst possible time.\n\nA 10-minute call is all I'm asking for.\n\nBest regards,\n{{sender_name}}", name),
		}
	}

	return Draft{
		Kind:     domain.DraftFollowUp,
		Fallback: true,
		Subject:  "Following up on fire system inspections",
		Body: fmt.Sprintf("Hi %s,\n\nJust floating my earlier note back to the top of your inbox. Annual inspection requirements for fire alarm and sprinkler systems sneak up on most building owners.\n\nWorth a quick call?\n\nBest regards,\n{{sender_name}}", name),
	}
}

func fallbackRebuttalDraft(st *domain.WorkflowState, objections []string) Draft {
	name := contactFirstName(st)

	theme := "your concern"
	if len(objections) > 0 {
		theme = strings.ToLower(sanitizeUserInput(objections[0], 120))
	}

	return Draft{
		Kind:     domain.DraftRebuttal,
		Fallback: true,
		Subject:  "Fair point, one quick thought",
		Body: fmt.Sprintf("Hi %s,\n\nThat's a fair point on %s, and I won't pretend otherwise. The one thing I'd leave you with: an inspection finding or an insurer query usually costs far more than staying ahead of the schedule.\n\nIf it's easier, I can send a one-page summary instead of a call. Just say the word.\n\nBest regards,\n{{sender_name}}", name, theme),
	}
}

func contactFirstName(st *domain.WorkflowState) string {
	name := strings.TrimSpace(st.ContactName)
	if name == "" {
		return "there"
	}
	if first, _, ok := strings.Cut(name, " "); ok {
		return first
	}
	return name
}

func permitSummaryLine(st *domain.WorkflowState) string {
	permitType := strings.TrimSpace(st.Permit.Type)
	if permitType == "" {
		permitType = "recent permit activity"
	} else {
		permitType = "a " + permitType + " permit"
	}
	if j := strings.TrimSpace(st.Permit.Jurisdiction); j != "" {
		return fmt.Sprintf("%s on file with %s for your property", permitType, j)
	}
	return fmt.Sprintf("%s on file for your property", permitType)
}
