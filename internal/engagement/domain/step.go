package domain

import "time"

// Step is a named node of the engagement state machine.
type Step int

const (
	StepIngest Step = iota
	StepResearch
	StepQualificationGate
	StepDraftOutreach
	StepApprovalGate
	StepSendOutreach
	StepAwaitResponse
	StepHandleResponse
	StepFollowUp
	StepObjectionHandling
	StepBookMeeting
	StepUpdateCRM

	// StepSuspend parks the workflow until an external trigger re-enters it.
	StepSuspend
	// StepEnd terminates the dispatch loop.
	StepEnd
)

var stepNames = map[Step]string{
	StepIngest:            "ingest",
	StepResearch:          "research",
	StepQualificationGate: "qualification_gate",
	StepDraftOutreach:     "draft_outreach",
	StepApprovalGate:      "approval_gate",
	StepSendOutreach:      "send_outreach",
	StepAwaitResponse:     "await_response",
	StepHandleResponse:    "handle_response",
	StepFollowUp:          "follow_up",
	StepObjectionHandling: "objection_handling",
	StepBookMeeting:       "book_meeting",
	StepUpdateCRM:         "update_crm",
	StepSuspend:           "suspend",
	StepEnd:               "end",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// Transition is the enum-keyed transition table of the state machine. It is a
// pure function of the current step and state: side effects belong to the
// engine, which runs a step's effect first and then consults this table.
//
// A completed workflow always transitions to StepEnd regardless of step.
// Classification checks are evaluated in fixed order: positive, objection,
// no_response, unsubscribe; the first match wins.
func Transition(current Step, st *WorkflowState, p Policy, now time.Time) Step {
	if st.WorkflowComplete {
		return StepEnd
	}

	switch current {
	case StepIngest:
		return StepResearch

	case StepResearch:
		return StepQualificationGate

	case StepQualificationGate:
		if st.QualificationScore < p.QualifyThreshold {
			return StepEnd
		}
		return StepDraftOutreach

	case StepDraftOutreach:
		return StepApprovalGate

	case StepApprovalGate:
		switch st.ApprovalState {
		case ApprovalApproved, ApprovalAuto:
			return StepSendOutreach
		case ApprovalRejected:
			return StepEnd
		default:
			return StepSuspend
		}

	case StepSendOutreach:
		return StepAwaitResponse

	case StepAwaitResponse:
		if st.PendingResponse != nil && st.IsNewResponse(st.PendingResponse.ReceivedAt) {
			return StepHandleResponse
		}
		if st.ReplyTimedOut(now, p.ReplyTimeout) {
			return StepFollowUp
		}
		return StepSuspend

	case StepHandleResponse:
		if st.ResponseClassification == nil {
			return StepFollowUp
		}
		switch *st.ResponseClassification {
		case ClassificationPositive:
			return StepBookMeeting
		case ClassificationObjection:
			if st.ObjectionHandlingCount >= p.MaxObjectionCycles {
				return StepEnd
			}
			return StepObjectionHandling
		case ClassificationNoResponse:
			return StepFollowUp
		case ClassificationUnsubscribe:
			return StepEnd
		default:
			return StepEnd
		}

	case StepFollowUp:
		// The follow-up controller marks the workflow terminal when attempts
		// are exhausted; the completion check above handles that branch.
		return StepSendOutreach

	case StepObjectionHandling:
		return StepDraftOutreach

	case StepBookMeeting:
		return StepUpdateCRM

	case StepUpdateCRM:
		return StepEnd
	}

	return StepEnd
}
