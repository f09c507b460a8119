package engine

import (
	"context"
	"time"

	"permitflow_backend/internal/engagement/domain"
)

const (
	followUpBaseDelay = 3 * 24 * time.Hour
	followUpMaxDelay  = 7 * 24 * time.Hour
)

// followUpDelay spaces attempts further apart as they accumulate: 3 days,
// then 6, capped at 7 from the third attempt on.
func followUpDelay(attempt int) time.Duration {
	delay := time.Duration(attempt) * followUpBaseDelay
	if attempt >= 3 && delay > followUpMaxDelay {
		return followUpMaxDelay
	}
	return delay
}

// applyFollowUp is the bounded follow-up controller. Exhausted attempts end
// the workflow as no_response; otherwise it drafts the next bump with
// escalating tone and defers the send.
func (e *Engine) applyFollowUp(ctx context.Context, st *domain.WorkflowState, now time.Time) {
	if st.FollowUpCount >= e.policy.MaxFollowUpAttempts {
		st.MarkTerminal(domain.StatusNoResponse)
		return
	}

	st.FollowUpCount++
	draft := e.content.DraftFollowUp(ctx, st, st.FollowUpCount)
	st.DraftSubject = draft.Subject
	st.DraftBody = draft.Body
	st.DraftKind = domain.DraftFollowUp

	nextSend := now.Add(followUpDelay(st.FollowUpCount))
	st.NextEligibleSendAt = &nextSend
}

// applyObjectionHandling increments the cycle counter unconditionally and
// drafts a rebuttal; the limit check lives in the response handler.
func (e *Engine) applyObjectionHandling(ctx context.Context, st *domain.WorkflowState) {
	st.ObjectionHandlingCount++

	draft := e.content.DraftRebuttal(ctx, st, st.Objections)
	st.DraftSubject = draft.Subject
	st.DraftBody = draft.Body
	st.DraftKind = domain.DraftRebuttal
	st.NextEligibleSendAt = nil
}
