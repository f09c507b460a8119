package domain

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestIsNewResponse(t *testing.T) {
	sentAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	st := &WorkflowState{LeadID: "lead-1", OutreachSentAt: &sentAt}

	if st.IsNewResponse(sentAt.Add(-time.Second)) {
		t.Fatal("reply before send must be stale")
	}
	if st.IsNewResponse(sentAt) {
		t.Fatal("reply at exactly send time must be stale")
	}
	if !st.IsNewResponse(sentAt.Add(time.Second)) {
		t.Fatal("reply after send must be new")
	}

	// Without a send timestamp there is no basis to order the reply.
	unsent := &WorkflowState{LeadID: "lead-2"}
	if !unsent.IsNewResponse(sentAt) {
		t.Fatal("reply with no prior send must be accepted")
	}
}

func TestIsNewResponse_RejectsOlderThanLastHandled(t *testing.T) {
	sentAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	handledAt := sentAt.Add(2 * time.Hour)
	st := &WorkflowState{LeadID: "lead-1", OutreachSentAt: &sentAt, LastResponseAt: &handledAt}

	if st.IsNewResponse(sentAt.Add(time.Hour)) {
		t.Fatal("reply older than the last handled reply must be stale")
	}
	if st.IsNewResponse(handledAt) {
		t.Fatal("reply at exactly the last handled timestamp must be stale")
	}
	if !st.IsNewResponse(handledAt.Add(time.Second)) {
		t.Fatal("reply after the last handled reply must be new")
	}

	// The guard holds even before any outreach was sent.
	unsent := &WorkflowState{LeadID: "lead-2", LastResponseAt: &handledAt}
	if unsent.IsNewResponse(handledAt.Add(-time.Minute)) {
		t.Fatal("older reply must stay stale without a prior send")
	}
}

func TestWorkflowState_JSONRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	sentAt := now.Add(time.Hour)
	repliedAt := now.Add(2 * time.Hour)
	nextSend := now.Add(73 * time.Hour)
	exportedAt := now.Add(74 * time.Hour)
	issuedAt := now.AddDate(0, -1, 0)
	classification := ClassificationObjection

	st := &WorkflowState{
		LeadID:       "lead-rt",
		CompanyName:  "Moran Property Group",
		ContactName:  "Alex Moran",
		ContactEmail: "alex@example.com",
		ContactPhone: "+15125550100",
		Permit: PermitRecord{
			PermitID:      "P-2026-0042",
			Status:        "Issued",
			Type:          "Fire Alarm",
			Description:   "Replace panel and notification devices",
			Jurisdiction:  "City of Austin",
			Address:       "500 Congress Ave",
			OccupancyType: "Business",
			SourceTag:     "austin-open-data",
			IssuedAt:      &issuedAt,
		},
		QualificationScore:     0.85,
		ComplianceUrgencyScore: 0.6,
		OutreachChannel:        ChannelEmail,
		ApprovalState:          ApprovalAuto,
		DraftSubject:           "Fire system inspection for 500 Congress",
		DraftBody:              "Hi Alex, quick note about your permit.",
		DraftKind:              DraftRebuttal,
		OutreachSentAt:         &sentAt,
		AwaitingReply:          true,
		NextEligibleSendAt:     &nextSend,
		ResponseClassification: &classification,
		Sentiment:              "negative",
		InterestLevel:          "low",
		Objections:             []string{"too expensive", "already have a vendor"},
		LastResponseAt:         &repliedAt,
		PendingResponse:        &ResponseRecord{LeadID: "lead-rt", Content: "transient"},
		FollowUpCount:          1,
		ObjectionHandlingCount: 2,
		WorkflowStatus:         StatusAwaitingReply,
		BookingPayload: &BookingPayload{
			ContactEmail:   "alex@example.com",
			MeetingType:    "site_visit",
			PreferredTimes: []string{"morning"},
			PreferredDates: []string{"Tuesday"},
			Notes:          "gate code 4411",
		},
		CRMExportedAt: &exportedAt,
		Version:       3,
		CreatedAt:     now,
		UpdatedAt:     repliedAt,
	}

	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got WorkflowState
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.PendingResponse != nil {
		t.Fatal("pending response is transient and must not survive persistence")
	}

	// Everything else round-trips unchanged.
	want := *st
	want.PendingResponse = nil
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestReplyTimedOut(t *testing.T) {
	sentAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	st := &WorkflowState{LeadID: "lead-1", OutreachSentAt: &sentAt}

	if st.ReplyTimedOut(sentAt.Add(71*time.Hour), 72*time.Hour) {
		t.Fatal("expected no timeout before the window elapses")
	}
	if !st.ReplyTimedOut(sentAt.Add(72*time.Hour), 72*time.Hour) {
		t.Fatal("expected timeout exactly at the window boundary")
	}

	unsent := &WorkflowState{LeadID: "lead-2"}
	if unsent.ReplyTimedOut(sentAt, 72*time.Hour) {
		t.Fatal("expected no timeout without a prior send")
	}
}

func TestMarkTerminal_ClearsWaitState(t *testing.T) {
	next := time.Now().Add(time.Hour)
	st := &WorkflowState{
		LeadID:             "lead-1",
		AwaitingReply:      true,
		NextEligibleSendAt: &next,
	}

	st.MarkTerminal(StatusNoResponse)

	if !st.WorkflowComplete {
		t.Fatal("expected workflow to be complete")
	}
	if st.AwaitingReply {
		t.Fatal("expected awaiting_reply to be cleared")
	}
	if st.NextEligibleSendAt != nil {
		t.Fatal("expected next_eligible_send_at to be cleared")
	}
	if !st.IsTerminal() || st.CanSendOutreach() {
		t.Fatal("terminal workflow must refuse further outreach")
	}
}

func TestValidate(t *testing.T) {
	p := DefaultPolicy()

	valid := NewWorkflowState("lead-1", time.Now())
	if err := valid.Validate(p); err != nil {
		t.Fatalf("expected fresh state to validate, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*WorkflowState)
	}{
		{"missing lead id", func(st *WorkflowState) { st.LeadID = " " }},
		{"score above one", func(st *WorkflowState) { st.QualificationScore = 1.2 }},
		{"negative urgency", func(st *WorkflowState) { st.ComplianceUrgencyScore = -0.1 }},
		{"unknown channel", func(st *WorkflowState) { st.OutreachChannel = "fax" }},
		{"unknown classification", func(st *WorkflowState) {
			c := Classification("maybe")
			st.ResponseClassification = &c
		}},
		{"followup overflow", func(st *WorkflowState) { st.FollowUpCount = p.MaxFollowUpAttempts + 1 }},
		{"objection overflow", func(st *WorkflowState) { st.ObjectionHandlingCount = p.MaxObjectionCycles + 1 }},
		{"complete with open status", func(st *WorkflowState) {
			st.WorkflowComplete = true
			st.WorkflowStatus = StatusActive
		}},
	}
	for _, tc := range cases {
		st := NewWorkflowState("lead-1", time.Now())
		tc.mutate(st)
		if err := st.Validate(p); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestIsTerminalStatus(t *testing.T) {
	terminal := []Status{StatusDisqualified, StatusApprovalRejected, StatusNoResponse, StatusObjectionLoopMax, StatusUnsubscribed, StatusBookingReady}
	for _, s := range terminal {
		if !IsTerminalStatus(s) {
			t.Fatalf("expected %q to be terminal", s)
		}
	}
	open := []Status{StatusActive, StatusPendingApproval, StatusAwaitingReply, StatusSendScheduled}
	for _, s := range open {
		if IsTerminalStatus(s) {
			t.Fatalf("expected %q to be open", s)
		}
	}
}
