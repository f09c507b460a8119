// Package scheduler defers state machine re-entries through asynq: follow-up
// sends that must wait days and reply-timeout checks after each send.
package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskFollowUpDue = "engagement:followup_due"

const TaskResponseTimeout = "engagement:response_timeout"

type FollowUpDuePayload struct {
	LeadID      string    `json:"leadId"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

type ResponseTimeoutPayload struct {
	LeadID     string    `json:"leadId"`
	DeadlineAt time.Time `json:"deadlineAt"`
}

func NewFollowUpDueTask(payload FollowUpDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpDue, data), nil
}

func ParseFollowUpDuePayload(task *asynq.Task) (FollowUpDuePayload, error) {
	var payload FollowUpDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpDuePayload{}, err
	}
	return payload, nil
}

func NewResponseTimeoutTask(payload ResponseTimeoutPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskResponseTimeout, data), nil
}

func ParseResponseTimeoutPayload(task *asynq.Task) (ResponseTimeoutPayload, error) {
	var payload ResponseTimeoutPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ResponseTimeoutPayload{}, err
	}
	return payload, nil
}
