package scheduler

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/internal/engagement/engine"
	"permitflow_backend/platform/apperr"
	"permitflow_backend/platform/config"
	"permitflow_backend/platform/logger"
)

// Worker consumes the engagement queue and re-enters the state machine.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	engine *engine.Engine
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, eng *engine.Engine, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, errors.New("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		engine: eng,
		log:    log,
	}

	mux.HandleFunc(TaskFollowUpDue, w.handleFollowUpDue)
	mux.HandleFunc(TaskResponseTimeout, w.handleResponseTimeout)

	return w, nil
}

// handleFollowUpDue fires when a deferred send becomes eligible. The machine
// re-enters at SendOutreach, which re-checks eligibility itself.
func (w *Worker) handleFollowUpDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpDuePayload(task)
	if err != nil {
		return err
	}

	st, err := w.engine.ResumeFrom(ctx, payload.LeadID, domain.StepSendOutreach)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			w.log.Warn("followup_due for unknown lead", "lead_id", payload.LeadID)
			return nil
		}
		return err
	}

	w.log.WithLeadID(payload.LeadID).Info("deferred send processed", "status", st.WorkflowStatus)
	return nil
}

// handleResponseTimeout fires when the reply window elapses. Re-entry at
// AwaitResponse routes to the follow-up controller when the lead is still
// quiet and is a no-op when a reply already arrived.
func (w *Worker) handleResponseTimeout(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseResponseTimeoutPayload(task)
	if err != nil {
		return err
	}

	st, err := w.engine.ResumeFrom(ctx, payload.LeadID, domain.StepAwaitResponse)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			w.log.Warn("response_timeout for unknown lead", "lead_id", payload.LeadID)
			return nil
		}
		return err
	}

	w.log.WithLeadID(payload.LeadID).Info("reply timeout processed", "status", st.WorkflowStatus)
	return nil
}

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
