// Package engagement wires the engagement bounded context: state machine
// engine, content agent, persistence, and HTTP surface.
package engagement

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"permitflow_backend/internal/engagement/agent"
	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/internal/engagement/engine"
	"permitflow_backend/internal/engagement/handler"
	"permitflow_backend/internal/engagement/repository"
	"permitflow_backend/internal/engagement/service"
	apphttp "permitflow_backend/internal/http"
	"permitflow_backend/internal/outreach"
	"permitflow_backend/platform/ai/kimi"
	"permitflow_backend/platform/config"
	"permitflow_backend/platform/events"
	"permitflow_backend/platform/logger"
	"permitflow_backend/platform/validator"
)

// Module is the engagement bounded context implementing http.Module.
type Module struct {
	handler *Handler
	service *service.Service
	engine  *engine.Engine
	repo    *repository.Repository
}

// Handler aliases the package handler to keep the module surface small.
type Handler = handler.Handler

// Deps carries the external collaborators the module cannot build itself.
type Deps struct {
	Pool      *pgxpool.Pool
	Bus       events.Bus
	Logger    *logger.Logger
	Validator *validator.Validator
	Config    *config.Config

	// Scheduler defers sends and timeout checks; nil disables deferral.
	Scheduler engine.Scheduler
	// Exporter pushes booked workflows into the CRM export table; optional.
	Exporter engine.CRMExporter
}

// NewModule assembles the engagement pipeline.
func NewModule(d Deps) *Module {
	repo := repository.New(d.Pool)

	model := kimi.New(kimi.Config{
		APIKey:          d.Config.GetModelAPIKey(),
		BaseURL:         d.Config.GetModelBaseURL(),
		Model:           d.Config.GetModelName(),
		DisableThinking: true,
	})
	content := agent.NewContentGenerator(model, d.Logger)

	dispatcher := outreach.NewDispatcher(
		emailSender(d.Config),
		chatSender(d.Config, d.Logger),
		voiceSender(d.Config, d.Logger),
		d.Config.GetSubjectTagPrefix(),
		d.Logger,
	)

	eng := engine.New(engine.Config{
		Store:     repo,
		Content:   content,
		Sender:    dispatcher,
		Scheduler: d.Scheduler,
		Exporter:  d.Exporter,
		Bus:       d.Bus,
		Logger:    d.Logger,
		Policy:    policyFrom(d.Config),
	})

	svc := service.New(eng, repo, d.Logger)

	return &Module{
		handler: handler.New(svc, d.Validator),
		service: svc,
		engine:  eng,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "engagement"
}

// RegisterRoutes mounts workflow routes on the v1 group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/workflows"))
}

// Service exposes the workflow operations to sibling modules (webhook).
func (m *Module) Service() *service.Service {
	return m.service
}

// Engine exposes the state machine to the background worker.
func (m *Module) Engine() *engine.Engine {
	return m.engine
}

// Store exposes workflow listing for the background sweeper.
func (m *Module) Store() *repository.Repository {
	return m.repo
}

func policyFrom(cfg config.PipelineConfig) domain.Policy {
	return domain.Policy{
		QualifyThreshold:     cfg.GetQualifyThreshold(),
		AutoApproveThreshold: cfg.GetAutoApproveThreshold(),
		MaxFollowUpAttempts:  cfg.GetMaxFollowUpAttempts(),
		MaxObjectionCycles:   cfg.GetMaxObjectionCycles(),
		ReplyTimeout:         cfg.GetReplyTimeout(),
	}
}

// Typed-nil guards: a nil concrete client must become a nil interface, or the
// dispatcher would call through it.

func emailSender(cfg *config.Config) outreach.EmailSender {
	if cfg.GetSMTPHost() == "" {
		return nil
	}
	return outreach.NewSMTPSender(cfg)
}

func chatSender(cfg *config.Config, log *logger.Logger) outreach.ChatSender {
	client := outreach.NewChatClient(cfg, log)
	if client == nil {
		return nil
	}
	return client
}

func voiceSender(cfg *config.Config, log *logger.Logger) outreach.VoiceSender {
	client := outreach.NewVoiceClient(cfg, log)
	if client == nil {
		return nil
	}
	return client
}

var _ apphttp.Module = (*Module)(nil)
