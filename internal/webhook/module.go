package webhook

import (
	apphttp "permitflow_backend/internal/http"
	"permitflow_backend/platform/config"
	"permitflow_backend/platform/logger"
	"permitflow_backend/platform/validator"
)

// Module is the webhook bounded context implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates the webhook module around the engagement gateway.
func NewModule(processor ReplyProcessor, cfg config.WebhookConfig, val *validator.Validator, log *logger.Logger) *Module {
	extractor := NewSubjectExtractor(cfg.GetSubjectTagPrefix())
	svc := NewService(processor, extractor, log)

	return &Module{handler: NewHandler(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the reply webhook behind API-key auth.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/webhook")
	group.Use(ctx.APIKeyMiddleware)
	group.POST("/replies", m.handler.HandleReply)
}

var _ apphttp.Module = (*Module)(nil)
