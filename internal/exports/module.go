package exports

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "permitflow_backend/internal/http"
)

// Module is the exports bounded context implementing http.Module.
type Module struct {
	handler  *Handler
	repo     *Repository
	exporter *Exporter
}

// NewModule creates and initializes the exports module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := NewRepository(pool)
	return &Module{
		handler:  NewHandler(repo),
		repo:     repo,
		exporter: NewExporter(repo),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// Exporter exposes the CRM export hook for the engagement engine.
func (m *Module) Exporter() *Exporter {
	return m.exporter
}

// RegisterRoutes mounts the CSV export behind API-key auth.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/exports")
	group.Use(ctx.APIKeyMiddleware)
	group.GET("/crm.csv", m.handler.HandleExportCSV)
}

var _ apphttp.Module = (*Module)(nil)
