package frameworks

import (
	"log/slog"
	"net/http"

	"github.com/agentdeck/agentdeck/pkg/handlers"
	"github.com/agentdeck/agentdeck/pkg/routes"
)

// Handler provides HTTP handlers for framework discovery endpoints.
type Handler struct {
	registry *Registry
	logger   *slog.Logger
}

// NewHandler creates a new frameworks HTTP handler.
func NewHandler(registry *Registry, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   logger,
	}
}

// Routes returns the route group configuration for framework endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/frameworks",
		Description: "Execution framework discovery",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/schemas", Handler: h.Schemas},
		},
	}
}

// List handles GET /api/frameworks to list registered framework names.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"frameworks": h.registry.Names(),
	})
}

// Schemas handles GET /api/frameworks/schemas to describe framework
// configuration fields.
func (h *Handler) Schemas(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.registry.Schemas())
}
