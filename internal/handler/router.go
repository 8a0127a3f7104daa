package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ann82/dv-assistant-sub003/internal/handler/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/handler/stream"
	"github.com/ann82/dv-assistant-sub003/internal/handler/ws"
	middlewarePkg "github.com/ann82/dv-assistant-sub003/internal/middleware"
	"github.com/ann82/dv-assistant-sub003/internal/observability"
	"github.com/ann82/dv-assistant-sub003/internal/service/assistant"
	"github.com/ann82/dv-assistant-sub003/pkg/utils"
)

// Options toggles the operational endpoints.
type Options struct {
	MetricsEnabled bool
}

// NewRouter wires HTTP routes to the engine.
func NewRouter(engine *assistant.Engine, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", observability.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		conversation.New(engine).RegisterRoutes(api)
		stream.New(engine).RegisterRoutes(api)
		ws.New(engine).RegisterRoutes(api)
	})

	return r
}
