package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kestrelsec/kestrel/internal/pscan"
	"github.com/kestrelsec/kestrel/internal/webctx"
)

// RouterConfig bundles the dependencies of the API router.
type RouterConfig struct {
	// Engine is the passive scan engine handling submitted messages.
	Engine *pscan.Engine
	// Registry is the context registry exposed read-only over the API.
	Registry *webctx.Registry
	// MaxBodySize caps accepted request bodies in bytes.
	MaxBodySize int64
}

// NewRouter creates a chi router with all endpoints and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	h := &Handler{
		engine:      cfg.Engine,
		registry:    cfg.Registry,
		maxBodySize: cfg.MaxBodySize,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Post("/messages", h.handleMessage)
		r.Get("/alerts", h.handleAlerts)
		r.Delete("/alerts", h.handleResetAlerts)
		r.Get("/contexts", h.handleContexts)
	})

	return r
}
