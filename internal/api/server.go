// Package api exposes the HTTP interface of the aggregation engine: feed
// submission, aggregate state reads, the mark-as-read collaborator, and the
// SSE event stream consumed by presentation layers.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mellyssy/feedwatch/internal/lifecycle"
	"github.com/mellyssy/feedwatch/internal/metrics"
	"github.com/mellyssy/feedwatch/internal/state"
)

// Server wires HTTP handlers to the store and lifecycle machine.
type Server struct {
	router  chi.Router
	store   *state.Store
	machine *lifecycle.Machine
	broker  *Broker
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(store *state.Store, machine *lifecycle.Machine, broker *Broker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	s := &Server{
		store:   store,
		machine: machine,
		broker:  broker,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/sources", func(r chi.Router) {
			r.Post("/", s.submitSource)
			r.Get("/", s.listSources)
		})
		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.listItems)
			r.Post("/{item_id}/read", s.markItemRead)
		})
		r.Route("/lifecycle", func(r chi.Router) {
			r.Get("/", s.getLifecycle)
			r.Post("/reset", s.resetLifecycle)
		})
		r.Get("/events", s.streamEvents)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		writeError(w, http.StatusNotFound, "event stream disabled")
		return
	}
	s.broker.ServeHTTP(w, r)
}
