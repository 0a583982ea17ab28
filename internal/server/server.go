// Package server exposes the medicine operations as a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/medimatch/medimatch/pkg/medicine"
	"github.com/medimatch/medimatch/pkg/metrics"
)

// Medicines is the subset of *medicine.Service used by the handlers.
type Medicines interface {
	Search(ctx context.Context, p medicine.SearchParams) (*medicine.MedicineResponse, error)
	ListByIngredient(ctx context.Context, name string, pageNo int) (*medicine.PermissionResponse, error)
	ListByEfficacy(ctx context.Context, efficacy string, pageNo int) (*medicine.MedicineResponse, error)
	Profile(ctx context.Context, itemSeq string) (*medicine.Profile, error)
}

// Server holds the handler dependencies.
type Server struct {
	medicines Medicines
	redis     *redis.Client
	logger    zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRedis enables the Redis check of the readiness endpoint.
func WithRedis(client *redis.Client) Option {
	return func(s *Server) {
		s.redis = client
	}
}

// New creates a Server.
func New(medicines Medicines, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		medicines: medicines,
		logger:    logger.With().Str("component", "server").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/ingredient", s.handleIngredient)
		r.Get("/efficacy", s.handleEfficacy)
		r.Get("/medicine/{itemSeq}", s.handleMedicine)
	})

	return r
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	event := hlog.FromRequest(r).Info()
	if status >= http.StatusInternalServerError {
		event = hlog.FromRequest(r).Warn()
	}
	event.
		Str("request_id", chiMiddleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("Request handled")
}
