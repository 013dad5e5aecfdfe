// Package api serves the read-only HTTP surface: health, status snapshot,
// and Prometheus metrics. Frequency changes never flow through HTTP; the
// line protocol in internal/control is the only mutation path.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spectrodyne/tonegen/internal/engine"
)

// Handlers holds dependencies for the HTTP handlers.
type Handlers struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewHandlers creates handlers reading from the given engine.
func NewHandlers(e *engine.Engine, logger *zap.Logger) *Handlers {
	return &Handlers{engine: e, logger: logger}
}

// Router assembles the full middleware stack and routes.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(h.logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", h.Status)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Status handles GET /v1/status with a point-in-time engine snapshot.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.engine.Snapshot()); err != nil {
		h.logger.Warn("encode status", zap.Error(err))
	}
}

func (h *Handlers) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("requestId", chimw.GetReqID(r.Context())),
		)
	})
}
