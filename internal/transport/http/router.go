// Package httptransport composes the module handlers into one chi router with the
// shared middleware stack. Handlers own their routes; this package only decides which
// group (public, authenticated, governance) each set of routes lands in.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pulseaid/internal/platform/metrics"
	"pulseaid/internal/ratelimit"
	"pulseaid/pkg/platform/httputil"
	"pulseaid/pkg/platform/middleware/admin"
	"pulseaid/pkg/platform/middleware/auth"
	"pulseaid/pkg/platform/middleware/idempotency"
	request "pulseaid/pkg/platform/middleware/request"
	"pulseaid/pkg/platform/middleware/requesttime"
)

// Module is a handler with public routes. Handlers may also implement
// AuthenticatedModule and GovernanceModule.
type Module interface {
	Register(r chi.Router)
}

type AuthenticatedModule interface {
	RegisterAuthenticated(r chi.Router)
}

type GovernanceModule interface {
	RegisterGovernance(r chi.Router)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config carries everything the router needs besides the modules.
type Config struct {
	AdminToken     string
	RequestTimeout time.Duration
	Tokens         auth.TokenValidator
	Idempotency    idempotency.Store
	IdempotencyTTL time.Duration
	Metrics        *metrics.Metrics
	Clock          requesttime.Clock
	HealthChecks   map[string]HealthCheck
	RateLimit      *ratelimit.Middleware
}

// NewRouter wires the middleware stack and mounts every module.
func NewRouter(cfg Config, logger *slog.Logger, modules ...Module) http.Handler {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.WithClock(clock))
	r.Use(request.Logger(logger))
	if cfg.Metrics != nil {
		r.Use(instrument(cfg.Metrics))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(request.Timeout(cfg.RequestTimeout))
	}
	r.Use(request.ContentTypeJSON)
	r.Use(admin.DetectGovernance(cfg.AdminToken))

	r.Get("/healthz", healthHandler(cfg.HealthChecks, logger))
	r.Handle("/metrics", metrics.Handler())

	for _, m := range modules {
		m.Register(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.Tokens, logger))
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit.Handler)
		}
		if cfg.Idempotency != nil {
			r.Use(idempotency.Middleware(cfg.Idempotency, cfg.IdempotencyTTL, logger))
		}
		for _, m := range modules {
			if am, ok := m.(AuthenticatedModule); ok {
				am.RegisterAuthenticated(r)
			}
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(cfg.AdminToken, logger))
		for _, m := range modules {
			if gm, ok := m.(GovernanceModule); ok {
				gm.RegisterGovernance(r)
			}
		}
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"check", name,
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// instrument labels latency by route pattern, never the raw path, to keep
// cardinality bounded.
func instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if pattern := rc.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(r.Method, route, strconv.Itoa(status/100)+"xx", time.Since(start).Seconds())
		})
	}
}
