package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"pulseaid/pkg/platform/httputil"
	request "pulseaid/pkg/platform/middleware/request"
	"pulseaid/pkg/requestcontext"
)

const (
	scopeWallet = "wallet"
	scopeIP     = "ip"
)

type exceededResponse struct {
	Error       string    `json:"error"`
	Description string    `json:"error_description"`
	RetryAfter  int       `json:"retry_after"`
	ResetAt     time.Time `json:"reset_at"`
}

// Middleware enforces one Limit per caller.
type Middleware struct {
	store   Store
	limit   Limit
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Middleware)

func WithMetrics(m *Metrics) Option {
	return func(mw *Middleware) {
		mw.metrics = m
	}
}

func NewMiddleware(store Store, limit Limit, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{store: store, limit: limit, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if !limit.Enabled() {
		logger.Info("write rate limiting disabled")
	}
	return m
}

// Handler must run after authentication so the caller is already in the context.
// Governance requests are never limited. A failing store lets the request through.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !m.limit.Enabled() || requestcontext.IsGovernance(ctx) || r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		scope, key := m.key(r)
		result, err := m.store.AllowN(ctx, key, 1, m.limit.Requests, m.limit.Window)
		if err != nil {
			m.metrics.IncStoreFail()
			m.logger.ErrorContext(ctx, "failed to check rate limit",
				"error", err,
				"scope", scope,
				"request_id", request.GetRequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		setHeaders(w, result)
		if !result.Allowed {
			m.metrics.IncRejected(scope)
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"key", key,
				"limit", result.Limit,
				"request_id", request.GetRequestID(ctx),
			)
			seconds := int(result.RetryAfter / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			httputil.WriteJSON(w, http.StatusTooManyRequests, exceededResponse{
				Error:       "rate_limit_exceeded",
				Description: "too many writes, retry later",
				RetryAfter:  seconds,
				ResetAt:     result.ResetAt.UTC(),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) key(r *http.Request) (string, string) {
	if caller := requestcontext.Caller(r.Context()); caller != (common.Address{}) {
		return scopeWallet, scopeWallet + ":" + strings.ToLower(caller.Hex())
	}
	return scopeIP, scopeIP + ":" + clientIP(r)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func setHeaders(w http.ResponseWriter, result Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
