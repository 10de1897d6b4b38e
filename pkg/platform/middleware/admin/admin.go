// Package admin authorises governance actions with a shared operator token.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/httputil"
	request "pulseaid/pkg/platform/middleware/request"
	"pulseaid/pkg/requestcontext"
)

const HeaderAdminToken = "X-Admin-Token"

func validToken(r *http.Request, expected string) bool {
	token := r.Header.Get(HeaderAdminToken)
	if expected == "" || token == "" {
		return false
	}
	// Use constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}

// RequireAdminToken rejects requests without the governance token.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !validToken(r, expectedToken) {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin token required"))
				return
			}
			ctx := requestcontext.WithGovernance(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DetectGovernance marks the request as governance when a valid token is present
// and passes everything else through untouched.
func DetectGovernance(expectedToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validToken(r, expectedToken) {
				r = r.WithContext(requestcontext.WithGovernance(r.Context()))
			}
			next.ServeHTTP(w, r)
		})
	}
}
