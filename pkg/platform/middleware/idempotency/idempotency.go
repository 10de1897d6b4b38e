// Package idempotency replays the stored response of a write request retried with the
// same Idempotency-Key, so a client redelivering a donation or refund sees the original
// outcome instead of a second transition attempt.
package idempotency

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pulseaid/pkg/platform/sentinel"
	request "pulseaid/pkg/platform/middleware/request"
	"pulseaid/pkg/requestcontext"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"

	maxKeyLength = 255
)

// Record is a captured response.
type Record struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Store persists captured responses. Get returns sentinel.ErrNotFound when absent.
type Store interface {
	Get(ctx context.Context, key string) (Record, error)
	Save(ctx context.Context, key string, rec Record, ttl time.Duration) error
}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// scopedKey binds the client key to the caller and endpoint so two wallets cannot
// collide on the same key.
func scopedKey(r *http.Request, key string) string {
	return strings.Join([]string{
		requestcontext.Caller(r.Context()).Hex(),
		r.Method,
		r.URL.Path,
		key,
	}, "|")
}

// Middleware replays stored responses for repeated keys. Server errors are not
// captured so the client can retry them.
func Middleware(store Store, ttl time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(HeaderKey))
			if key == "" || r.Method == http.MethodGet || len(key) > maxKeyLength {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			scoped := scopedKey(r, key)

			rec, err := store.Get(ctx, scoped)
			switch {
			case err == nil:
				if rec.ContentType != "" {
					w.Header().Set("Content-Type", rec.ContentType)
				}
				w.Header().Set(HeaderReplayed, "true")
				w.WriteHeader(rec.Status)
				_, _ = w.Write(rec.Body)
				return
			case !errors.Is(err, sentinel.ErrNotFound):
				logger.WarnContext(ctx, "idempotency lookup failed",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
			}

			capture := &recorder{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			if capture.status == 0 || capture.status >= http.StatusInternalServerError {
				return
			}
			err = store.Save(ctx, scoped, Record{
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			}, ttl)
			if err != nil {
				logger.WarnContext(ctx, "idempotency save failed",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
			}
		})
	}
}
