package idempotency

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"pulseaid/pkg/requestcontext"
)

func newHandler(calls *atomic.Int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"call":`+string(rune('0'+n))+`}`)
	})
}

func post(key string, caller common.Address) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/campaigns/1/donations", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

func TestMiddleware_ReplaysCapturedResponse(t *testing.T) {
	var calls atomic.Int32
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Middleware(NewInMemoryStore(), time.Hour, logger)(newHandler(&calls, http.StatusCreated))
	donor := common.HexToAddress("0x00000000000000000000000000000000000000d1")

	first := httptest.NewRecorder()
	h.ServeHTTP(first, post("k-1", donor))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, post("k-1", donor))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(HeaderReplayed))
}

func TestMiddleware_KeysAreScopedToCaller(t *testing.T) {
	var calls atomic.Int32
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Middleware(NewInMemoryStore(), time.Hour, logger)(newHandler(&calls, http.StatusOK))

	h.ServeHTTP(httptest.NewRecorder(), post("same", common.HexToAddress("0x01")))
	h.ServeHTTP(httptest.NewRecorder(), post("same", common.HexToAddress("0x02")))
	assert.Equal(t, int32(2), calls.Load())
}

func TestMiddleware_DoesNotCaptureServerErrorsOrKeylessRequests(t *testing.T) {
	var calls atomic.Int32
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Middleware(NewInMemoryStore(), time.Hour, logger)(newHandler(&calls, http.StatusInternalServerError))
	caller := common.HexToAddress("0x03")

	h.ServeHTTP(httptest.NewRecorder(), post("k-2", caller))
	h.ServeHTTP(httptest.NewRecorder(), post("k-2", caller))
	h.ServeHTTP(httptest.NewRecorder(), post("", caller))
	assert.Equal(t, int32(3), calls.Load())
}

func TestInMemoryStore_Expiry(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	assert.NoError(t, store.Save(t.Context(), "k", Record{Status: 200}, time.Minute))
	_, err := store.Get(t.Context(), "k")
	assert.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(t.Context(), "k")
	assert.Error(t, err)
}
