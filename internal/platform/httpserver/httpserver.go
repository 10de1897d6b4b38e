// Package httpserver builds the API's http.Server from the server configuration.
package httpserver

import (
	"net/http"
	"time"

	"pulseaid/internal/platform/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 2 * time.Minute
	maxHeaderBytes    = 1 << 20

	// writeSlack lets a handler that hit the request timeout still write its 504.
	writeSlack = 5 * time.Second
)

// New derives the connection deadlines from the per-request timeout.
func New(cfg config.Server, handler http.Handler) *http.Server {
	write := 60 * time.Second
	if cfg.RequestTimeout > 0 {
		write = cfg.RequestTimeout + writeSlack
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       write,
		WriteTimeout:      write,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}
}
