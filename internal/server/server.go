package server

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Server wraps an *http.Server to provide start/shutdown lifecycle.
type Server struct {
	httpServer *http.Server
}

const (
	maxHeaderBytes    = 1 << 20 // 1 MB
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second

	// minWriteTimeout applies when the caller asks for less.
	minWriteTimeout = 10 * time.Second
	// writeSlack is added on top of the relay timeout so a timed-out relay
	// still gets its 504 written.
	writeSlack = 5 * time.Second
)

// newHTTPServer builds a configured *http.Server for the given address and handler.
func newHTTPServer(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// normalizeAddr ensures the provided port is a valid address (accepts "8080" or ":8080").
func normalizeAddr(port string) string {
	if port == "" {
		return ""
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// writeTimeoutFor sizes the response deadline around the slowest handler,
// which is a relayed call bounded by relayTimeout.
func writeTimeoutFor(relayTimeout time.Duration) time.Duration {
	if wt := relayTimeout + writeSlack; wt > minWriteTimeout {
		return wt
	}
	return minWriteTimeout
}

// Run starts the HTTP server on the given port using the provided handler.
// relayTimeout is the proxy's per-call timeout.
func (s *Server) Run(port string, handler http.Handler, relayTimeout time.Duration) error {
	s.httpServer = newHTTPServer(normalizeAddr(port), handler, writeTimeoutFor(relayTimeout))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
