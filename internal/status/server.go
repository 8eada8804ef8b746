// Package status serves the keep-alive loop state over local HTTP.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/stigoleg/awake/internal/keepalive"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 3 * time.Second

// Source provides the current loop snapshot.
type Source interface {
	Status() keepalive.Status
}

// Server exposes GET /status and GET /healthz.
type Server struct {
	addr    string
	src     Source
	session string
	logger  *slog.Logger
	now     func() time.Time
}

// NewServer creates a server for addr. It does not listen until Run.
func NewServer(addr string, src Source, session string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:    addr,
		src:     src,
		session: session,
		logger:  logger.With("component", "status"),
		now:     time.Now,
	}
}

// Handler returns the routed handler with access logging and panic
// recovery.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.getHealth).Methods(http.MethodGet)

	recovered := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
	)(r)
	return handlers.LoggingHandler(accessLog{s.logger}, recovered)
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("status listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("status endpoint listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status shutdown: %w", err)
	}
	return nil
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, NewView(s.src.Status(), s.session, s.now()))
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.src.Status()
	code := http.StatusOK
	if st.Health == keepalive.HealthFailed {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{
		"phase":  st.Phase.String(),
		"health": st.Health.String(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// accessLog feeds combined access log lines into slog at debug level.
type accessLog struct{ logger *slog.Logger }

func (a accessLog) Write(p []byte) (int, error) {
	a.logger.Debug("http request", "line", strings.TrimSpace(string(p)))
	return len(p), nil
}

type recoveryLogger struct{ logger *slog.Logger }

func (r recoveryLogger) Println(v ...any) {
	r.logger.Error("status handler panic", "panic", fmt.Sprint(v...))
}
