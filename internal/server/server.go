package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"promptgate/internal/gateway"
)

const (
	// maxFormBytes caps the size of a submitted form.
	maxFormBytes = 1 << 20

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Server serves the prompt page on top of a Gateway.
type Server struct {
	gateway *gateway.Gateway
	logger  *slog.Logger
}

// New creates a server for gw.
func New(gw *gateway.Gateway, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{gateway: gw, logger: logger}
}

// Handler returns the routed and logged HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	return logRequest(s.logger, mux)
}

// StartServer listens on addr and serves until ctx is cancelled.
func (s *Server) StartServer(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests for up to shutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", "http://"+ln.Addr().String(), "provider", s.gateway.ProviderID())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var prompt string
	switch r.Method {
	case http.MethodGet, http.MethodHead:
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		// ParseMultipartForm runs ParseForm first, so urlencoded bodies are
		// covered as well.
		if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			s.logger.Warn("invalid form submission", "error", err)
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		prompt = r.PostFormValue("prompt")
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	model := s.gateway.Handle(r.Context(), gateway.PromptRequest{Method: r.Method, Prompt: prompt})

	// Render into a buffer so a template failure never sends half a page.
	var buf bytes.Buffer
	if err := Render(&buf, model); err != nil {
		s.logger.Error("error rendering page", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("error writing page", "error", err)
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Provider: s.gateway.ProviderID()})
}

// writeJSON is a helper to write JSON responses.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// The response is likely already partially sent.
		s.logger.Error("error encoding JSON response", "error", err)
	}
}

// writeError is a helper to write JSON error responses.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
