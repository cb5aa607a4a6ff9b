package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/novahq/scribe/internal/capture"
)

// Server exposes the surface over local HTTP for the host process:
// POST /command with a Request body, GET /healthz for liveness.
type Server struct {
	surface   *Surface
	log       *zap.Logger
	authToken string
	maxBody   int64
	srv       *http.Server
}

// NewServer builds a control server bound to addr ("host:port").
func NewServer(addr, authToken string, maxBody int64, surface *Surface, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	s := &Server{surface: surface, log: log, authToken: authToken, maxBody: maxBody}

	mux := http.NewServeMux()
	mux.HandleFunc("/command", s.handleCommand)
	mux.HandleFunc("/healthz", s.handleHealth)
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.Info("control server listening", zap.String("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req Request
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, failf("invalid request body: %v", err))
		return
	}

	resp := s.surface.Handle(req)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"active": s.surface.engine.Active(),
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+s.authToken
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HTTPNotifier returns a fire-and-forget progress notifier that POSTs
// each update to url. Delivery failures are only logged: live progress
// must never block capture.
func HTTPNotifier(url string, log *zap.Logger) capture.Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	client := &http.Client{Timeout: 2 * time.Second}
	return func(p capture.Progress) {
		go func() {
			data, err := json.Marshal(p)
			if err != nil {
				return
			}
			resp, err := client.Post(url, "application/json", bytes.NewReader(data))
			if err != nil {
				log.Debug("progress delivery failed", zap.Error(err))
				return
			}
			resp.Body.Close()
			if resp.StatusCode >= 400 {
				log.Debug("progress delivery rejected",
					zap.String("status", fmt.Sprintf("%d", resp.StatusCode)))
			}
		}()
	}
}
