// Package httpapi exposes the kernel over a small chi-routed HTTP surface:
// POST /input to ingest text, GET /status for a point-in-time snapshot.
// Modeled on the gateway package's REST adapter, trimmed to this system's
// two operations instead of a general inbound/outbound message protocol.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/nidhogg/cogkernel/internal/kernel"
	"go.uber.org/zap"
)

// Server wraps a kernel with an HTTP surface.
type Server struct {
	kernel *kernel.Kernel
	logger *zap.Logger
}

// NewRouter builds the chi router for the given kernel.
func NewRouter(k *kernel.Kernel, logger *zap.Logger) chi.Router {
	s := &Server{kernel: k, logger: logger}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))
	r.Post("/input", s.handleInput)
	r.Get("/status", s.handleStatus)
	return r
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, `{"error":"text is required"}`, http.StatusBadRequest)
		return
	}

	requestID := uuid.New().String()
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	s.kernel.InjectText(ctx, req.Text)
	if s.logger != nil {
		s.logger.Info("ingested input", zap.String("request_id", requestID))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	json.NewEncoder(w).Encode(s.kernel.Status())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.kernel.Status()); err != nil && s.logger != nil {
		s.logger.Warn("failed to encode status response", zap.Error(err))
	}
}
