// Package server exposes the evaluator over HTTP and streams scenario results to websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/chenzhuyu2004/greensplit/internal/app"
	"github.com/chenzhuyu2004/greensplit/internal/flows"
	"github.com/chenzhuyu2004/greensplit/internal/lp"
	"github.com/chenzhuyu2004/greensplit/internal/output"
	"github.com/chenzhuyu2004/greensplit/pkg"
)

const maxRequestBytes = 1 << 20

type Config struct {
	App *app.App
	// Source supplies scenarios when a request carries none.
	Source  app.ScenarioSource
	Params  app.Params
	Workers int
	Timeout time.Duration
	Metrics *lp.CounterRecorder
	Logger  *slog.Logger
}

type Server struct {
	Router *http.ServeMux
	hub    *Hub
	cfg    Config
	logger *slog.Logger
}

type evaluateRequest struct {
	Params    *app.Params      `json:"params"`
	Scenarios []flows.Scenario `json:"scenarios"`
}

type metricsResponse struct {
	Solver           lp.CounterSnapshot `json:"solver"`
	WebsocketClients int                `json:"websocket_clients"`
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.App == nil {
		cfg.App = app.New(nil, logger)
	}
	if cfg.Params == (app.Params{}) {
		cfg.Params = app.DefaultParams()
	}

	mux := http.NewServeMux()
	hub := NewHub(logger)
	go hub.run()

	s := &Server{
		hub:    hub,
		cfg:    cfg,
		logger: logger,
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/evaluate", s.handleEvaluate)
	mux.HandleFunc("/api/allocate", s.handleAllocate)
	mux.HandleFunc("/api/delay", s.handleDelay)
	mux.HandleFunc("/metrics", s.handleMetrics)

	s.Router = http.NewServeMux()
	s.Router.Handle("/", withCORS(s.withRequestLog(mux)))
	return s
}

// Close disconnects websocket clients.
func (s *Server) Close() {
	s.hub.Stop()
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	serveWS(s.hub, w, r)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// Fields missing from the body keep the server's configured values.
	params := s.cfg.Params
	req := evaluateRequest{Params: &params}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Params == nil {
		params = s.cfg.Params
	}

	scenarios := req.Scenarios
	if len(scenarios) == 0 {
		loaded, err := s.cfg.App.LoadScenarios(r.Context(), s.cfg.Source)
		if err != nil {
			writeError(w, err)
			return
		}
		scenarios = loaded
	}

	runID := uuid.NewString()
	out, err := s.cfg.App.Evaluate(r.Context(), app.EvaluateInput{
		RunID:     runID,
		Params:    params,
		Scenarios: scenarios,
		Workers:   s.cfg.Workers,
		Timeout:   s.cfg.Timeout,
		Observer: func(res app.ScenarioResult) {
			s.hub.Broadcast(newEvent("scenario", runID, res))
		},
	})
	if err != nil {
		s.hub.Broadcast(newEvent("error", runID, map[string]any{"error": err.Error()}))
		writeError(w, err)
		return
	}

	s.hub.Broadcast(newEvent("done", runID, map[string]any{
		"scenarios":   len(out.Results),
		"failed":      out.Failed,
		"duration_ms": out.DurationMS,
	}))
	writeJSON(w, http.StatusOK, struct {
		SchemaVersion string `json:"schema_version"`
		app.EvaluateOutput
	}{SchemaVersion: pkg.JSONSchemaVersion, EvaluateOutput: out})
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	in := app.AllocateInput{
		SaturationA: s.cfg.Params.SaturationNS,
		SaturationB: s.cfg.Params.SaturationEO,
		Cycle:       s.cfg.Params.Cycle,
		GMin:        s.cfg.Params.GMin,
		GMax:        s.cfg.Params.GMax,
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	out, err := s.cfg.App.Allocate(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	in := app.DelayInput{Saturation: s.cfg.Params.SaturationNS, Cycle: s.cfg.Params.Cycle}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	out, err := s.cfg.App.Delay(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	resp := metricsResponse{WebsocketClients: s.hub.Clients()}
	if s.cfg.Metrics != nil {
		resp.Solver = s.cfg.Metrics.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid json: %v", app.ErrInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps application errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrInfeasible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, app.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := output.NewErrorResponse(err)
	resp.Code = status
	resp.Kind = app.ErrorKind(err)
	writeJSON(w, status, resp)
}
