// Package server exposes the question pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"vnquery/internal/agent"
	"vnquery/internal/logging"
	"vnquery/internal/market"
	"vnquery/internal/timerange"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server serves questions and raw price history over HTTP.
type Server struct {
	agent  *agent.Agent
	svc    *market.Service
	logger zerolog.Logger
	http   *http.Server
	cfg    Config
}

// New creates a Server wired to the given agent and market service.
func New(a *agent.Agent, svc *market.Service, cfg Config, logger zerolog.Logger) *Server {
	s := &Server{
		agent:  a,
		svc:    svc,
		logger: logging.WithComponent(logger, "server"),
		cfg:    cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ask", s.handleAsk)
	mux.HandleFunc("/price/history", s.handleHistory)
	mux.HandleFunc("/health", s.handleHealth)

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withRequestLog(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the server stops or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("http server shutting down")
		return s.http.Shutdown(shutdownCtx)
	}
}

type askRequest struct {
	Question string `json:"question"`
	UseLLM   *bool  `json:"use_llm,omitempty"`
}

// handleAsk answers one free-text question. The pipeline never fails, so the
// response is always 200 with a user-facing answer.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if req.Question == "" {
		s.writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	useLLM := true
	if req.UseLLM != nil {
		useLLM = *req.UseLLM
	}

	result := s.agent.Handle(r.Context(), req.Question, useLLM)
	s.writeJSON(w, http.StatusOK, result)
}

type historyResponse struct {
	Symbol   string         `json:"symbol"`
	Start    string         `json:"start"`
	End      string         `json:"end"`
	Interval string         `json:"interval"`
	Data     []market.Quote `json:"data"`
}

// handleHistory serves raw candles without LLM involvement.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	q := r.URL.Query()
	symbol := q.Get("symbol")
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	interval := q.Get("interval")
	if interval == "" {
		interval = "1D"
	}

	end := time.Now()
	start := end.AddDate(0, 0, -30)
	var err error
	if v := q.Get("start"); v != "" {
		if start, err = time.Parse(timerange.DateFormat, v); err != nil {
			s.writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
	}
	if v := q.Get("end"); v != "" {
		if end, err = time.Parse(timerange.DateFormat, v); err != nil {
			s.writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
			return
		}
	}

	quotes, err := s.svc.History(r.Context(), symbol, start, end, interval)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("history fetch failed")
		s.writeError(w, http.StatusBadGateway, "upstream data fetch failed")
		return
	}

	s.writeJSON(w, http.StatusOK, historyResponse{
		Symbol:   symbol,
		Start:    start.Format(timerange.DateFormat),
		End:      end.Format(timerange.DateFormat),
		Interval: interval,
		Data:     quotes,
	})
}

// handleHealth reports liveness and LLM readiness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"llm_ready": s.agent.LLMReady(),
		"llm_info":  s.agent.LLMInfo(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("response encode failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
