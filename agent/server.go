package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"
	"uttt/experiments/metrics"
	"uttt/game"

	"github.com/rs/zerolog"
)

type findMoveRequest struct {
	State game.State `json:"state"`
}

// Server exposes an agent over HTTP. Searches are serialized since an agent's
// search tree is not safe for concurrent use.
type Server struct {
	mu     sync.Mutex
	agent  Agent
	mux    *http.ServeMux
	logger zerolog.Logger
}

func NewServer(agent Agent, logger zerolog.Logger) *Server {
	s := &Server{
		agent:  agent,
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.mux.HandleFunc("POST /findmove", s.handleFindMove)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// SetAgent swaps the agent used for subsequent requests.
func (s *Server) SetAgent(agent Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agent = agent
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("agent server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down agent server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleFindMove(w http.ResponseWriter, r *http.Request) {
	var payload findMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := game.ValidateState(payload.State); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	move, metric, err := s.findMove(payload.State)
	if errors.Is(err, game.ErrGameOver) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to find move")
		http.Error(w, "failed to find move: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Debug().
		Stringer("move", move).
		Int("episodes", metric.Episodes).
		Dur("duration", metric.Duration).
		Msg("served move")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(move); err != nil {
		http.Error(w, "failed to encode move: "+err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) findMove(state game.State) (game.Action, metrics.SearchMetric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent.FindMove(state)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
