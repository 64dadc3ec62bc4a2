package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"uttt/experiments/metrics"
	"uttt/game"
)

type remoteAgent struct {
	url    string
	client *http.Client
}

// NewRemoteAgent returns an agent that asks an agent server at url for its moves.
func NewRemoteAgent(url string, client *http.Client) Agent {
	if client == nil {
		client = &http.Client{Timeout: time.Minute}
	}
	return &remoteAgent{url: strings.TrimRight(url, "/"), client: client}
}

// FindMove posts the state to /findmove. Remote searches report only their duration.
func (a *remoteAgent) FindMove(state game.State) (game.Action, metrics.SearchMetric, error) {
	start := time.Now()
	body, err := json.Marshal(findMoveRequest{State: state})
	if err != nil {
		return game.Action{}, metrics.SearchMetric{}, fmt.Errorf("failed to encode state: %w", err)
	}

	resp, err := a.client.Post(a.url+"/findmove", "application/json", bytes.NewReader(body))
	if err != nil {
		return game.Action{}, metrics.SearchMetric{}, fmt.Errorf("failed to request move: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return game.Action{}, metrics.SearchMetric{}, game.ErrGameOver
	}
	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		return game.Action{}, metrics.SearchMetric{}, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, bytes.TrimSpace(out))
	}

	var move game.Action
	if err := json.NewDecoder(resp.Body).Decode(&move); err != nil {
		return game.Action{}, metrics.SearchMetric{}, fmt.Errorf("failed to decode move: %w", err)
	}
	return move, metrics.SearchMetric{Duration: time.Since(start)}, nil
}
