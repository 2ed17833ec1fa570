// Package ws streams validation results to attached clients while a
// matrix run is in progress.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/clockless/internal/harness"
)

// State fans out per-tuple results and the final report over
// websockets and answers health probes.
type State struct {
	mu        sync.RWMutex
	clients   map[*websocket.Conn]bool
	results   []harness.Result
	report    *harness.Report
	startTime time.Time
	chipset   string
}

// NewState prepares the fanout hub for one validation run.
func NewState(chipset string) *State {
	return &State{
		clients:   map[*websocket.Conn]bool{},
		startTime: time.Now(),
		chipset:   chipset,
	}
}

// Publish records one finished tuple and pushes it to every client.
// Wire it to harness.OnResult.
func (s *State) Publish(res harness.Result) {
	s.mu.Lock()
	s.results = append(s.results, res)
	s.mu.Unlock()
	s.broadcast(map[string]any{"type": "result", "result": res})
}

// Finish records the aggregate report and pushes the summary.
func (s *State) Finish(rep harness.Report) {
	s.mu.Lock()
	s.report = &rep
	s.mu.Unlock()
	s.broadcast(map[string]any{"type": "summary", "report": rep})
}

// HandleResultsWS upgrades the connection and replays results seen so
// far before streaming new ones.
func (s *State) HandleResultsWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	backlog := append([]harness.Result{}, s.results...)
	s.mu.Unlock()

	for _, res := range backlog {
		b, _ := json.Marshal(map[string]any{"type": "result", "result": res})
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleHealth reports run progress counters.
func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"uptime_s": time.Since(s.startTime).Seconds(),
		"chipset":  s.chipset,
		"tuples":   len(s.results),
		"done":     s.report != nil,
	}
	if s.report != nil {
		resp["passed"] = s.report.Passed()
		resp["summary"] = s.report.Summary()
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) broadcast(msg map[string]any) {
	b, _ := json.Marshal(msg)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write result")
		}
	}
}
