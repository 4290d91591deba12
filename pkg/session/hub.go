package session

import (
	"sort"
	"sync"

	"github.com/sw33tLie/shortscroll/pkg/control"
)

// Hub tracks the live session of every tab and fans control messages out
// to them.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

// Attach registers s under its tab id, closing the session it replaces.
func (h *Hub) Attach(s *Session) {
	h.mu.Lock()
	old := h.sessions[s.TabID()]
	h.sessions[s.TabID()] = s
	h.mu.Unlock()
	if old != nil && old != s {
		old.Close()
	}
}

// Detach closes and forgets the session of tabID.
func (h *Hub) Detach(tabID string) {
	h.mu.Lock()
	s := h.sessions[tabID]
	delete(h.sessions, tabID)
	h.mu.Unlock()
	if s != nil {
		s.Close()
	}
}

// Dispatch hands msg to every session and returns how many accepted it.
func (h *Hub) Dispatch(msg control.Message) int {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if s.Handle(msg) {
			delivered++
		}
	}
	return delivered
}

// Statuses returns a snapshot of every session, ordered by tab id.
func (h *Hub) Statuses() []Status {
	h.mu.RLock()
	out := make([]Status, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s.Status())
	}
	h.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].TabID < out[j].TabID })
	return out
}

// Len returns the number of attached sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close closes every session.
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
