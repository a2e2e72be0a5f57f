package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Hub is the in-process registry of connected observers.
type Hub struct {
	logger  *zap.Logger
	buffer  int
	dropped atomic.Uint64

	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewHub(logger *zap.Logger, buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{logger: logger, buffer: buffer, subs: make(map[*Subscription]struct{})}
}

// Subscription is one observer. An empty board id observes every board.
type Subscription struct {
	hub     *Hub
	boardID string
	ch      chan Event
	once    sync.Once
}

func (s *Subscription) Events() <-chan Event { return s.ch }

func (s *Subscription) BoardID() string { return s.boardID }

// Close detaches the observer and closes its channel. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

func (s *Subscription) wants(ev Event) bool {
	if s.boardID == "" {
		return true
	}
	if _, ok := ev.(BoardCreated); ok {
		return true
	}
	return ev.Board() == s.boardID
}

func (h *Hub) Subscribe(boardID string) *Subscription {
	sub := &Subscription{hub: h, boardID: boardID, ch: make(chan Event, h.buffer)}
	h.mu.Lock()
	closed := h.closed
	if !closed {
		h.subs[sub] = struct{}{}
	}
	h.mu.Unlock()
	if closed {
		sub.Close()
	}
	return sub
}

// Close detaches every observer and closes their channels. Subscriptions made
// afterwards come back already closed.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// Publish offers ev to every interested observer without blocking. An
// observer whose buffer is full misses the event and is expected to re-fetch
// the board.
func (h *Hub) Publish(_ context.Context, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.wants(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.dropped.Add(1)
			h.logger.Warn("observer too slow, event dropped",
				zap.String("board_id", ev.Board()),
				zap.String("type", string(ev.Type())),
			)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
