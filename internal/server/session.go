package server

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/averyhart/qa-advisor/internal/chat"
	"github.com/averyhart/qa-advisor/internal/telemetry"
)

// session pairs a conversation with the bookkeeping needed to expire it. The
// mutex serializes conversation access: one in-flight submit per browser
// session.
type session struct {
	id   string
	conv *chat.Conversation
	mu   sync.Mutex

	lastActive atomic.Int64 // unix nanoseconds
}

func (s *session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *session) idleSince() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Registry holds the live sessions of this process. Each browser session gets
// its own conversation; nothing is shared between sessions and nothing
// survives the process.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session

	newConversation func() *chat.Conversation
	idleTimeout     time.Duration
}

func NewRegistry(newConversation func() *chat.Conversation, idleTimeout time.Duration) *Registry {
	return &Registry{
		sessions:        make(map[string]*session),
		newConversation: newConversation,
		idleTimeout:     idleTimeout,
	}
}

// Get returns the session with the given ID, or nil.
func (r *Registry) Get(id string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// Create registers a fresh session and returns it.
func (r *Registry) Create() *session {
	s := &session{
		id:   telemetry.NewSessionID(),
		conv: r.newConversation(),
	}
	s.touch()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.id] = s
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle longer than the timeout until ctx is cancelled.
func (r *Registry) Sweep(ctx context.Context) {
	ticker := time.NewTicker(r.idleTimeout / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

func (r *Registry) evictIdle() {
	cutoff := time.Now().Add(-r.idleTimeout)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			log.Printf("Evicted idle session %s", id)
		}
	}
}
