// Package session shards detector state per user. The detectors themselves
// hold mutable history and are not safe for concurrent use, so each user
// gets an owned pair and the registry serializes access to the map. There is
// no shared state between sessions; independent users can be scored in
// parallel.
package session

import (
	"sync"

	"github.com/finnut/finnut/internal/impulsive"
	"github.com/finnut/finnut/internal/spike"
)

// Session owns the rolling detector state for one user stream.
type Session struct {
	UserID    string
	Impulsive *impulsive.Detector
	Spike     *spike.Detector

	// mu serializes scoring calls for this user; the registry only guards
	// the lookup, not the detectors.
	mu sync.Mutex
}

// Lock acquires the session for a scoring call chain.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Registry maps user IDs to their sessions, creating them on first use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Get returns the session for userID, creating a fresh one (empty detector
// history) if the user has not been seen before.
func (r *Registry) Get(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok {
		s = &Session{
			UserID:    userID,
			Impulsive: impulsive.NewDetector(),
			Spike:     spike.NewDetector(),
		}
		r.sessions[userID] = s
	}
	return s
}

// Reset drops a user's session so the next Get starts with empty history.
func (r *Registry) Reset(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
