// Package session keeps admin session tokens in memory for the lifetime of
// the process. Tokens are opaque random strings mapped to an expiry time.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// Clock abstracts time retrieval so expiry is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// tokenBytes is the amount of randomness behind each token.
const tokenBytes = 32

// Session is an issued admin session. It is never mutated after Issue.
type Session struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store maps tokens to sessions. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	clock    Clock
	sessions map[string]Session
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// NewStore returns an empty store issuing sessions valid for ttl.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		ttl:      ttl,
		clock:    RealClock{},
		sessions: make(map[string]Session),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TTL reports how long issued sessions stay valid.
func (s *Store) TTL() time.Duration { return s.ttl }

// Issue creates a new session valid from now until now+TTL.
func (s *Store) Issue() (Session, error) {
	tok, err := newToken()
	if err != nil {
		return Session{}, err
	}
	now := s.clock.Now().UTC()
	sess := Session{Token: tok, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}

	s.mu.Lock()
	s.sessions[tok] = sess
	s.mu.Unlock()
	return sess, nil
}

// Validate reports whether token names a live session. A session is live
// up to and including its expiry instant; an expired one is evicted here.
func (s *Store) Validate(token string) bool {
	if token == "" {
		return false
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return false
	}
	if now.After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return false
	}
	return true
}

// Revoke drops token. Unknown tokens are ignored.
func (s *Store) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// SweepExpired evicts every expired session and returns how many were removed.
func (s *Store) SweepExpired() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for tok, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, tok)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
