// Package services – AuthService
//
// This file implements admin authentication: a single shared password,
// checked against a bcrypt hash, exchanged for a bearer session token.
package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sockheadrps/pycourse/internal/session"
)

// SessionStore issues and checks admin session tokens.
type SessionStore interface {
	Issue() (session.Session, error)
	Validate(token string) bool
	Revoke(token string)
}

// AuthService checks the shared admin password and manages sessions.
// Only a bcrypt hash of the password is kept in memory.
type AuthService struct {
	Sessions SessionStore

	hash []byte
}

// NewAuthService hashes password and returns a service issuing sessions
// from sessions.
func NewAuthService(password string, sessions SessionStore) (*AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &AuthService{Sessions: sessions, hash: hash}, nil
}

// Login issues a new session when password matches.
func (a *AuthService) Login(ctx context.Context, password string) (session.Session, error) {
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		zerolog.Ctx(ctx).Warn().Msg("admin login rejected")
		return session.Session{}, ErrInvalidCredentials
	}
	sess, err := a.Sessions.Issue()
	if err != nil {
		return session.Session{}, fmt.Errorf("issue session: %w", err)
	}
	zerolog.Ctx(ctx).Info().Time("expires_at", sess.ExpiresAt).Msg("admin session issued")
	return sess, nil
}

// Verify reports whether token names a live session.
func (a *AuthService) Verify(token string) bool { return a.Sessions.Validate(token) }

// Logout ends the session of token.
func (a *AuthService) Logout(token string) { a.Sessions.Revoke(token) }
