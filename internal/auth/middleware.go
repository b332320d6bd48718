// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/auditrail/internal/logging"
)

// Config selects and configures the authenticator.
type Config struct {
	Mode       Mode
	Username   string
	Password   string
	JWTSecret  string
	JWTTimeout time.Duration
}

// Middleware enforces authentication and a role on wrapped handlers.
type Middleware struct {
	authenticators []Authenticator
	challenge      string
}

// NewMiddleware builds the authenticator for cfg.Mode. It returns nil for
// ModeNone.
func NewMiddleware(cfg Config) (*Middleware, error) {
	switch cfg.Mode {
	case ModeNone, "":
		return nil, nil
	case ModeBasic:
		basic, err := NewBasicAuthenticator(cfg.Username, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to create basic authenticator: %w", err)
		}
		return NewMiddlewareWith(basic), nil
	case ModeJWT:
		jwtAuth, err := NewJWTAuthenticator(cfg.JWTSecret, cfg.JWTTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create JWT authenticator: %w", err)
		}
		return NewMiddlewareWith(jwtAuth), nil
	}
	return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
}

// NewMiddlewareWith chains authenticators in order. A BasicAuthenticator
// supplies the 401 challenge.
func NewMiddlewareWith(authenticators ...Authenticator) *Middleware {
	m := &Middleware{authenticators: authenticators}
	for _, a := range authenticators {
		if basic, ok := a.(*BasicAuthenticator); ok {
			m.challenge = basic.Challenge()
			break
		}
	}
	if m.challenge == "" {
		m.challenge = `Bearer realm="Auditrail"`
	}
	return m
}

// RequireRole rejects requests without valid credentials (401) or without
// role (403). The subject is stored in the request context.
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := m.authenticate(r)
			if err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("Authentication failed")
				w.Header().Set("WWW-Authenticate", m.challenge)
				http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}
			if !subject.HasRole(role) {
				logging.Ctx(r.Context()).Warn().
					Str("username", subject.Username).
					Str("required_role", role).
					Msg("Authorization failed")
				http.Error(w, "Forbidden: "+role+" role required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}

// authenticate tries each authenticator until one recognises the
// credentials.
func (m *Middleware) authenticate(r *http.Request) (*Subject, error) {
	for _, a := range m.authenticators {
		subject, err := a.Authenticate(r.Context(), r)
		if errors.Is(err, ErrNoCredentials) {
			continue
		}
		return subject, err
	}
	return nil, ErrNoCredentials
}
