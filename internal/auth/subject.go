// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

// Package auth authenticates callers of the mutating API endpoints.
//
// Two schemes are supported: HTTP Basic against a single configured admin
// account, and HS256 JWT bearer tokens carrying a role claim. RequireRole
// chains the configured authenticators in front of a handler.
package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
)

// Mode selects how admin requests are authenticated.
type Mode string

// Authentication modes.
const (
	ModeNone  Mode = "none"
	ModeBasic Mode = "basic"
	ModeJWT   Mode = "jwt"
)

// Roles.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

var (
	// ErrNoCredentials means the request carried no credentials for the
	// authenticator's scheme. The next authenticator is tried.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials means the credentials were present but wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials means a token was valid but has expired.
	ErrExpiredCredentials = errors.New("credentials expired")
)

// Subject is an authenticated caller.
type Subject struct {
	Username   string
	Roles      []string
	AuthMethod Mode
}

// HasRole reports whether the subject holds role.
func (s *Subject) HasRole(role string) bool {
	return s != nil && slices.Contains(s.Roles, role)
}

// Authenticator validates the credentials of a request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*Subject, error)
	Name() string
}

type subjectKey struct{}

// WithSubject returns ctx carrying s.
func WithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, s)
}

// SubjectFromContext returns the authenticated caller, or nil.
func SubjectFromContext(ctx context.Context) *Subject {
	s, _ := ctx.Value(subjectKey{}).(*Subject)
	return s
}
