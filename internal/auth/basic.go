// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted Basic auth password.
const MinPasswordLength = 8

// bcryptCost is a package variable so tests can lower it.
var bcryptCost = 12

// BasicAuthenticator checks HTTP Basic credentials against one account.
// The account holds the admin role.
type BasicAuthenticator struct {
	username     string
	passwordHash []byte
	realm        string
}

// NewBasicAuthenticator hashes password once so requests only compare.
func NewBasicAuthenticator(username, password string) (*BasicAuthenticator, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &BasicAuthenticator{username: username, passwordHash: hash, realm: "Auditrail"}, nil
}

// Authenticate implements Authenticator.
func (a *BasicAuthenticator) Authenticate(_ context.Context, r *http.Request) (*Subject, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Basic ") {
		return nil, ErrNoCredentials
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok || !a.matches(username, password) {
		return nil, ErrInvalidCredentials
	}

	return &Subject{Username: username, Roles: []string{RoleAdmin}, AuthMethod: ModeBasic}, nil
}

// matches compares both fields even when the username is wrong.
func (a *BasicAuthenticator) matches(username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	return usernameMatch && passwordMatch
}

// Name implements Authenticator.
func (a *BasicAuthenticator) Name() string { return string(ModeBasic) }

// Challenge returns the WWW-Authenticate header value for 401 responses.
func (a *BasicAuthenticator) Challenge() string {
	return `Basic realm="` + a.realm + `", charset="UTF-8"`
}
