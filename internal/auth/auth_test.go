// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	bcryptCost = bcrypt.MinCost
}

func basicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestNewBasicAuthenticator_Validation(t *testing.T) {
	if _, err := NewBasicAuthenticator("", "securepassword"); err == nil {
		t.Error("expected error for empty username")
	}
	if _, err := NewBasicAuthenticator("admin", "short"); err == nil {
		t.Error("expected error for short password")
	}
}

func TestBasicAuthenticator_Authenticate(t *testing.T) {
	a, err := NewBasicAuthenticator("admin", "securepassword")
	if err != nil {
		t.Fatalf("NewBasicAuthenticator: %v", err)
	}

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"valid", basicHeader("admin", "securepassword"), nil},
		{"no header", "", ErrNoCredentials},
		{"bearer scheme", "Bearer abc", ErrNoCredentials},
		{"wrong password", basicHeader("admin", "wrongpassword"), ErrInvalidCredentials},
		{"wrong username", basicHeader("root", "securepassword"), ErrInvalidCredentials},
		{"bad base64", "Basic !!!", ErrInvalidCredentials},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("admin")), ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			subject, err := a.Authenticate(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (subject.Username != "admin" || !subject.HasRole(RoleAdmin)) {
				t.Errorf("subject = %+v", subject)
			}
		})
	}
}

func TestJWTAuthenticator_Authenticate(t *testing.T) {
	if _, err := NewJWTAuthenticator("too-short", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}

	a, err := NewJWTAuthenticator(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTAuthenticator: %v", err)
	}
	token, err := a.GenerateToken("alice", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other, _ := NewJWTAuthenticator(strings.Repeat("x", MinJWTSecretLength), time.Hour)
	foreign, _ := other.GenerateToken("alice", RoleAdmin)

	expired, _ := NewJWTAuthenticator(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _ := expired.GenerateToken("alice", RoleAdmin)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"valid", "Bearer " + token, nil},
		{"lowercase scheme", "bearer " + token, nil},
		{"no header", "", ErrNoCredentials},
		{"basic scheme", basicHeader("a", "b"), ErrNoCredentials},
		{"other secret", "Bearer " + foreign, ErrInvalidCredentials},
		{"expired", "Bearer " + stale, ErrExpiredCredentials},
		{"garbage", "Bearer not.a.token", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			subject, err := a.Authenticate(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (subject.Username != "alice" || subject.AuthMethod != ModeJWT) {
				t.Errorf("subject = %+v", subject)
			}
		})
	}
}

func TestNewMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantNil bool
		wantErr bool
	}{
		{"none", Config{Mode: ModeNone}, true, false},
		{"empty mode", Config{}, true, false},
		{"basic", Config{Mode: ModeBasic, Username: "admin", Password: "securepassword"}, false, false},
		{"basic short password", Config{Mode: ModeBasic, Username: "admin", Password: "x"}, true, true},
		{"jwt", Config{Mode: ModeJWT, JWTSecret: testSecret}, false, false},
		{"jwt short secret", Config{Mode: ModeJWT, JWTSecret: "x"}, true, true},
		{"unknown", Config{Mode: "oidc"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMiddleware(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if (m == nil) != tt.wantNil {
				t.Errorf("middleware nil = %v, want %v", m == nil, tt.wantNil)
			}
		})
	}
}

func TestMiddleware_RequireRole(t *testing.T) {
	basic, err := NewBasicAuthenticator("admin", "securepassword")
	if err != nil {
		t.Fatal(err)
	}
	jwtAuth, err := NewJWTAuthenticator(testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	adminToken, _ := jwtAuth.GenerateToken("alice", RoleAdmin)
	viewerToken, _ := jwtAuth.GenerateToken("bob", RoleViewer)

	var seen *Subject
	handler := NewMiddlewareWith(jwtAuth, basic).RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name      string
		header    string
		wantCode  int
		wantUser  string
		challenge bool
	}{
		{"no credentials", "", http.StatusUnauthorized, "", true},
		{"bad password", basicHeader("admin", "nope-nope"), http.StatusUnauthorized, "", true},
		{"basic admin", basicHeader("admin", "securepassword"), http.StatusNoContent, "admin", false},
		{"jwt admin", "Bearer " + adminToken, http.StatusNoContent, "alice", false},
		{"jwt viewer", "Bearer " + viewerToken, http.StatusForbidden, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodPut, "/api/v1/alerts/disabled", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := rec.Header().Get("WWW-Authenticate"); (got != "") != tt.challenge {
				t.Errorf("WWW-Authenticate = %q", got)
			}
			if tt.wantUser != "" && (seen == nil || seen.Username != tt.wantUser) {
				t.Errorf("subject = %+v, want %s", seen, tt.wantUser)
			}
		})
	}
}
