// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package middleware

import (
	"net"
	"net/http"

	"github.com/tomtom215/auditrail/internal/dispatch"
)

// RequestInfo stores the client address and user agent in the request
// context so alerts triggered while serving the request inherit them.
// Place it after chimiddleware.RealIP to honor proxy headers.
func RequestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := dispatch.WithRequestInfo(r.Context(), dispatch.RequestInfo{
			ClientIP:  clientIP(r.RemoteAddr),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP strips the port from RemoteAddr when one is present.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
