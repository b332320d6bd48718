// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package archive

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/auditrail/internal/alerts"
	"github.com/tomtom215/auditrail/internal/occurrence"
)

// normalizeLegacy rewrites fields stored in older formats.
func normalizeLegacy(o *occurrence.Occurrence, registry *alerts.Registry) {
	o.ClientIP = normalizeClientIP(o.ClientIP)
	o.UserRoles = normalizeRoles(o.UserRoles)

	sev := alerts.NormalizeSeverity(alerts.Severity(o.Severity))
	if !sev.Valid() && registry != nil {
		if def, ok := registry.Get(o.AlertID); ok {
			sev = def.Severity
		}
	}
	o.Severity = int(sev)
}

// normalizeClientIP reduces a JSON array of forwarded addresses to its first
// element.
func normalizeClientIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if !strings.HasPrefix(ip, "[") {
		return strings.Trim(ip, `"'`)
	}
	var list []string
	if err := json.Unmarshal([]byte(ip), &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		return strings.TrimSpace(list[0])
	}
	return strings.Trim(ip, `"'[] `)
}

func normalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
