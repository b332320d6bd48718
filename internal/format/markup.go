// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package format

import (
	"regexp"
	"slices"
	"strings"
)

var (
	tagPattern = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*)\b[^<>]*>`)

	legacyMarkup = []struct {
		pattern *regexp.Regexp
		replace func(c *Configuration) string
	}{
		{regexp.MustCompile(`(?i)<(strong|b)(\s[^<>]*)?>`), func(c *Configuration) string { return c.HighlightStartTag }},
		{regexp.MustCompile(`(?i)</(strong|b)\s*>`), func(c *Configuration) string { return c.HighlightEndTag }},
		{regexp.MustCompile(`(?i)<(em|i)(\s[^<>]*)?>`), func(c *Configuration) string { return c.EmphasisStartTag }},
		{regexp.MustCompile(`(?i)</(em|i)\s*>`), func(c *Configuration) string { return c.EmphasisEndTag }},
	}
)

// ProcessInlineMarkup rewrites legacy bold and italic tags in message to the
// configured highlight and emphasis pairs, then strips every tag that is not
// in cfg.AllowedMessageTags.
func ProcessInlineMarkup(message string, cfg Configuration) string {
	if !strings.ContainsRune(message, '<') {
		return message
	}
	for _, m := range legacyMarkup {
		message = m.pattern.ReplaceAllLiteralString(message, m.replace(&cfg))
	}
	return stripTags(message, cfg.AllowedMessageTags)
}

// stripTags removes tags whose name is not in allowed. Matching is case
// insensitive.
func stripTags(s string, allowed []string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	return tagPattern.ReplaceAllStringFunc(s, func(tag string) string {
		name := strings.ToLower(tagPattern.FindStringSubmatch(tag)[1])
		if slices.Contains(allowed, name) {
			return tag
		}
		return ""
	})
}
