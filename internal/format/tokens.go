// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package format

import (
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/auditrail/internal/occurrence"
)

// Well-known token names.
const (
	TokenMessage        = "Message"
	TokenMetaValue      = "MetaValue"
	TokenMetaValueOld   = "MetaValueOld"
	TokenMetaValueNew   = "MetaValueNew"
	TokenClientIP       = "ClientIP"
	TokenIPAddress      = "IPAddress"
	TokenMetaLink       = "MetaLink"
	TokenLineBreak      = "LineBreak"
	TokenEditorLinkPost = "EditorLinkPost"
	TokenEditorLinkPage = "EditorLinkPage"
	TokenPostURL        = "PostUrl"
	TokenLinkFile       = "LinkFile"
)

// MetaLinkLabel is the text of the rendered %MetaLink% action.
const MetaLinkLabel = "Exclude custom field from monitoring"

var linkLabels = map[string]string{
	TokenEditorLinkPost: "View the post in editor",
	TokenEditorLinkPage: "View the page in editor",
	TokenLinkFile:       "View the file",
}

func builtinResolvers() []Resolver {
	return []Resolver{
		Token(resolveMessage, TokenMessage),
		Token(resolveMetaValue, TokenMetaValue, TokenMetaValueOld, TokenMetaValueNew),
		Token(resolveClientIP, TokenClientIP, TokenIPAddress),
		Token(resolveMetaLink, TokenMetaLink),
		Token(resolveLineBreak, TokenLineBreak),
		Token(resolveLink, TokenEditorLinkPost, TokenEditorLinkPage, TokenPostURL, TokenLinkFile),
	}
}

func resolveMessage(token string, rc *RenderContext) string {
	v, _ := rc.Lookup(token)
	return html.EscapeString(v.String())
}

func resolveMetaValue(token string, rc *RenderContext) string {
	v, ok := rc.Lookup(token)
	if !ok {
		return ""
	}
	cfg := &rc.Config
	text, truncated := truncate(v.String(), cfg.MaxMetaValueLength)
	if truncated {
		text += cfg.EllipsisSequence
	}
	return cfg.highlight(html.EscapeString(text))
}

// truncate keeps the first TruncatedMetaValueLength characters of s when s
// is longer than limit.
func truncate(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == TruncatedMetaValueLength {
			return s[:i], true
		}
		n++
	}
	return s, true
}

func resolveClientIP(token string, rc *RenderContext) string {
	v, ok := rc.Lookup(token)
	if !ok && token == TokenIPAddress {
		v, ok = rc.Lookup(TokenClientIP)
	}
	s, isString := v.AsString()
	if ok && v.Kind() == occurrence.KindJSON {
		// Legacy rows store the address as a JSON list.
		if list, isList := v.AsStrings(); isList && len(list) > 0 {
			s, isString = list[0], true
		}
	}
	if !ok || !isString {
		return rc.Config.emphasize("unknown")
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '[', ']':
			return -1
		}
		return r
	}, s)
	return rc.Config.highlight(html.EscapeString(strings.TrimSpace(s)))
}

// resolveMetaLink renders the script-backed action that excludes the custom
// field named by the token's value from monitoring.
func resolveMetaLink(token string, rc *RenderContext) string {
	cfg := &rc.Config
	if !cfg.AllowJSInLinks || !cfg.AllowHyperlinks || !cfg.SupportsMetadata {
		return ""
	}
	if rc.Nonce == "" || rc.OccurrenceID == nil {
		return ""
	}
	v, ok := rc.Lookup(token)
	if !ok || v.String() == "" {
		return ""
	}
	return fmt.Sprintf(
		`<a href="#" data-occurrence-id="%s" data-meta-key="%s" data-nonce="%s" onclick="return auditExcludeMeta(this);">%s</a>`,
		strconv.FormatInt(*rc.OccurrenceID, 10),
		html.EscapeString(v.String()),
		html.EscapeString(rc.Nonce),
		MetaLinkLabel,
	)
}

func resolveLineBreak(_ string, rc *RenderContext) string {
	return rc.Config.EndOfLineSequence
}

// resolveLink renders an anchor for an http(s) URL held in the token's
// metadata value. Anything else renders empty.
func resolveLink(token string, rc *RenderContext) string {
	if !rc.Config.AllowHyperlinks {
		return ""
	}
	v, ok := rc.Lookup(token)
	if !ok {
		return ""
	}
	raw, isString := v.AsString()
	if !isString {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}

	href := html.EscapeString(u.String())
	label, ok := linkLabels[token]
	if !ok {
		label = href
	}
	return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener">%s</a>`, href, label)
}
