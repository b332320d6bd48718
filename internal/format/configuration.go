// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package format

import "slices"

// TruncatedMetaValueLength is the number of characters kept when a metadata
// value is longer than Configuration.MaxMetaValueLength. The ellipsis is
// appended before the value is escaped.
const TruncatedMetaValueLength = 50

// DefaultMaxMetaValueLength is the presets' MaxMetaValueLength.
const DefaultMaxMetaValueLength = 50

// Configuration controls how a message template is expanded for one output
// context. Configurations are values; derive variants with Clone.
type Configuration struct {
	// AllowHyperlinks enables tokens that render as <a> elements.
	AllowHyperlinks bool
	// AllowJSInLinks enables links that rely on client-side script.
	AllowJSInLinks bool
	// SupportsMetadata enables tokens that link to metadata management.
	SupportsMetadata bool

	// MaxMetaValueLength is the longest meta value rendered untruncated.
	// Zero or negative disables truncation.
	MaxMetaValueLength int
	EllipsisSequence   string

	HighlightStartTag string
	HighlightEndTag   string
	EmphasisStartTag  string
	EmphasisEndTag    string
	EndOfLineSequence string

	// AllowedMessageTags lists the tag names kept in rendered output.
	AllowedMessageTags []string
}

// PlainText renders without markup; suitable for email subjects, SMS and
// syslog.
func PlainText() Configuration {
	return Configuration{
		MaxMetaValueLength: DefaultMaxMetaValueLength,
		EllipsisSequence:   "...",
		EndOfLineSequence:  " ",
	}
}

// Rich renders the full HTML subset, including script-backed links.
func Rich() Configuration {
	return Configuration{
		AllowHyperlinks:    true,
		AllowJSInLinks:     true,
		SupportsMetadata:   true,
		MaxMetaValueLength: DefaultMaxMetaValueLength,
		EllipsisSequence:   "...",
		HighlightStartTag:  "<strong>",
		HighlightEndTag:    "</strong>",
		EmphasisStartTag:   "<em>",
		EmphasisEndTag:     "</em>",
		EndOfLineSequence:  "<br>",
		AllowedMessageTags: []string{"strong", "em", "br", "a"},
	}
}

// DashboardWidget is Rich without links or metadata affordances.
func DashboardWidget() Configuration {
	c := Rich()
	c.AllowHyperlinks = false
	c.AllowJSInLinks = false
	c.SupportsMetadata = false
	c.AllowedMessageTags = []string{"strong", "em", "br"}
	return c
}

// Email is Rich with plain hyperlinks but no script or metadata affordances.
func Email() Configuration {
	c := Rich()
	c.AllowJSInLinks = false
	c.SupportsMetadata = false
	return c
}

// Preset returns the named configuration: "plain", "rich", "dashboard" or
// "email".
func Preset(name string) (Configuration, bool) {
	switch name {
	case "plain", "text":
		return PlainText(), true
	case "rich", "html":
		return Rich(), true
	case "dashboard":
		return DashboardWidget(), true
	case "email":
		return Email(), true
	}
	return Configuration{}, false
}

// Clone returns a deep copy of c.
func (c Configuration) Clone() Configuration {
	c.AllowedMessageTags = slices.Clone(c.AllowedMessageTags)
	return c
}

func (c *Configuration) highlight(s string) string {
	return c.HighlightStartTag + s + c.HighlightEndTag
}

func (c *Configuration) emphasize(s string) string {
	return c.EmphasisStartTag + s + c.EmphasisEndTag
}
