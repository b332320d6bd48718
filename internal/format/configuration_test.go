// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package format

import "testing"

func TestPresets(t *testing.T) {
	t.Parallel()

	plain := PlainText()
	if plain.AllowHyperlinks || plain.AllowJSInLinks || plain.HighlightStartTag != "" || len(plain.AllowedMessageTags) != 0 {
		t.Errorf("PlainText preset carries markup: %+v", plain)
	}
	rich := Rich()
	if !rich.AllowJSInLinks || rich.HighlightStartTag != "<strong>" || rich.EndOfLineSequence != "<br>" {
		t.Errorf("Rich preset = %+v", rich)
	}
	if w := DashboardWidget(); w.AllowHyperlinks || w.SupportsMetadata {
		t.Errorf("DashboardWidget = %+v", w)
	}
	if e := Email(); !e.AllowHyperlinks || e.AllowJSInLinks {
		t.Errorf("Email = %+v", e)
	}
}

func TestPreset(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"plain", "text", "rich", "html", "dashboard", "email"} {
		if _, ok := Preset(name); !ok {
			t.Errorf("Preset(%q) not found", name)
		}
	}
	if _, ok := Preset("pdf"); ok {
		t.Error("Preset(pdf) should not exist")
	}
}

func TestClone_DoesNotAlias(t *testing.T) {
	t.Parallel()

	base := Rich()
	variant := base.Clone()
	variant.AllowedMessageTags[0] = "script"

	if base.AllowedMessageTags[0] != "strong" {
		t.Errorf("Clone aliased the tag slice: %v", base.AllowedMessageTags)
	}
}

func TestProcessInlineMarkup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		cfg  Configuration
		want string
	}{
		{"bold to highlight", "<b>x</b> and <STRONG class=\"c\">y</strong>", Rich(), "<strong>x</strong> and <strong>y</strong>"},
		{"italic to emphasis", "<i>x</i> <em>y</em>", Rich(), "<em>x</em> <em>y</em>"},
		{"plain drops tags", "<b>x</b><br><a href=\"u\">l</a>", PlainText(), "xl"},
		{"disallowed stripped", "<script>x</script><img src=y><br/>", Rich(), "x<br/>"},
		{"no markup unchanged", "a < b", PlainText(), "a < b"},
		{"br not mistaken for bold", "<br>", DashboardWidget(), "<br>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ProcessInlineMarkup(tt.in, tt.cfg); got != tt.want {
				t.Errorf("ProcessInlineMarkup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
