// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

// Package format expands alert message templates into display text.
//
// A template holds %Token% placeholders. Each token is resolved by the first
// matching resolver: the built-in well-known tokens, then custom resolvers in
// registration order, then a pass-through of the metadata value with the same
// name. Tokens nothing resolves render as the empty string.
//
// Rendering is a pure function of its inputs. A Formatter may be shared by
// any number of goroutines once its resolvers are registered.
package format

import (
	"html"
	"regexp"
	"sync"

	"github.com/tomtom215/auditrail/internal/occurrence"
)

var tokenPattern = regexp.MustCompile(`%([A-Za-z][A-Za-z0-9_]*)%`)

// RenderContext carries everything a resolver may read.
type RenderContext struct {
	Meta         map[string]occurrence.Value
	OccurrenceID *int64
	Config       Configuration

	// Nonce authorizes script-backed actions such as %MetaLink%. It comes
	// from the caller's security layer.
	Nonce string
}

// Lookup returns the metadata value for name.
func (rc *RenderContext) Lookup(name string) (occurrence.Value, bool) {
	v, ok := rc.Meta[name]
	return v, ok
}

// ResolveFunc renders a token. It receives the token name without the
// surrounding percent signs.
type ResolveFunc func(token string, rc *RenderContext) string

// Resolver pairs a token predicate with the function that renders it.
type Resolver struct {
	Name    string
	Match   func(token string) bool
	Resolve ResolveFunc
}

// Token returns a resolver for the named tokens.
func Token(fn ResolveFunc, names ...string) Resolver {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	name := ""
	if len(names) > 0 {
		name = names[0]
	}
	return Resolver{
		Name: name,
		Match: func(token string) bool {
			_, ok := set[token]
			return ok
		},
		Resolve: fn,
	}
}

// Formatter renders message templates.
type Formatter struct {
	builtin []Resolver

	mu     sync.RWMutex
	custom []Resolver
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithResolver registers a custom resolver.
func WithResolver(r Resolver) Option {
	return func(f *Formatter) { f.custom = append(f.custom, r) }
}

// New creates a formatter with the built-in token set.
func New(opts ...Option) *Formatter {
	f := &Formatter{builtin: builtinResolvers()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Register appends a custom resolver. Custom resolvers are consulted after
// the built-in tokens, in registration order.
func (f *Formatter) Register(r Resolver) {
	if r.Match == nil || r.Resolve == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.custom = append(f.custom, r)
}

// Render expands template against meta under cfg.
func (f *Formatter) Render(template string, meta map[string]occurrence.Value, occurrenceID *int64, cfg Configuration) string {
	return f.RenderWith(template, RenderContext{Meta: meta, OccurrenceID: occurrenceID, Config: cfg})
}

// RenderWith expands template with a full render context.
func (f *Formatter) RenderWith(template string, rc RenderContext) string {
	text := ProcessInlineMarkup(template, rc.Config)

	f.mu.RLock()
	custom := f.custom
	f.mu.RUnlock()

	return tokenPattern.ReplaceAllStringFunc(text, func(placeholder string) string {
		token := placeholder[1 : len(placeholder)-1]
		return f.resolve(token, &rc, custom)
	})
}

func (f *Formatter) resolve(token string, rc *RenderContext, custom []Resolver) string {
	for _, r := range f.builtin {
		if r.Match(token) {
			return r.Resolve(token, rc)
		}
	}
	for _, r := range custom {
		if r.Match(token) {
			// Custom output obeys the same tag policy as templates.
			return stripTags(r.Resolve(token, rc), rc.Config.AllowedMessageTags)
		}
	}
	if v, ok := rc.Lookup(token); ok {
		return html.EscapeString(v.String())
	}
	return ""
}
