// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package occurrence

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Kind is the type tag of a metadata Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindJSON:
		return "json"
	default:
		return "null"
	}
}

// Value is a tagged metadata value. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	raw  json.RawMessage
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue returns an int Value.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue returns a float Value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue returns a bool Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// JSONValue returns a structured Value holding raw JSON (object or array).
func JSONValue(raw []byte) Value {
	return Value{kind: KindJSON, raw: append(json.RawMessage(nil), raw...)}
}

// NewValue converts an arbitrary Go value from trigger data into a Value.
// Maps, slices and structs are kept as JSON; values that cannot be marshaled
// fall back to their fmt representation.
func NewValue(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return StringValue(x)
	case []byte:
		return StringValue(string(x))
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(int64(x))
	case int8:
		return IntValue(int64(x))
	case int16:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint:
		return IntValue(int64(x)) //nolint:gosec // values beyond int64 are not expected in trigger data
	case uint8:
		return IntValue(int64(x))
	case uint16:
		return IntValue(int64(x))
	case uint32:
		return IntValue(int64(x))
	case uint64:
		return IntValue(int64(x)) //nolint:gosec // values beyond int64 are not expected in trigger data
	case float32:
		return FloatValue(float64(x))
	case float64:
		return FloatValue(x)
	case json.RawMessage:
		return DecodeValue(string(x))
	case fmt.Stringer:
		return StringValue(x.String())
	}

	data, err := json.Marshal(v)
	if err != nil {
		return StringValue(fmt.Sprint(v))
	}
	return DecodeValue(string(data))
}

// Kind returns the type tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload when the value is a string.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsInt returns the integer payload. Floats with no fractional part and
// numeric strings are accepted.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) {
			return int64(v.f), true
		}
	case KindString:
		if i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// AsFloat returns the numeric payload as float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindString:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// AsStrings returns the payload as a string list. A JSON array of strings,
// or a single string, is accepted.
func (v Value) AsStrings() ([]string, bool) {
	switch v.kind {
	case KindString:
		return []string{v.s}, true
	case KindJSON:
		var out []string
		if err := json.Unmarshal(v.raw, &out); err == nil {
			return out, true
		}
	}
	return nil, false
}

// Raw returns the raw JSON of a structured value.
func (v Value) Raw() json.RawMessage { return v.raw }

// String returns the display text of the value. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindJSON:
		return string(v.raw)
	default:
		return ""
	}
}

// Interface returns the payload as a plain Go value.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindJSON:
		return v.raw
	default:
		return nil
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindJSON:
		return bytes.Equal(v.raw, o.raw)
	case KindNull:
		return true
	default:
		return v.String() == o.String()
	}
}

// EncodeValue serializes v into the text stored in the metadata value column.
// The encoding is JSON; floats always carry a decimal point so they decode
// back as floats.
func EncodeValue(v Value) (string, error) {
	switch v.kind {
	case KindNull:
		return "null", nil
	case KindString:
		data, err := json.Marshal(v.s)
		if err != nil {
			return "", fmt.Errorf("failed to encode string value: %w", err)
		}
		return string(data), nil
	case KindInt:
		return strconv.FormatInt(v.i, 10), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return "", fmt.Errorf("failed to encode float value: %v is not representable", v.f)
		}
		s := strconv.FormatFloat(v.f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s, nil
	case KindBool:
		return strconv.FormatBool(v.b), nil
	case KindJSON:
		if !json.Valid(v.raw) {
			return "", fmt.Errorf("failed to encode json value: invalid JSON")
		}
		return string(v.raw), nil
	}
	return "", fmt.Errorf("failed to encode value: unknown kind %d", v.kind)
}

// DecodeValue parses text read from the metadata value column. Text that is
// not valid JSON is a legacy plain-string value.
func DecodeValue(text string) Value {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return StringValue(text)
	}

	switch c := trimmed[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
			return StringValue(text)
		}
		return StringValue(s)
	case c == '{' || c == '[':
		return JSONValue([]byte(trimmed))
	case trimmed == "null":
		return Value{}
	case trimmed == "true":
		return BoolValue(true)
	case trimmed == "false":
		return BoolValue(false)
	}

	if !strings.ContainsAny(trimmed, ".eE") {
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return IntValue(i)
		}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return FloatValue(f)
	}
	return StringValue(text)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	s, err := EncodeValue(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = DecodeValue(string(data))
	return nil
}

// MetaMap indexes metadata rows by name. When a name repeats, the first row
// wins.
func MetaMap(rows []Metadata) map[string]Value {
	out := make(map[string]Value, len(rows))
	for _, row := range rows {
		if _, ok := out[row.Name]; !ok {
			out[row.Name] = row.Value
		}
	}
	return out
}

// GroupMetadata indexes metadata rows by occurrence id, then by name.
func GroupMetadata(rows []Metadata) map[int64]map[string]Value {
	byOccurrence := make(map[int64][]Metadata)
	for _, row := range rows {
		byOccurrence[row.OccurrenceID] = append(byOccurrence[row.OccurrenceID], row)
	}
	out := make(map[int64]map[string]Value, len(byOccurrence))
	for id, list := range byOccurrence {
		out[id] = MetaMap(list)
	}
	return out
}
