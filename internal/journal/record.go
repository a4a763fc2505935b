package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	// ErrBlankLine is returned by Decode for an empty or whitespace-only line.
	ErrBlankLine = errors.New("blank line")

	// ErrNoKind is returned when a line decodes but has no string "event".
	ErrNoKind = errors.New("record has no event discriminator")
)

// DecodeError describes a line that could not be decoded into a Record.
type DecodeError struct {
	// Preview is the start of the offending line, for logs.
	Preview string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode journal line %q: %v", e.Preview, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

const previewLen = 80

// Object is a decoded JSON object. Its accessors treat a field holding a
// value of an unexpected type exactly like a missing field.
type Object map[string]any

// Record is one decoded journal line.
type Record struct {
	Object
	kind Kind
	raw  []byte
}

// Decode parses one journal line. Numbers are kept as json.Number so that
// 64-bit identifiers (system addresses) survive intact.
func Decode(line []byte) (Record, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return Record{}, ErrBlankLine
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Record{}, &DecodeError{Preview: preview(trimmed), Err: err}
	}
	if dec.More() {
		return Record{}, &DecodeError{Preview: preview(trimmed), Err: errors.New("trailing data after object")}
	}

	m, ok := v.(map[string]any)
	if !ok {
		return Record{}, &DecodeError{Preview: preview(trimmed), Err: fmt.Errorf("expected object, got %T", v)}
	}

	obj := Object(m)
	kind, ok := obj.String("event")
	if !ok {
		return Record{}, &DecodeError{Preview: preview(trimmed), Err: ErrNoKind}
	}

	raw := make([]byte, len(trimmed))
	copy(raw, trimmed)
	return Record{Object: obj, kind: Kind(strings.TrimSpace(kind)), raw: raw}, nil
}

// FromMap builds a Record from an already-decoded map, normalizing numbers
// the same way Decode does. Used by scenario files and tests.
func FromMap(m map[string]any) (Record, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return Record{}, fmt.Errorf("encode record: %w", err)
	}
	return Decode(b)
}

// Kind returns the record's event discriminator.
func (r Record) Kind() Kind {
	return r.kind
}

// Raw returns the original line bytes (whitespace-trimmed).
func (r Record) Raw() []byte {
	return r.raw
}

// Timestamp returns the raw "timestamp" string, or "" if absent.
func (r Record) Timestamp() string {
	s, _ := r.String("timestamp")
	return s
}

// Time parses the record timestamp.
func (r Record) Time() (time.Time, bool) {
	s, ok := r.String("timestamp")
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func preview(b []byte) string {
	if len(b) > previewLen {
		return string(b[:previewLen]) + "..."
	}
	return string(b)
}

// Has reports whether key is present, whatever its type.
func (o Object) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// String returns a non-blank string field.
func (o Object) String(key string) (string, bool) {
	s, ok := o[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Text returns a string field with internal whitespace collapsed, or "".
func (o Object) Text(key string) string {
	s, _ := o.String(key)
	return strings.Join(strings.Fields(s), " ")
}

// Localised prefers the client's "<key>_Localised" display form and falls
// back to the raw field. Whitespace is collapsed.
func (o Object) Localised(key string) string {
	if s := o.Text(key + "_Localised"); s != "" {
		return s
	}
	return o.Text(key)
}

// Int returns an integral number field. Floats with a fractional part are
// treated as absent.
func (o Object) Int(key string) (int64, bool) {
	switch v := o[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(v)
	case int:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

// Float returns any numeric field as float64.
func (o Object) Float(key string) (float64, bool) {
	switch v := o[key].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Bool returns a boolean field.
func (o Object) Bool(key string) (bool, bool) {
	b, ok := o[key].(bool)
	return b, ok
}

// Object returns a nested object field.
func (o Object) Object(key string) (Object, bool) {
	m, ok := o[key].(map[string]any)
	if !ok {
		return nil, false
	}
	return Object(m), true
}

// Objects returns the object elements of a list field; other elements are
// skipped. The second result is false when the field is not a list.
func (o Object) Objects(key string) ([]Object, bool) {
	list, ok := o[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]Object, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, Object(m))
		}
	}
	return out, true
}

// Strings returns the non-blank string elements of a list field.
func (o Object) Strings(key string) ([]string, bool) {
	list, ok := o[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, el := range list {
		if s, ok := el.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out, true
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
