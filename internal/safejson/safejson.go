// Package safejson decodes JSON text read from persisted job records.
//
// Stored list columns are supposed to hold a JSON array of strings, but legacy
// and hand-edited rows contain NULLs, blank strings, the literal "null" and
// plain garbage. Every function here degrades to a safe default instead of
// returning an error, and logs a warning when the data looked broken.
package safejson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// snippetLen is how much of an offending input goes into a diagnostic.
const snippetLen = 100

// markers are values seen in corrupted rows that mean "no data".
// "null" is valid JSON, the rest are not, but none of them is a list.
var markers = map[string]struct{}{
	"null":      {},
	"undefined": {},
	"none":      {},
	"nan":       {},
}

// Parser decodes stored JSON text and reports anomalies to its logger.
type Parser struct {
	logger zerolog.Logger
}

// New returns a Parser that writes diagnostics to logger.
func New(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseArray decodes v with the global logger. See Parser.Array.
func ParseArray(v any) []string {
	return New(log.Logger).Array(v)
}

// ParseObject decodes v with the global logger. See Parser.Object.
func ParseObject(v any, def map[string]any) map[string]any {
	return New(log.Logger).Object(v, def)
}

// IsValid reports whether v is text that decodes as JSON of any type.
func IsValid(v any) bool {
	s, ok := text(v)
	if !ok {
		return false
	}
	return json.Valid([]byte(strings.TrimSpace(s)))
}

// Array turns v into a list of trimmed, non-empty strings.
//
// v may be a string, *string, []byte or pgtype.Text. Anything absent, blank,
// a known marker, malformed or not an array yields an empty, non-nil slice.
// Non-string and blank elements of a valid array are dropped.
func (p *Parser) Array(v any) []string {
	items, _ := p.TryArray(v)
	return items
}

// TryArray is Array that also reports whether v held usable list data.
// ok is false when v was text that did not decode to a JSON array, or was
// not text at all. Absent, blank and marker values are ok and empty.
func (p *Parser) TryArray(v any) (items []string, ok bool) {
	raw, st := p.decode(v)
	switch st {
	case decodeEmpty:
		return []string{}, true
	case decodeFailed:
		return []string{}, false
	}

	elems, isArray := raw.([]any)
	if !isArray {
		p.logger.Warn().
			Str("shape", shape(raw)).
			Msg("JSON value is not an array, using empty list")
		return []string{}, false
	}

	out := make([]string, 0, len(elems))
	for _, item := range elems {
		s, isString := item.(string)
		if !isString {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

// Object decodes v as a JSON object. Every input Array would treat as empty,
// and any value that is not an object, returns def as given.
// Numbers in the result are json.Number.
func (p *Parser) Object(v any, def map[string]any) map[string]any {
	raw, st := p.decode(v)
	if st != decodeOK {
		return def
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		p.logger.Warn().
			Str("shape", shape(raw)).
			Msg("JSON value is not an object, using default")
		return def
	}
	return obj
}

type decodeStatus int

const (
	decodeOK     decodeStatus = iota
	decodeEmpty               // absent, blank or a marker
	decodeFailed              // wrong Go type or not valid JSON
)

// decode runs the shared checks and returns the decoded value.
func (p *Parser) decode(v any) (any, decodeStatus) {
	s, ok := text(v)
	if !ok {
		if absent(v) {
			return nil, decodeEmpty
		}
		p.logger.Warn().
			Str("type", fmt.Sprintf("%T", v)).
			Msg("Unexpected type for JSON field")
		return nil, decodeFailed
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return nil, decodeEmpty
	}
	if _, bad := markers[strings.ToLower(s)]; bad {
		return nil, decodeEmpty
	}

	raw, err := unmarshal(s)
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("input", snippet(s)).
			Msg("Failed to parse JSON field")
		return nil, decodeFailed
	}
	return raw, decodeOK
}

// unmarshal decodes exactly one JSON value. Numbers stay json.Number so
// that values outside float64 range do not fail an otherwise valid document.
func unmarshal(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after JSON value")
		}
		return nil, err
	}
	return raw, nil
}

// text extracts the string held by v. ok is false for absent values and
// for anything that is not text.
func text(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case *string:
		if t == nil {
			return "", false
		}
		return *t, true
	case []byte:
		if t == nil {
			return "", false
		}
		return string(t), true
	case json.RawMessage:
		if t == nil {
			return "", false
		}
		return string(t), true
	case pgtype.Text:
		return t.String, t.Valid
	case *pgtype.Text:
		if t == nil {
			return "", false
		}
		return t.String, t.Valid
	default:
		return "", false
	}
}

// absent reports whether v is one of the recognised "no value" forms.
func absent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *string:
		return t == nil
	case []byte:
		return t == nil
	case json.RawMessage:
		return t == nil
	case pgtype.Text:
		return !t.Valid
	case *pgtype.Text:
		return t == nil || !t.Valid
	}
	return false
}

func shape(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen])
}

// MarshalArray encodes items the way every writer should store a list column.
// A nil slice encodes as "[]".
func MarshalArray(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Clean trims every item and drops the blank ones, returning a non-nil slice.
func Clean(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
