// Package logging is the default Logger collaborator: an 8-level
// structured logger built on log/slog, carrying PII scrubbing rules and
// execution-summary bookkeeping.
package logging

import (
	"fmt"
	"reflect"
	"regexp"
)

// scrubPattern pairs a compiled regex with its redaction replacement.
type scrubPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// sensitiveKeys are field names redacted wholesale regardless of value
// shape.
var sensitiveKeys = map[string]bool{
	"ssn":        true,
	"password":   true,
	"token":      true,
	"creditcard": true,
	"credit_card": true,
	"apikey":     true,
	"api_key":    true,
	"secret":     true,
}

// Scrubber applies the PII redaction rules to log messages and metadata.
// Patterns are compiled once at construction.
type Scrubber struct {
	patterns []scrubPattern
}

// NewScrubber compiles the fixed pattern set. Compilation cannot fail
// since the patterns are constants, so there is no error return.
func NewScrubber() *Scrubber {
	return &Scrubber{
		patterns: []scrubPattern{
			{name: "ssn", regex: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), replacement: "[SSN-REDACTED]"},
			{name: "card", regex: regexp.MustCompile(`\b\d{16}\b`), replacement: "[CARD-REDACTED]"},
			{name: "email", regex: regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`), replacement: "[EMAIL-REDACTED]"},
			{name: "phone", regex: regexp.MustCompile(`\b\d{10,}\b`), replacement: "[PHONE-REDACTED]"},
		},
	}
}

// ScrubString applies every compiled pattern to s in order and returns the
// redacted result.
func (sc *Scrubber) ScrubString(s string) string {
	out := s
	for _, p := range sc.patterns {
		out = p.regex.ReplaceAllString(out, p.replacement)
	}
	return out
}

// ScrubValue recursively scrubs a metadata value: strings are pattern-
// scrubbed, maps have sensitive keys redacted wholesale and other values
// recursed into, slices are recursed element-wise. seen guards against
// circular references, replacing them with "[CIRCULAR-REFERENCE]".
func (sc *Scrubber) ScrubValue(v interface{}) interface{} {
	return sc.scrub(v, make(map[uintptr]bool))
}

func (sc *Scrubber) scrub(v interface{}, seen map[uintptr]bool) interface{} {
	switch val := v.(type) {
	case string:
		return sc.ScrubString(val)
	case map[string]interface{}:
		if circular(val, seen) {
			return "[CIRCULAR-REFERENCE]"
		}
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			if sensitiveKeys[normalizeKey(k)] {
				out[k] = "[REDACTED]"
				continue
			}
			out[k] = sc.scrub(item, seen)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = sc.scrub(item, seen)
		}
		return out
	default:
		return v
	}
}

func normalizeKey(k string) string {
	out := make([]rune, 0, len(k))
	for _, r := range k {
		if r >= 'A' && r <= 'Z' {
			r = r + ('a' - 'A')
		}
		if r == '-' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// circular reports whether m has already been visited via its pointer
// identity, recording it if not.
func circular(m map[string]interface{}, seen map[uintptr]bool) bool {
	ptr := reflect.ValueOf(m).Pointer()
	if seen[ptr] {
		return true
	}
	seen[ptr] = true
	return false
}

// ScrubFields scrubs a flat key/value field list (the ...interface{}
// variadic shape the agent.Logger interface uses), pairing keys with
// values two at a time and falling back to a formatted placeholder for an
// odd trailing argument.
func (sc *Scrubber) ScrubFields(fields []interface{}) []interface{} {
	out := make([]interface{}, 0, len(fields))
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			out = append(out, fmt.Sprintf("%v", fields[i]))
			continue
		}
		key, _ := fields[i].(string)
		if sensitiveKeys[normalizeKey(key)] {
			out = append(out, fields[i], "[REDACTED]")
			continue
		}
		out = append(out, fields[i], sc.scrub(fields[i+1], make(map[uintptr]bool)))
	}
	return out
}
