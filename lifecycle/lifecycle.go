// Package lifecycle defines the events an asynchronous operation goes through
// (start, success, error) and how their type identifiers are derived from an
// operation name.
package lifecycle

import (
	"strings"
	"unicode"

	"github.com/amp-labs/breeze/statepath"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Suffixes passed to a TypeFunc for the completion events. The start event
// carries no suffix.
const (
	SuffixSuccess = "success"
	SuffixError   = "error"
)

// Phase names one of the three lifecycle points of an operation.
type Phase string

const (
	PhaseStart   Phase = "start"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// TypeFunc derives an event type identifier from an operation name and an
// optional suffix. It is supplied by the host runtime and treated as an opaque
// pure function.
type TypeFunc func(name string, suffix ...string) string

// Types holds the three event type identifiers of one operation.
type Types struct {
	Start   string
	Success string
	Error   string
}

// NewTypes computes the type identifiers for the named operation.
func NewTypes(typeFn TypeFunc, name string) Types {
	return Types{
		Start:   typeFn(name),
		Success: typeFn(name, SuffixSuccess),
		Error:   typeFn(name, SuffixError),
	}
}

// PhaseOf reports which lifecycle phase an event type belongs to.
func (t Types) PhaseOf(eventType string) (Phase, bool) {
	switch eventType {
	case t.Start:
		return PhaseStart, true
	case t.Success:
		return PhaseSuccess, true
	case t.Error:
		return PhaseError, true
	default:
		return "", false
	}
}

var upper = cases.Upper(language.Und) //nolint:gochecknoglobals

// UpperSnake is the default TypeFunc: words of the camel-cased name and the
// suffix are upper-cased and joined with underscores.
//
//	UpperSnake("fetchUser")            == "FETCH_USER"
//	UpperSnake("fetchUser", "success") == "FETCH_USER_SUCCESS"
func UpperSnake(name string, suffix ...string) string {
	parts := []string{snake(name)}

	for _, s := range suffix {
		if s != "" {
			parts = append(parts, snake(s))
		}
	}

	return upper.String(strings.Join(parts, "_"))
}

func snake(s string) string {
	var b strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ' || r == '.':
			b.WriteRune('_')

			continue
		case i > 0 && unicode.IsUpper(r):
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune('_')
			}
		}

		b.WriteRune(r)
	}

	return b.String()
}

// Event is a dispatched lifecycle event. Result is set on success events and
// Error on error events; Meta carries any extra fields the host attaches.
//
// A nil Result or Error is indistinguishable from a missing one: lookups under
// "result" or "error" report absent, so a source default applies to an event
// whose payload is nil.
type Event struct {
	Type   string
	Result any
	Error  any
	Meta   map[string]any
}

// Lookup returns the value at a dotted path inside the event. The first
// segment selects "type", "result", "error" or a Meta key. Result and Error
// count as present only when non-nil.
func (e Event) Lookup(path string) (any, bool) {
	head, rest, nested := strings.Cut(path, ".")

	var (
		root  any
		found bool
	)

	switch head {
	case "type":
		root, found = e.Type, e.Type != ""
	case "result":
		root, found = e.Result, e.Result != nil
	case "error":
		root, found = e.Error, e.Error != nil
	default:
		root, found = e.Meta[head]
	}

	if !found {
		return nil, false
	}

	if !nested {
		return root, true
	}

	return statepath.Get(root, rest)
}

// Has reports whether the event carries a value at path.
func (e Event) Has(path string) bool {
	_, ok := e.Lookup(path)

	return ok
}

// Get returns the value at path, or nil when absent.
func (e Event) Get(path string) any {
	v, _ := e.Lookup(path)

	return v
}
