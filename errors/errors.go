// Package errors holds error values shared across packages and a small
// accumulator for reporting every problem in a batch at once.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongType is returned when a decoded value does not have the expected shape.
	ErrWrongType = errors.New("wrong type")

	// ErrUnknownKind is returned when no adapter is registered for a definition's kind.
	ErrUnknownKind = errors.New("unknown adapter kind")
)

// Collection is a thread-unsafe utility for accumulating multiple errors.
// Registries and loaders use it to report every bad definition in one pass
// instead of stopping at the first.
type Collection struct {
	errors []error
}

// Add appends an error to the collection. Nil errors are automatically ignored.
func (c *Collection) Add(err error) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

// AddFor appends err prefixed with the name of the item it belongs to,
// e.g. `operation "fetchUser": unknown adapter kind`. Nil errors are ignored.
func (c *Collection) AddFor(kind, name string, err error) {
	if err != nil {
		c.errors = append(c.errors, fmt.Errorf("%s %q: %w", kind, name, err))
	}
}

// HasError returns true if the collection contains at least one error.
func (c *Collection) HasError() bool {
	return len(c.errors) > 0
}

// Len returns the number of collected errors.
func (c *Collection) Len() int {
	return len(c.errors)
}

// GetError returns the collected errors as a single error.
// Returns nil if the collection is empty, the single error if there's only one,
// or a joined error (using errors.Join) if there are multiple errors.
func (c *Collection) GetError() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return errors.Join(c.errors...)
	}
}
