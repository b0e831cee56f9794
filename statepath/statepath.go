// Package statepath provides dotted-path access to nested state trees.
// Paths look like "pending.fetchUser" or "result.items.0.id".
//
// Reads (Get, Has) traverse maps, structs and slices and never fail: a missing
// segment is simply reported as absent. Writes (Set, Apply) only operate on
// map[string]any trees and are pure: the input tree is never mutated, only the
// maps along written paths are copied, and every untouched branch is shared
// with the returned tree.
package statepath

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Sentinel errors for path validation.
var (
	ErrPathEmpty        = errors.New("path cannot be empty")
	ErrPathEmptySegment = errors.New("path contains empty segment")
)

// ErrInvalidPath wraps every validation failure reported by ParsePath.
var ErrInvalidPath = errors.New("invalid state path")

const separator = "."

// Tree is a nested state value addressed by dotted paths.
type Tree = map[string]any

// Assignments is a flat mapping from dotted path to the value to store there.
type Assignments map[string]any

// ParsePath splits a dotted path into its segments.
// Example: ParsePath("pending.fetchUser") returns []string{"pending", "fetchUser"}, nil.
func ParsePath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPath, ErrPathEmpty)
	}

	segments := strings.Split(path, separator)
	for idx, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("%w: %w: segment %d of %q", ErrInvalidPath, ErrPathEmptySegment, idx, path)
		}
	}

	return segments, nil
}

// Join builds a dotted path from its segments.
func Join(segments ...string) string {
	return strings.Join(segments, separator)
}

// Get retrieves the value stored at path inside root.
// The boolean is false when any segment of the path is missing or when the
// path is malformed. A present nil value returns (nil, true).
func Get(root any, path string) (any, bool) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, false
	}

	current := root

	for _, segment := range segments {
		next, ok := child(current, segment)
		if !ok {
			return nil, false
		}

		current = next
	}

	return current, true
}

// Has reports whether a value (possibly nil) exists at path inside root.
func Has(root any, path string) bool {
	_, ok := Get(root, path)

	return ok
}

// child looks up one segment below value.
func child(value any, segment string) (any, bool) {
	// Fast path for the shape state trees actually have.
	if m, ok := value.(map[string]any); ok {
		v, found := m[segment]

		return v, found
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}

		rv = rv.Elem()
	}

	switch rv.Kind() { //nolint:exhaustive
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}

		v := rv.MapIndex(reflect.ValueOf(segment).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}

		return v.Interface(), true
	case reflect.Struct:
		return structField(rv, segment)
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, false
		}

		return rv.Index(idx).Interface(), true
	default:
		return nil, false
	}
}

// structField matches a segment against exported field names first and json
// tag names second.
func structField(rv reflect.Value, segment string) (any, bool) {
	typ := rv.Type()

	if field, ok := typ.FieldByName(segment); ok && field.IsExported() {
		return rv.FieldByIndex(field.Index).Interface(), true
	}

	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == segment {
			return rv.Field(i).Interface(), true
		}
	}

	return nil, false
}

// Set returns a copy of tree with value stored at path.
// Panics with ErrInvalidPath if path is malformed.
func Set(tree Tree, path string, value any) Tree {
	return Apply(tree, Assignments{path: value})
}

type write struct {
	segments []string
	value    any
}

// Apply returns a copy of tree with every assignment written into it.
//
// Assignments are applied in lexicographic path order, so "a" is written before
// "a.b" and the child write lands inside the value assigned to the parent.
// Intermediate maps are created as needed; a non-map value found where a map is
// required is replaced by a new map. The input tree and any maps passed as
// values are never mutated. With no assignments the input tree is returned
// as-is.
//
// Panics with ErrInvalidPath if any path is malformed.
func Apply(tree Tree, assignments Assignments) Tree {
	if len(assignments) == 0 {
		return tree
	}

	paths := make([]string, 0, len(assignments))
	for path := range assignments {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	writes := make([]write, 0, len(paths))

	for _, path := range paths {
		segments, err := ParsePath(path)
		if err != nil {
			panic(err)
		}

		writes = append(writes, write{segments: segments, value: assignments[path]})
	}

	out, _ := applyWrites(tree, writes).(map[string]any)

	return out
}

// applyWrites writes every entry of writes (paths relative to node) and returns
// the new node. Writes with no remaining segments replace the node itself.
func applyWrites(node any, writes []write) any {
	deeper := writes[:0:0]

	for _, w := range writes {
		if len(w.segments) == 0 {
			node = w.value

			continue
		}

		deeper = append(deeper, w)
	}

	if len(deeper) == 0 {
		return node
	}

	src, _ := node.(map[string]any)
	out := make(map[string]any, len(src)+len(deeper))

	for k, v := range src {
		out[k] = v
	}

	// Group by first segment, keeping the sorted order inside each group.
	var keys []string

	groups := make(map[string][]write)

	for _, w := range deeper {
		key := w.segments[0]
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}

		groups[key] = append(groups[key], write{segments: w.segments[1:], value: w.value})
	}

	for _, key := range keys {
		out[key] = applyWrites(out[key], groups[key])
	}

	return out
}
