package statepath

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samePointer(t *testing.T, expected, actual any) {
	t.Helper()

	assert.Equal(t, reflect.ValueOf(expected).Pointer(), reflect.ValueOf(actual).Pointer())
}

func TestParsePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		wantKeys []string
		wantErr  error
	}{
		{
			name:     "single segment",
			path:     "pending",
			wantKeys: []string{"pending"},
		},
		{
			name:     "nested path",
			path:     "pending.fetchUser",
			wantKeys: []string{"pending", "fetchUser"},
		},
		{
			name:     "numeric segment",
			path:     "result.items.0",
			wantKeys: []string{"result", "items", "0"},
		},
		{
			name:    "empty path",
			path:    "",
			wantErr: ErrPathEmpty,
		},
		{
			name:    "leading dot",
			path:    ".pending",
			wantErr: ErrPathEmptySegment,
		},
		{
			name:    "double dot",
			path:    "pending..fetchUser",
			wantErr: ErrPathEmptySegment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			keys, err := ParsePath(tt.path)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, ErrInvalidPath)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pending.fetchUser", Join("pending", "fetchUser"))
	assert.Equal(t, "pending", Join("pending"))
}

type profile struct {
	Email   string `json:"email"`
	Age     int    `json:"age,omitempty"`
	private string
}

func TestGet(t *testing.T) {
	t.Parallel()

	root := map[string]any{
		"result": map[string]any{
			"foo":     "bar",
			"nothing": nil,
			"items":   []any{"a", map[string]any{"id": 7}},
			"profile": &profile{Email: "x@y.com", Age: 3, private: "hidden"},
			"labels":  map[string]string{"env": "prod"},
		},
	}

	tests := []struct {
		name      string
		path      string
		wantValue any
		wantFound bool
	}{
		{name: "top level", path: "result", wantValue: root["result"], wantFound: true},
		{name: "nested", path: "result.foo", wantValue: "bar", wantFound: true},
		{name: "present nil", path: "result.nothing", wantValue: nil, wantFound: true},
		{name: "missing key", path: "result.nonExistent", wantFound: false},
		{name: "missing parent", path: "nope.foo", wantFound: false},
		{name: "traverse scalar", path: "result.foo.bar", wantFound: false},
		{name: "traverse nil", path: "result.nothing.bar", wantFound: false},
		{name: "slice index", path: "result.items.0", wantValue: "a", wantFound: true},
		{name: "slice nested", path: "result.items.1.id", wantValue: 7, wantFound: true},
		{name: "slice out of range", path: "result.items.5", wantFound: false},
		{name: "slice bad index", path: "result.items.x", wantFound: false},
		{name: "struct field name", path: "result.profile.Email", wantValue: "x@y.com", wantFound: true},
		{name: "struct json tag", path: "result.profile.age", wantValue: 3, wantFound: true},
		{name: "struct unexported", path: "result.profile.private", wantFound: false},
		{name: "typed map", path: "result.labels.env", wantValue: "prod", wantFound: true},
		{name: "malformed path", path: "result..foo", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			value, found := Get(root, tt.path)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantValue, value)
			assert.Equal(t, tt.wantFound, Has(root, tt.path))
		})
	}
}

func TestGet_NilRoot(t *testing.T) {
	t.Parallel()

	value, found := Get(nil, "pending.fetchUser")
	assert.False(t, found)
	assert.Nil(t, value)

	var ptr *profile

	_, found = Get(ptr, "Email")
	assert.False(t, found)
}

func TestSet(t *testing.T) {
	t.Parallel()

	t.Run("creates intermediate maps", func(t *testing.T) {
		t.Parallel()

		out := Set(Tree{}, "pending.fetchUser", true)
		assert.Equal(t, Tree{"pending": map[string]any{"fetchUser": true}}, out)
	})

	t.Run("nil tree", func(t *testing.T) {
		t.Parallel()

		out := Set(nil, "result.fetchUser", nil)
		assert.Equal(t, Tree{"result": map[string]any{"fetchUser": nil}}, out)
	})

	t.Run("replaces non-map intermediate", func(t *testing.T) {
		t.Parallel()

		in := Tree{"foo": "scalar"}
		out := Set(in, "foo.bar", 1)

		assert.Equal(t, Tree{"foo": map[string]any{"bar": 1}}, out)
		assert.Equal(t, Tree{"foo": "scalar"}, in)
	})

	t.Run("panics on malformed path", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { Set(Tree{}, "", 1) })
		assert.Panics(t, func() { Set(Tree{}, "a..b", 1) })
	})
}

func TestApply_DoesNotMutate(t *testing.T) {
	t.Parallel()

	pending := map[string]any{"fetchUser": false, "other": false}
	untouched := map[string]any{"fetchUser": map[string]any{"id": 1}}
	in := Tree{
		"pending": pending,
		"result":  untouched,
	}

	out := Apply(in, Assignments{
		"pending.fetchUser":   true,
		"succeeded.fetchUser": true,
	})

	assert.Equal(t, Tree{
		"pending": map[string]any{"fetchUser": false, "other": false},
		"result":  map[string]any{"fetchUser": map[string]any{"id": 1}},
	}, in, "input must not change")

	assert.Equal(t, Tree{
		"pending":   map[string]any{"fetchUser": true, "other": false},
		"result":    map[string]any{"fetchUser": map[string]any{"id": 1}},
		"succeeded": map[string]any{"fetchUser": true},
	}, out)

	// Untouched branches are shared, written ones are fresh copies.
	samePointer(t, untouched, out["result"])
	assert.NotEqual(t, reflect.ValueOf(pending).Pointer(), reflect.ValueOf(out["pending"]).Pointer())
}

func TestApply_Empty(t *testing.T) {
	t.Parallel()

	in := Tree{"a": 1}

	samePointer(t, in, Apply(in, nil))
	samePointer(t, in, Apply(in, Assignments{}))
}

func TestApply_ParentBeforeChild(t *testing.T) {
	t.Parallel()

	assigned := map[string]any{"x": 1}

	out := Apply(Tree{}, Assignments{
		"foo.bar": 2,
		"foo":     assigned,
	})

	assert.Equal(t, Tree{"foo": map[string]any{"x": 1, "bar": 2}}, out)
	assert.Equal(t, map[string]any{"x": 1}, assigned, "assigned value must not be mutated")
}

func TestApply_SiblingsInOnePass(t *testing.T) {
	t.Parallel()

	out := Apply(Tree{"foo": map[string]any{"keep": "me"}}, Assignments{
		"foo.value":          "a",
		"foo.alteredValue":   "b",
		"foo.deep.nested.ok": true,
		"bar":                []any{},
	})

	assert.Equal(t, Tree{
		"foo": map[string]any{
			"keep":         "me",
			"value":        "a",
			"alteredValue": "b",
			"deep":         map[string]any{"nested": map[string]any{"ok": true}},
		},
		"bar": []any{},
	}, out)
}
