// Package definitions loads operation definitions from YAML.
//
// Work functions and computed sources cannot be expressed in YAML, so the file
// refers to them by name and the Loader resolves the names against its
// registries:
//
//	operations:
//	  fetchUser:
//	    kind: better-promise
//	    asyncWork: users.fetch
//	    onSuccess:
//	      user.current: result
//	      user.tags: { source: result.tags, default: [], initial: [] }
//	      user.history: { compute: append, initial: [] }
//	    onError:
//	      user.lastError: error.message
//	    initial:
//	      user.loaded: false
package definitions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"facette.io/natsort"
	"github.com/amp-labs/breeze/config"
	commonErrors "github.com/amp-labs/breeze/errors"
	"github.com/amp-labs/breeze/logger"
	"github.com/amp-labs/breeze/optional"
	"github.com/amp-labs/breeze/plugin"
	"github.com/amp-labs/breeze/resolve"
	"github.com/amp-labs/breeze/statepath"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownWork is returned when a definition names an unregistered work function.
	ErrUnknownWork = errors.New("unknown work function")

	// ErrUnknownCompute is returned when a source names an unregistered compute function.
	ErrUnknownCompute = errors.New("unknown compute function")

	// ErrInvalidSource is returned for a source that is neither a path nor a
	// source object with exactly one of "source" or "compute".
	ErrInvalidSource = errors.New("invalid source")

	// ErrInvalidDefinition is returned when an operation entry cannot be decoded.
	ErrInvalidDefinition = errors.New("invalid definition")
)

// Loader turns YAML documents into plugin definitions.
type Loader struct {
	// DefaultKind is used for operations without a kind. Empty means
	// config.DefaultKind.
	DefaultKind string

	// File is read by LoadConfigured. Empty means no definitions file.
	File string

	Work      map[string]plugin.Work
	AsyncWork map[string]plugin.AsyncWork
	Compute   map[string]resolve.ComputedSource
}

// NewLoader creates a Loader with empty registries. The default kind and the
// definitions file are taken from cfg.
func NewLoader(cfg config.Config) *Loader {
	return &Loader{
		DefaultKind: cfg.DefaultKind,
		File:        cfg.DefinitionsFile,
		Work:        make(map[string]plugin.Work),
		AsyncWork:   make(map[string]plugin.AsyncWork),
		Compute:     make(map[string]resolve.ComputedSource),
	}
}

type document struct {
	Operations map[string]map[string]any `yaml:"operations"`
}

type rawOperation struct {
	Kind      string         `mapstructure:"kind"`
	Work      string         `mapstructure:"work"`
	AsyncWork string         `mapstructure:"asyncWork"`
	OnSuccess map[string]any `mapstructure:"onSuccess"`
	Result    map[string]any `mapstructure:"result"`
	OnError   map[string]any `mapstructure:"onError"`
	Error     map[string]any `mapstructure:"error"`
	Initial   map[string]any `mapstructure:"initial"`
}

type rawSource struct {
	Source  string `mapstructure:"source"`
	Compute string `mapstructure:"compute"`
	Default any    `mapstructure:"default"`
	Initial any    `mapstructure:"initial"`
}

// LoadConfigured reads definitions from the configured File. Without a file it
// returns no definitions and no error.
func (l *Loader) LoadConfigured(ctx context.Context) (map[string]plugin.Definition, error) {
	if l.File == "" {
		logger.Get(ctx).Debug("no definitions file configured")

		return map[string]plugin.Definition{}, nil
	}

	return l.LoadFile(ctx, l.File)
}

// LoadFile reads definitions from the YAML file at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (map[string]plugin.Definition, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("open definitions: %w", err)
	}

	defer f.Close() //nolint:errcheck

	return l.Load(logger.With(ctx, "file", path), f)
}

// Load reads definitions from a YAML document. Every invalid operation is
// reported; nothing is returned unless all of them are valid.
func (l *Loader) Load(ctx context.Context, r io.Reader) (map[string]plugin.Definition, error) {
	var doc document

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}

	names := make([]string, 0, len(doc.Operations))
	for name := range doc.Operations {
		names = append(names, name)
	}

	natsort.Sort(names)

	defs := make(map[string]plugin.Definition, len(names))
	errs := commonErrors.Collection{}

	for _, name := range names {
		def, opErrs := l.operation(doc.Operations[name])
		if opErrs.HasError() {
			errs.AddFor("operation", name, opErrs.GetError())

			continue
		}

		defs[name] = def

		logger.Get(ctx).Debug("loaded definition", "operation", name, "kind", def.Kind)
	}

	if errs.HasError() {
		logger.Get(ctx).Warn("rejected definitions", "invalid", errs.Len(), "total", len(names))

		return nil, errs.GetError()
	}

	return defs, nil
}

func (l *Loader) operation(raw map[string]any) (plugin.Definition, *commonErrors.Collection) {
	errs := &commonErrors.Collection{}

	var op rawOperation
	if err := decode(raw, &op); err != nil {
		errs.Add(err)

		return plugin.Definition{}, errs
	}

	def := plugin.Definition{
		Kind:    op.Kind,
		Initial: statepath.Assignments(op.Initial),
	}

	if def.Kind == "" {
		def.Kind = l.defaultKind()
	}

	for target := range op.Initial {
		if _, err := statepath.ParsePath(target); err != nil {
			errs.Add(fmt.Errorf("initial %q: %w", target, err))
		}
	}

	if op.Work != "" {
		fn, ok := l.Work[op.Work]
		if !ok {
			errs.Add(fmt.Errorf("%w: %q", ErrUnknownWork, op.Work))
		}

		def.Work = fn
	}

	if op.AsyncWork != "" {
		fn, ok := l.AsyncWork[op.AsyncWork]
		if !ok {
			errs.Add(fmt.Errorf("%w: %q", ErrUnknownWork, op.AsyncWork))
		}

		def.AsyncWork = fn
	}

	onSuccess, err := alias("onSuccess", op.OnSuccess, "result", op.Result)
	errs.Add(err)

	onError, err := alias("onError", op.OnError, "error", op.Error)
	errs.Add(err)

	if onSuccess != nil {
		def.OnSuccess = l.mapping(onSuccess, errs)
	}

	if onError != nil {
		def.OnError = l.mapping(onError, errs)
	}

	return def, errs
}

func (l *Loader) defaultKind() string {
	if l.DefaultKind != "" {
		return l.DefaultKind
	}

	return config.DefaultKind
}

func alias(key string, value map[string]any, aliasKey string, aliasValue map[string]any) (map[string]any, error) {
	if value != nil && aliasValue != nil {
		return nil, fmt.Errorf("%w: both %q and %q are set", ErrInvalidDefinition, key, aliasKey)
	}

	if value != nil {
		return value, nil
	}

	return aliasValue, nil
}

func (l *Loader) mapping(raw map[string]any, errs *commonErrors.Collection) resolve.Mapping {
	out := make(resolve.Mapping, len(raw))

	for target, value := range raw {
		if _, err := statepath.ParsePath(target); err != nil {
			errs.Add(fmt.Errorf("target %q: %w", target, err))

			continue
		}

		src, err := l.source(value)
		if err != nil {
			errs.Add(fmt.Errorf("target %q: %w", target, err))

			continue
		}

		out[target] = src
	}

	return out
}

func (l *Loader) source(value any) (resolve.Source, error) {
	switch v := value.(type) {
	case string:
		if _, err := statepath.ParsePath(v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
		}

		return resolve.PathSource(v), nil
	case map[string]any:
		var raw rawSource
		if err := decode(v, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
		}

		if (raw.Source == "") == (raw.Compute == "") {
			return nil, fmt.Errorf("%w: exactly one of \"source\" or \"compute\" is required", ErrInvalidSource)
		}

		src := resolve.ConfiguredSource{Path: raw.Source}

		if raw.Compute != "" {
			fn, ok := l.Compute[raw.Compute]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownCompute, raw.Compute)
			}

			src.Compute = fn
		}

		// Presence is taken from the raw map so an explicit null still counts.
		def, hasDefault := v["default"]
		src.Default = optional.Of(def, hasDefault)

		initial, hasInitial := v["initial"]
		src.Initial = optional.Of(initial, hasInitial)

		return src, nil
	default:
		return nil, fmt.Errorf("%w: %w: %T", ErrInvalidSource, commonErrors.ErrWrongType, value)
	}
}

func decode(input any, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      output,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	return nil
}
