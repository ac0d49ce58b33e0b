// Package formatter provides the named value transforms applied to raw column
// values before they are written to a cell.
package formatter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Func normalizes a raw value into something a cell can hold.
type Func func(value interface{}) interface{}

// Registry maps formatter names to functions. Apply never panics: a failing
// formatter yields the value it was given.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Func
	logger     zerolog.Logger
}

type Option func(*Registry)

func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		formatters: make(map[string]Func),
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewDefaultRegistry returns a registry with every built-in formatter
// registered.
func NewDefaultRegistry(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	for name, fn := range Defaults() {
		r.Register(name, fn)
	}
	return r
}

// Register stores fn under name, replacing any previous formatter.
func (r *Registry) Register(name string, fn Func) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[name] = fn
	return r
}

// Apply runs the formatter registered under name. Unknown names and panicking
// formatters are logged and the original value is returned.
func (r *Registry) Apply(name string, value interface{}) (out interface{}) {
	r.mu.RLock()
	fn, ok := r.formatters[name]
	r.mu.RUnlock()
	if !ok || fn == nil {
		r.logger.Warn().Str("formatter", name).Msg("formatter not registered, value left as is")
		return value
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("formatter", name).
				Str("panic", fmt.Sprint(rec)).
				Msg("formatter failed, value left as is")
			out = value
		}
	}()
	return fn(value)
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.formatters[name]
	return ok
}

// Names lists the registered formatter names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters = make(map[string]Func)
}
