package style

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Registry holds named styles. It is meant to be built once at startup and
// treated as read-only while workbooks are generated.
type Registry struct {
	mu     sync.RWMutex
	styles map[string]Style
	logger zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		styles: make(map[string]Style),
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewDefaultRegistry returns a registry pre-loaded with DefaultCatalogue.
func NewDefaultRegistry(opts ...Option) *Registry {
	return NewRegistry(opts...).RegisterAll(DefaultCatalogue())
}

// Register stores s under name, replacing any previous entry.
func (r *Registry) Register(name string, s Style) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.styles[name] = s
	return r
}

// RegisterAll registers every entry of styles.
func (r *Registry) RegisterAll(styles map[string]Style) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, s := range styles {
		r.styles[name] = s
	}
	return r
}

// Get returns the style registered under name.
func (r *Registry) Get(name string) (Style, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.styles[name]
	return s, ok
}

// Resolve turns ref plus an optional override into a single style. An unknown
// name is logged and treated as absent; nil is returned when there is nothing
// to apply.
func (r *Registry) Resolve(ref Ref, extra *Style) *Style {
	var base *Style
	switch {
	case ref.Inline != nil:
		base = ref.Inline
	case ref.Name != "":
		s, ok := r.Get(ref.Name)
		if !ok {
			r.logger.Warn().Str("style", ref.Name).Msg("style not registered, using override only")
		} else {
			base = &s
		}
	}

	if base == nil {
		if extra == nil {
			return nil
		}
		return r.clone(*extra)
	}

	out := r.clone(*base)
	if extra != nil {
		merged := Merge(*out, *extra)
		out = &merged
	}
	return out
}

func (r *Registry) clone(s Style) *Style {
	cp, err := Clone(s)
	if err != nil {
		// Merge never writes through shared pointers, so a shallow copy is safe.
		r.logger.Error().Err(err).Msg("deep copy style")
		return &s
	}
	return &cp
}

// Names lists registered style names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.styles))
	for name := range r.styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes every registered style.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.styles = make(map[string]Style)
}
