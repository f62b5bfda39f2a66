package schema

import (
	"reflect"
	"sync"
)

// Registry caches one Mapping per entity type. Each type is declared and
// validated at most once; a failed build is cached and returned to every
// later caller until Reset.
type Registry struct {
	conv DateTimeConvention

	mu      sync.Mutex
	entries map[reflect.Type]*entry
}

type entry struct {
	once    sync.Once
	mapping any
	err     error
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDateTimeConvention selects how time.Time members are stored.
func WithDateTimeConvention(conv DateTimeConvention) RegistryOption {
	return func(r *Registry) {
		r.conv = conv
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{entries: make(map[reflect.Type]*entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Convention returns the registry's date/time convention.
func (r *Registry) Convention() DateTimeConvention { return r.conv }

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// For returns the mapping of T, building it on first use. Concurrent
// callers for the same type wait for a single build.
func For[T Entity[T]](r *Registry) (*Mapping[T], error) {
	key := reflect.TypeFor[T]()

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		e.mapping, e.err = declare[T](r.conv)
	})
	if e.err != nil {
		return nil, e.err
	}
	return e.mapping.(*Mapping[T]), nil
}

// TableFor returns the TableMap of T.
func TableFor[T Entity[T]](r *Registry) (*TableMap, error) {
	m, err := For[T](r)
	if err != nil {
		return nil, err
	}
	return m.Table(), nil
}

// Reset drops every cached mapping. Mappings already handed out stay valid.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.entries = make(map[reflect.Type]*entry)
	r.mu.Unlock()
}

// Len returns the number of cached types.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
