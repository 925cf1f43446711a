package template

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages dialect registration and lookup by name
type Registry struct {
	mu       sync.RWMutex
	dialects map[string]Dialect
}

// NewRegistry creates an empty dialect registry
func NewRegistry() *Registry {
	return &Registry{
		dialects: make(map[string]Dialect),
	}
}

// Register adds a dialect under its name
func (r *Registry) Register(d Dialect) error {
	if d.Name == "" {
		return fmt.Errorf("dialect name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.dialects[d.Name]; exists {
		return fmt.Errorf("dialect '%s' is already registered", d.Name)
	}

	r.dialects[d.Name] = d
	return nil
}

// Lookup retrieves a dialect by name
func (r *Registry) Lookup(name string) (Dialect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.dialects[name]
	if !exists {
		return Dialect{}, fmt.Errorf("dialect '%s' not found", name)
	}

	return d, nil
}

// Names returns the registered dialect names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.dialects))
	for name := range r.dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry is the global default registry
var defaultRegistry = NewRegistry()

func init() {
	for _, d := range []Dialect{JaisPlus, Llama3} {
		if err := defaultRegistry.Register(d); err != nil {
			panic(err)
		}
	}
}

// Register registers a dialect with the default registry
func Register(d Dialect) error {
	return defaultRegistry.Register(d)
}

// Lookup retrieves a dialect from the default registry
func Lookup(name string) (Dialect, error) {
	return defaultRegistry.Lookup(name)
}

// Names lists the dialects in the default registry
func Names() []string {
	return defaultRegistry.Names()
}
