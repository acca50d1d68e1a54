package providers

import (
	"errors"
	"sort"
	"time"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// ProviderConfig identifies one configured backend. The set of configs is
// built once at startup and never mutated afterwards.
type ProviderConfig struct {
	// Name uniquely identifies the provider
	Name string

	// Capabilities this provider is configured for
	Capabilities CapabilitySet

	// APIKey is the credential material
	APIKey string

	// Endpoint optionally overrides the provider's base URL
	Endpoint string

	// Priority orders fallback: lower values are tried first
	Priority int

	// Timeout bounds a single attempt against this provider
	Timeout time.Duration
}

type entry struct {
	provider Provider
	priority int
	order    int // registration order, tie-break for equal priority
}

// Registry holds the configured providers for the process lifetime. It is
// populated during startup and read-only afterwards, so lookups after
// registration need no locking.
type Registry struct {
	entries []entry
	byName  map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Provider)}
}

// Register adds a provider with its fallback priority. Registration order is
// preserved as the tie-break between providers with equal priority.
func (r *Registry) Register(provider Provider, priority int) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}
	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}
	if _, exists := r.byName[name]; exists {
		return ErrProviderAlreadyRegistered
	}

	r.byName[name] = provider
	r.entries = append(r.entries, entry{provider: provider, priority: priority, order: len(r.entries)})

	// Stable sort keeps registration order for equal priorities.
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].priority < r.entries[j].priority
	})
	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	provider, exists := r.byName[name]
	if !exists {
		return nil, ErrProviderNotFound
	}
	return provider, nil
}

// ForCapability returns the providers declaring the capability, in ascending
// priority order. An empty slice means no provider can serve the capability.
func (r *Registry) ForCapability(c Capability) []Provider {
	var matched []Provider
	for _, e := range r.entries {
		if e.provider.Capabilities().Has(c) {
			matched = append(matched, e.provider)
		}
	}
	return matched
}

// List returns all registered providers in priority order.
func (r *Registry) List() []Provider {
	out := make([]Provider, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.provider
	}
	return out
}

// ProviderInfo describes one registered provider for introspection.
type ProviderInfo struct {
	Name         string       `json:"name"`
	Priority     int          `json:"priority"`
	Capabilities []Capability `json:"capabilities"`
}

// Describe returns provider metadata in priority order.
func (r *Registry) Describe() []ProviderInfo {
	out := make([]ProviderInfo, len(r.entries))
	for i, e := range r.entries {
		caps := make([]Capability, 0, len(e.provider.Capabilities()))
		for c := range e.provider.Capabilities() {
			caps = append(caps, c)
		}
		sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
		out[i] = ProviderInfo{
			Name:         e.provider.Name(),
			Priority:     e.priority,
			Capabilities: caps,
		}
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.entries)
}
