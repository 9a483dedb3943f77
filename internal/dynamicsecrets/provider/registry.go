package provider

import (
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
)

// Registry maps provider type tags to providers. It is built once at process
// start and read-only afterwards.
type Registry struct {
	providers map[domain.ProviderType]Provider
}

// NewRegistry creates a registry over the given providers.
func NewRegistry(providers ...Provider) *Registry {
	m := make(map[domain.ProviderType]Provider, len(providers))
	for _, p := range providers {
		m[p.Type()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider for the type tag.
func (r *Registry) Get(providerType domain.ProviderType) (Provider, error) {
	p, ok := r.providers[providerType]
	if !ok {
		return nil, domain.ErrUnsupportedProvider
	}
	return p, nil
}
