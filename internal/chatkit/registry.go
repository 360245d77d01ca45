package chatkit

import (
	"maps"
	"slices"

	"github.com/jsamuelsen/go-chatkit/internal/domain"
)

// Logical service keys of the default registry.
const (
	ServiceAPI        = "api"
	ServiceAuthorizer = "authorizer"
	ServiceCursors    = "cursors"
	ServiceChatkitV4  = "chatkit_v4"
)

// Service names a versioned platform sub-service.
type Service struct {
	Name    string
	Version string
}

// PathFragment returns "name/version".
func (s Service) PathFragment() string {
	return s.Name + "/" + s.Version
}

// Registry maps logical service keys to platform services. A Registry is
// immutable once built and safe for concurrent reads.
type Registry struct {
	services map[string]Service
}

// NewRegistry builds a registry from a copy of services.
func NewRegistry(services map[string]Service) Registry {
	return Registry{services: maps.Clone(services)}
}

// DefaultRegistry returns the platform's fixed service table.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]Service{
		ServiceAPI:        {Name: "chatkit", Version: "v2"},
		ServiceAuthorizer: {Name: "chatkit_authorizer", Version: "v2"},
		ServiceCursors:    {Name: "chatkit_cursors", Version: "v2"},
		ServiceChatkitV4:  {Name: "chatkit", Version: "v4"},
	})
}

// Lookup returns the service registered under key.
func (r Registry) Lookup(key string) (Service, error) {
	svc, ok := r.services[key]
	if !ok {
		return Service{}, domain.NewUnknownServiceError(key)
	}

	return svc, nil
}

// Keys returns the registered keys in sorted order.
func (r Registry) Keys() []string {
	return slices.Sorted(maps.Keys(r.services))
}

// Len returns the number of registered services.
func (r Registry) Len() int {
	return len(r.services)
}
