package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jsamuelsen/go-chatkit/internal/chatkit"
	"github.com/jsamuelsen/go-chatkit/internal/domain"
	"github.com/jsamuelsen/go-chatkit/internal/ports"
)

// probeUserID is a user ID unlikely to exist, used where a probe needs one.
const probeUserID = "chatkit-health-probe"

// probeEndpoints maps each default service key to a cheap read-only request.
var probeEndpoints = map[string]struct {
	endpoint string
	query    chatkit.Query
}{
	chatkit.ServiceAPI:        {endpoint: "/users", query: chatkit.NewQuery("limit", "1")},
	chatkit.ServiceAuthorizer: {endpoint: "/roles"},
	chatkit.ServiceCursors:    {endpoint: cursorsPrefix + "/users/" + probeUserID},
	chatkit.ServiceChatkitV4:  {endpoint: "/users", query: chatkit.NewQuery("limit", "1")},
}

// ServiceProbe checks that one platform service answers.
type ServiceProbe struct {
	ck       *ChatKit
	service  string
	endpoint string
	query    chatkit.Query
}

var _ ports.HealthChecker = (*ServiceProbe)(nil)

// Name returns the service key.
func (p *ServiceProbe) Name() string {
	return p.service
}

// Check issues one GET. Any success and 404 both mean the service is
// reachable; every other outcome is an error.
func (p *ServiceProbe) Check(ctx context.Context) error {
	err := exec(ctx, p.ck, call{
		op:       "probing " + p.service,
		method:   http.MethodGet,
		service:  p.service,
		endpoint: p.endpoint,
		query:    p.query,
		su:       true,
	})
	if domain.IsNotFound(err) {
		return nil
	}

	return err
}

// Probes returns one probe per service in the client's registry. Services
// without a known probe endpoint are probed at "/".
func (s *ChatKit) Probes() []*ServiceProbe {
	keys := s.client.Registry().Keys()
	probes := make([]*ServiceProbe, 0, len(keys))

	for _, key := range keys {
		p := &ServiceProbe{ck: s, service: key, endpoint: "/"}
		if e, ok := probeEndpoints[key]; ok {
			p.endpoint = e.endpoint
			p.query = e.query
		}
		probes = append(probes, p)
	}

	return probes
}

// RegisterProbes adds every probe to registry.
func (s *ChatKit) RegisterProbes(registry *ports.HealthRegistry) error {
	for _, p := range s.Probes() {
		if err := registry.Register(p); err != nil {
			return fmt.Errorf("registering probe: %w", err)
		}
	}

	return nil
}
