// Package chatkit is the client core: it resolves instance locators, builds
// service URLs and classifies platform responses. It performs no I/O of its
// own; requests are handed to an injected ports.Transport.
package chatkit

import (
	"strings"

	"github.com/jsamuelsen/go-chatkit/internal/domain"
)

const (
	// Scheme is the URL scheme for every platform request.
	Scheme = "https"

	// HostSuffix is appended to the locator's cluster to form the API host.
	HostSuffix = ".pusherplatform.io"

	locatorSeparator = ":"
	locatorSegments  = 3
)

// Locator is a parsed "version:cluster:instance_id" instance locator.
type Locator struct {
	Version    string
	Cluster    string
	InstanceID string
}

// ParseLocator splits an instance locator. Cluster and instance id are taken
// positionally; segments past the third are ignored and no character set is
// enforced. Fewer than three segments is a configuration error.
func ParseLocator(s string) (Locator, error) {
	parts := strings.Split(s, locatorSeparator)
	if len(parts) < locatorSegments {
		return Locator{}, domain.NewLocatorError(s, len(parts))
	}

	return Locator{
		Version:    parts[0],
		Cluster:    parts[1],
		InstanceID: parts[2],
	}, nil
}

// Host returns the API host for the locator's cluster.
func (l Locator) Host() string {
	return l.Cluster + HostSuffix
}

// String reassembles the locator.
func (l Locator) String() string {
	return strings.Join([]string{l.Version, l.Cluster, l.InstanceID}, locatorSeparator)
}
