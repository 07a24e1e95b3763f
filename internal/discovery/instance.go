package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Instance is a discovered v4lctl daemon.
type Instance struct {
	// Name is the mDNS instance name (e.g., "bench")
	Name string

	// Hostname is the mDNS hostname (e.g., "capture-pc.local.")
	Hostname string

	// IP is the advertised address, IPv4 preferred
	IP string

	// Port is the HTTP API port
	Port int

	// Device is the video device from the TXT records
	Device string

	// Version is the daemon version from the TXT records
	Version string

	// Metadata holds every TXT record
	Metadata map[string]string

	// DiscoveredAt is when the instance was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the instance
func (i *Instance) String() string {
	return fmt.Sprintf("%s (%s) at %s, device %s", i.Name, i.Hostname, i.Address(), i.Device)
}

// Address returns host:port.
func (i *Instance) Address() string {
	return net.JoinHostPort(i.IP, strconv.Itoa(i.Port))
}

// BaseURL returns the HTTP base URL of the daemon API
func (i *Instance) BaseURL() string {
	return "http://" + i.Address()
}

// GetMetadata retrieves a TXT value by key, or returns empty string if not found
func (i *Instance) GetMetadata(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}
