package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/grandcat/zeroconf"
)

// Advertisement is a registered mDNS service.
type Advertisement struct {
	server *zeroconf.Server
	once   sync.Once
}

// TXTRecords builds the TXT records of a daemon.
func TXTRecords(device, version string) []string {
	return []string{
		TXTDevice + "=" + device,
		TXTVersion + "=" + version,
	}
}

// Advertise registers instance on port until ctx is done or Shutdown is
// called.
func Advertise(ctx context.Context, instance string, port int, txt []string) (*Advertisement, error) {
	if instance == "" {
		return nil, fmt.Errorf("instance name must not be empty")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	ad := &Advertisement{server: server}
	go func() {
		<-ctx.Done()
		ad.Shutdown()
	}()

	return ad, nil
}

// Shutdown withdraws the advertisement. It is safe to call more than once.
func (a *Advertisement) Shutdown() {
	a.once.Do(a.server.Shutdown)
}
