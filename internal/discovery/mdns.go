package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type of v4lctl daemons
	ServiceType = "_v4lctl._tcp"

	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the daemon's default HTTP port
	DefaultPort = 8740

	// TXT record keys
	TXTDevice  = "device"
	TXTVersion = "version"
)

// Scanner browses the local link for daemons.
type Scanner struct {
	Timeout time.Duration // how long one browse listens for answers
}

func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// browse hands every resolvable answer to visit until visit returns false,
// the timeout passes or ctx is done. visit runs on a single goroutine.
func (s *Scanner) browse(ctx context.Context, visit func(*Instance) bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	answers := make(chan *zeroconf.ServiceEntry)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		stopped := false
		for entry := range answers {
			if stopped {
				continue
			}
			if inst := parseServiceEntry(entry); inst != nil && !visit(inst) {
				stopped = true
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, answers); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	<-ctx.Done()

	// zeroconf closes answers once the browse context ends
	select {
	case <-drained:
	case <-time.After(time.Second):
	}
	return nil
}

// Scan browses for the full timeout and returns each daemon once, in the
// order they answered.
func (s *Scanner) Scan(ctx context.Context) ([]*Instance, error) {
	var (
		mu        sync.Mutex
		instances []*Instance
		seen      = make(map[string]bool)
	)
	err := s.browse(ctx, func(inst *Instance) bool {
		mu.Lock()
		defer mu.Unlock()
		if !seen[inst.Name] {
			seen[inst.Name] = true
			instances = append(instances, inst)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]*Instance(nil), instances...), nil
}

// WaitFor browses until the named instance answers.
func (s *Scanner) WaitFor(ctx context.Context, name string) (*Instance, error) {
	var (
		mu    sync.Mutex
		found *Instance
	)
	err := s.browse(ctx, func(inst *Instance) bool {
		if inst.Name != name {
			return true
		}
		mu.Lock()
		found = inst
		mu.Unlock()
		return false
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if found == nil {
		return nil, fmt.Errorf("v4lctl daemon %q not found within %s", name, s.Timeout)
	}
	return found, nil
}

// parseServiceEntry converts a zeroconf service entry to an Instance.
// Returns nil when the entry carries no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Instance {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	var ip string
	switch {
	case len(entry.AddrIPv4) > 0:
		ip = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		ip = entry.AddrIPv6[0].String()
	default:
		return nil
	}

	port := entry.Port
	if port <= 0 {
		port = DefaultPort
	}
	txt := ParseTXT(entry.Text)

	return &Instance{
		Name:         entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Device:       txt[TXTDevice],
		Version:      txt[TXTVersion],
		Metadata:     txt,
		DiscoveredAt: time.Now(),
	}
}

// ParseTXT splits "key=value" TXT records. Keys without a value map to "".
func ParseTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, rec := range records {
		k, v, _ := strings.Cut(rec, "=")
		out[k] = v
	}
	return out
}

// QuickScan scans once with timeout, or DefaultScanTimeout when it is zero.
func QuickScan(ctx context.Context, timeout time.Duration) ([]*Instance, error) {
	s := NewScanner()
	if timeout > 0 {
		s.Timeout = timeout
	}
	return s.Scan(ctx)
}
