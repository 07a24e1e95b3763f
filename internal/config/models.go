package config

import (
	"sort"
	"time"
)

// Registry is the list of bridge daemons v4lctl-cfg has seen.
type Registry struct {
	Version int                `yaml:"version"`
	Servers map[string]*Server `yaml:"servers,omitempty"` // Keyed by mDNS instance name
}

// Server is what v4lctl-cfg remembers about one daemon.
type Server struct {
	Address  string    `yaml:"address"`            // host:port
	Device   string    `yaml:"device,omitempty"`   // video device the daemon drives
	Version  string    `yaml:"version,omitempty"`  // daemon version from TXT records
	Nickname string    `yaml:"nickname,omitempty"` // user label, kept across scans
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Servers: make(map[string]*Server),
	}
}

// GetServer returns the entry for instance, or nil.
func (r *Registry) GetServer(instance string) *Server {
	return r.Servers[instance]
}

// EnsureServer returns the entry for instance, creating it if needed.
func (r *Registry) EnsureServer(instance string) *Server {
	if r.Servers == nil {
		r.Servers = make(map[string]*Server)
	}

	if server, exists := r.Servers[instance]; exists {
		return server
	}

	server := &Server{}
	r.Servers[instance] = server
	return server
}

// UpdateServerSeen records a sighting of instance at address.
func (r *Registry) UpdateServerSeen(instance, address, device, version string) {
	server := r.EnsureServer(instance)
	server.Address = address
	server.Device = device
	server.Version = version
	server.LastSeen = time.Now()
}

// SetServerNickname sets a user-friendly name for a daemon.
func (r *Registry) SetServerNickname(instance, nickname string) {
	r.EnsureServer(instance).Nickname = nickname
}

// MostRecent returns the instance name and entry seen last, or "" and nil
// when the registry is empty.
func (r *Registry) MostRecent() (string, *Server) {
	var (
		name string
		best *Server
	)
	for _, instance := range r.Instances() {
		s := r.Servers[instance]
		if best == nil || s.LastSeen.After(best.LastSeen) {
			name, best = instance, s
		}
	}
	return name, best
}

// Instances returns the instance names in sorted order.
func (r *Registry) Instances() []string {
	names := make([]string, 0, len(r.Servers))
	for name := range r.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
