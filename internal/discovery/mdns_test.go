package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name        string
		entry       *zeroconf.ServiceEntry
		wantNil     bool
		wantIP      string
		wantPort    int
		wantDevice  string
		wantVersion string
	}{
		{
			name: "daemon with IPv4 and TXT records",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bench"},
				HostName:      "capture-pc.local.",
				Port:          8740,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"device=/dev/video0", "version=1.2.0"},
			},
			wantIP:      "192.168.4.16",
			wantPort:    8740,
			wantDevice:  "/dev/video0",
			wantVersion: "1.2.0",
		},
		{
			name: "no port specified (should default)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bench"},
				AddrIPv4:      []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantIP:   "172.16.0.1",
			wantPort: DefaultPort,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bench"},
				Port:          9000,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:   "fe80::1",
			wantPort: 9000,
		},
		{
			name: "both IPv4 and IPv6 (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bench"},
				Port:          8740,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantIP:   "192.168.1.50",
			wantPort: 8740,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bench"},
				Port:          8740,
			},
			wantNil: true,
		},
		{
			name: "no instance name",
			entry: &zeroconf.ServiceEntry{
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name:    "nil entry",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if inst != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", inst)
				}
				return
			}
			if inst == nil {
				t.Fatal("parseServiceEntry() = nil, want instance")
			}

			if inst.Name != "bench" {
				t.Errorf("Name = %v, want bench", inst.Name)
			}
			if inst.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", inst.IP, tt.wantIP)
			}
			if inst.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", inst.Port, tt.wantPort)
			}
			if inst.Device != tt.wantDevice {
				t.Errorf("Device = %v, want %v", inst.Device, tt.wantDevice)
			}
			if inst.Version != tt.wantVersion {
				t.Errorf("Version = %v, want %v", inst.Version, tt.wantVersion)
			}
			if inst.DiscoveredAt.IsZero() {
				t.Error("DiscoveredAt should be set")
			}
		})
	}
}

func TestParseTXT(t *testing.T) {
	got := ParseTXT([]string{"device=/dev/video0", "flag", "expr=a=b"})

	want := map[string]string{"device": "/dev/video0", "flag": "", "expr": "a=b"}
	if len(got) != len(want) {
		t.Fatalf("ParseTXT() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ParseTXT()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestTXTRecords(t *testing.T) {
	meta := ParseTXT(TXTRecords("/dev/video1", "dev"))
	if meta[TXTDevice] != "/dev/video1" || meta[TXTVersion] != "dev" {
		t.Errorf("TXTRecords() round trip = %v", meta)
	}
}

func TestInstanceURLs(t *testing.T) {
	inst := &Instance{Name: "bench", IP: "192.168.1.20", Port: 8740}
	if got := inst.BaseURL(); got != "http://192.168.1.20:8740" {
		t.Errorf("BaseURL() = %v", got)
	}

	v6 := &Instance{Name: "bench", IP: "fe80::1", Port: 8740}
	if got := v6.Address(); got != "[fe80::1]:8740" {
		t.Errorf("Address() = %v", got)
	}

	if inst.GetMetadata("device") != "" {
		t.Error("GetMetadata() on nil metadata should be empty")
	}
}

func TestAdvertiseValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := Advertise(ctx, "", 8740, nil); err == nil {
		t.Error("empty instance name should fail")
	}
	if _, err := Advertise(ctx, "bench", 0, nil); err == nil {
		t.Error("port 0 should fail")
	}
}

func TestNewScanner(t *testing.T) {
	s := NewScanner()
	if s.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", s.Timeout, DefaultScanTimeout)
	}

	if s.Timeout > 10*time.Second {
		t.Error("default scan should stay short for interactive use")
	}
}
