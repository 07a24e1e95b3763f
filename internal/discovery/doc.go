// Package discovery advertises and finds v4lctl bridge daemons with mDNS.
//
// v4lctld registers a "_v4lctl._tcp" service carrying TXT records with the
// video device it drives and its version:
//
//	device=/dev/video0
//	version=1.2.0
//
// v4lctl-cfg browses for the same service type when no --server is given.
//
// # Usage Example
//
//	ad, err := discovery.Advertise(ctx, "bench", 8740, discovery.TXTRecords("/dev/video0", version.Version))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ad.Shutdown()
//
//	instances, err := discovery.NewScanner().Scan(ctx)
//	for _, inst := range instances {
//	    fmt.Println(inst.Name, inst.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Daemons must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
