package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uavconcept/v4lctl/internal/config"
	"github.com/uavconcept/v4lctl/internal/discovery"
	"github.com/uavconcept/v4lctl/internal/logging"
	"github.com/uavconcept/v4lctl/internal/ui"
)

var (
	scanTimeout time.Duration
	waitFor     string
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(nameCmd)
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 10*time.Second, "Scan timeout")
	scanCmd.Flags().StringVar(&waitFor, "wait", "", "Wait for the named instance instead of listing everything")
}

// scanCmd discovers daemons on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for v4lctl daemons on the network",
	Long: `Scan for v4lctld instances using mDNS/DNS-SD discovery.

Every daemon found is remembered; when several answer a later auto-discovery,
the one seen last is used.`,
	Example: `  # Scan for 10 seconds (default)
  v4lctl-cfg scan

  # Quick scan
  v4lctl-cfg scan --timeout 3s

  # Block until a daemon that is still booting answers
  v4lctl-cfg scan --wait bench --timeout 60s`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	_, err := setup()
	if err != nil {
		return err
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("DAEMON SCAN", "v4lctl-cfg scan", map[string]string{
		"Service": discovery.ServiceType,
		"Timeout": scanTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout+5*time.Second)
	defer cancel()

	var instances []*discovery.Instance
	if waitFor != "" {
		scanner := discovery.NewScanner()
		scanner.Timeout = scanTimeout
		inst, err := scanner.WaitFor(ctx, waitFor)
		if err != nil {
			return fail(p, "Scan failed", err)
		}
		instances = []*discovery.Instance{inst}
	} else {
		instances, err = discovery.QuickScan(ctx, scanTimeout)
		if err != nil {
			return fail(p, "Scan failed", err)
		}
	}

	if len(instances) == 0 {
		p.PrintError("No daemons found", fmt.Errorf("nothing answered within %s", scanTimeout), []string{
			"Ensure v4lctld is running with --advertise (the default)",
			"Check that multicast is not filtered between the hosts",
			"Try increasing --timeout for slower networks",
			"Use --server to specify an address manually",
		})
		return nil
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		logging.Warn("could not load server registry", zap.Error(err))
		registry = config.NewRegistry()
	}
	rememberInstances(registry, instances)

	p.Println(fmt.Sprintf("Found %d daemon(s):\n", len(instances)))
	for i, inst := range instances {
		name := inst.Name
		if s := registry.GetServer(inst.Name); s != nil && s.Nickname != "" {
			name = fmt.Sprintf("%s (%s)", s.Nickname, inst.Name)
		}
		p.Println(fmt.Sprintf("%d. %s", i+1, name))
		p.Println(fmt.Sprintf("   Address: %s", inst.Address()))
		p.Println(fmt.Sprintf("   Host:    %s", inst.Hostname))
		if inst.Device != "" {
			p.Println(fmt.Sprintf("   Device:  %s", inst.Device))
		}
		if inst.Version != "" {
			p.Println(fmt.Sprintf("   Version: %s", inst.Version))
		}
		p.Newline()
	}

	p.Println("Use 'v4lctl-cfg show --server <address>' to view a configuration")
	p.Println("Use 'v4lctl-cfg dashboard' for interactive configuration")
	return nil
}

// nameCmd sets a nickname for a remembered daemon
var nameCmd = &cobra.Command{
	Use:   "name <instance> <nickname>",
	Short: "Give a discovered daemon a nickname",
	Long: `Store a nickname for an mDNS instance in the server registry. Nicknames are
shown by 'scan' and survive later scans.`,
	Example: `  v4lctl-cfg name capture-pc "bench camera"`,
	Args:    cobra.ExactArgs(2),
	RunE:    runName,
}

func runName(cmd *cobra.Command, args []string) error {
	if _, err := setup(); err != nil {
		return err
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}
	if registry.GetServer(args[0]) == nil {
		return fmt.Errorf("unknown instance %q, run 'v4lctl-cfg scan' first", args[0])
	}

	registry.SetServerNickname(args[0], args[1])
	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}

	fmt.Printf("%s is now %q\n", args[0], args[1])
	return nil
}
