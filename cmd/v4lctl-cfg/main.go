// V4lctl-cfg is the operator utility for the v4lctl parameter bridge.
//
// It reads and writes capture-card attributes through a v4lctld daemon,
// found with --server, the V4LCTL_CLIENT_SERVER variable or mDNS discovery.
// With --local it drives the card directly through v4lctl instead.
//
// Usage:
//
//	v4lctl-cfg [command] [flags]
//
// Running without arguments launches the interactive dashboard.
// See 'v4lctl-cfg --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/uavconcept/v4lctl/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var v = viper.New()

// Global flags
var (
	configPath string
	local      bool
)

var rootCmd = &cobra.Command{
	Use:   "v4lctl-cfg",
	Short: "v4lctl bridge configuration utility",
	Long: `A utility for configuring bttv capture cards through the v4lctl bridge.

Provides daemon discovery, an interactive attribute dashboard, a line console
and direct get/set/apply commands.

If no command is specified, the interactive dashboard will launch automatically.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/v4lctl/config.yaml)")
	flags.StringP("server", "s", "", "Daemon address, host:port or URL (skips discovery)")
	flags.BoolVar(&local, "local", false, "Drive the card directly with v4lctl instead of a daemon")
	flags.String("device", "", "Video device for --local")
	flags.String("tool", "", "Path to the v4lctl binary for --local")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")

	mustBind("client.server", flags.Lookup("server"))
	mustBind("device", flags.Lookup("device"))
	mustBind("tool", flags.Lookup("tool"))
	mustBind("log_level", flags.Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("v4lctl-cfg %s\n", version.Full())
	},
}
