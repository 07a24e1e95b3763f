// V4lctld is the v4lctl parameter bridge daemon.
//
// It owns one bttv capture device, replays the persisted snapshot at
// startup, keeps the engine's revision in sync with the card and serves the
// HTTP/WebSocket API that v4lctl-cfg talks to. The snapshot is flushed on
// shutdown.
//
// Usage:
//
//	v4lctld serve [flags]
//	v4lctld probe [flags]
//
// See 'v4lctld serve --help' for available options.
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

// v holds the settings layering for every command
var v = viper.New()

var configPath string

var rootCmd = &cobra.Command{
	Use:   "v4lctld",
	Short: "v4lctl parameter bridge daemon",
	Long: `A daemon that bridges the bttv parameter set exposed by v4lctl to an
HTTP/WebSocket API.

Configuration is read from the config file, V4LCTL_* environment variables and
command-line flags, in increasing order of precedence.

Note: For interactive configuration, use the separate 'v4lctl-cfg' utility.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/v4lctl/config.yaml)")
	flags.String("device", "", "Video device passed to v4lctl -c")
	flags.String("tool", "", "Path to the v4lctl binary")
	flags.Duration("timeout", 0, "Timeout of one v4lctl invocation (0 = none)")
	flags.String("schema", "", "Attribute schema file (built-in Osprey 440 schema when empty)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")

	mustBind("device", flags.Lookup("device"))
	mustBind("tool", flags.Lookup("tool"))
	mustBind("timeout", flags.Lookup("timeout"))
	mustBind("schema", flags.Lookup("schema"))
	mustBind("log_level", flags.Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("v4lctld %s\n", version.Full())
	},
}
