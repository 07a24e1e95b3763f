package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/config"
	"github.com/uavconcept/v4lctl/internal/engine"
	"github.com/uavconcept/v4lctl/internal/logging"
	"github.com/uavconcept/v4lctl/internal/server"
	"github.com/uavconcept/v4lctl/internal/snapshot"
	"github.com/uavconcept/v4lctl/internal/v4lctl"
)

func mustBind(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag.Name, err))
	}
}

// serveCmd runs the bridge
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bridge daemon",
	Long: `Start the bridge daemon.

On startup the snapshot is replayed to the card, then every attribute is read
back to form the current configuration. Writes issued through the API are
recorded in the snapshot, which is written back on shutdown.`,
	Example: `  # Serve /dev/video0 on the default port
  v4lctld serve

  # Second card, persistent snapshot, no mDNS
  v4lctld serve --device /dev/video1 --snapshot /var/lib/v4lctl/video1.yaml --advertise=false

  # Debug logging of every v4lctl invocation
  v4lctld serve --log-level debug`,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.String("snapshot", "", "Snapshot file replayed at startup and flushed at shutdown")
	flags.String("listen", "", "HTTP listen address (default :8740)")
	flags.Bool("advertise", true, "Advertise the daemon via mDNS")
	flags.String("instance", "", "mDNS instance name (hostname when empty)")

	mustBind(config.KeySnapshot, flags.Lookup("snapshot"))
	mustBind(config.KeyListen, flags.Lookup("listen"))
	mustBind(config.KeyAdvertise, flags.Lookup("advertise"))
	mustBind(config.KeyInstance, flags.Lookup("instance"))
}

// setup loads settings and initializes logging; the level defaults to info
// for the daemon.
func setup() (*config.Settings, error) {
	settings, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}

	level := settings.LogLevel
	if level == "" {
		level = "info"
	}
	if err := logging.Initialize(level); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return settings, nil
}

func newExecutor(settings *config.Settings) *v4lctl.Executor {
	if _, err := v4lctl.ValidateToolPath(settings.Tool); err != nil {
		// Every read will come back empty and every write false.
		logging.Warn("v4lctl tool not available", zap.String("tool", settings.Tool), zap.Error(err))
	}

	return v4lctl.NewExecutor(v4lctl.Config{
		ToolPath: settings.Tool,
		Device:   settings.Device,
		Timeout:  settings.Timeout,
	}, logging.Named("v4lctl"))
}

func loadSchema(settings *config.Settings) (*attr.Schema, error) {
	if settings.Schema == "" {
		return attr.DefaultSchema(), nil
	}
	schema, err := attr.LoadSchema(settings.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return schema, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := setup()
	if err != nil {
		return err
	}
	defer logging.Sync()

	schema, err := loadSchema(settings)
	if err != nil {
		return err
	}

	tool := newExecutor(settings)
	store := snapshot.NewStore(logging.Named("snapshot"))
	eng := engine.New(tool, schema, store, logging.Named("engine"))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	eng.Restore(ctx, settings.Snapshot)
	eng.Start(ctx)

	srv := server.New(&server.Config{
		Listen:    settings.Server.Listen,
		Advertise: settings.Server.Advertise,
		Instance:  settings.Server.Instance,
		Device:    settings.Device,
	}, eng)

	serveErr := srv.Start(ctx)

	if err := eng.Flush(settings.Snapshot); err != nil {
		logging.Error("snapshot flush failed", zap.String("path", settings.Snapshot), zap.Error(err))
	}

	return serveErr
}

// probeCmd compares the card with the schema
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "List the card's attributes next to the schema",
	Long: `Run 'v4lctl list' on the device and print every attribute the card
reports together with the schema entry it maps to.

Attributes marked '-' in the schema column are not managed by the bridge;
schema entries the card does not report are listed at the end.`,
	Example: `  v4lctld probe --device /dev/video1`,
	RunE:    runProbe,
}

func runProbe(cmd *cobra.Command, args []string) error {
	settings, err := setup()
	if err != nil {
		return err
	}
	defer logging.Sync()

	schema, err := loadSchema(settings)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	listed, err := newExecutor(settings).List(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s on %s (schema: %s)\n\n", settings.Tool, settings.Device, schema.Model())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ATTRIBUTE\tTYPE\tCURRENT\tDEFAULT\tSCHEMA\tCOMMENT")

	seen := make(map[string]bool)
	for _, l := range listed {
		mapped := "-"
		if a, _, ok := schema.Lookup(l.Name); ok {
			mapped = fmt.Sprintf("%s (%s)", a.Key, a.Kind)
			seen[a.Key] = true
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", l.Name, l.Type, l.Current, l.Default, mapped, l.Comment)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	var missing []string
	for _, a := range schema.Attributes() {
		if !seen[a.Key] {
			missing = append(missing, a.Name)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(out, "\nNot reported by the card: %s\n", strings.Join(missing, ", "))
	}
	return nil
}

var writeConfig bool

// configCmd prints or writes the effective settings
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the settings after merging the config file, V4LCTL_* environment
variables and flags. With --write the result is saved to the config file,
which is a convenient way to start one.`,
	Example: `  v4lctld config
  v4lctld config --device /dev/video1 --snapshot /var/lib/v4lctl/video1.yaml --write`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&writeConfig, "write", false, "Save the effective settings to the config file")
	configCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(v, configPath)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))

	if !writeConfig {
		return nil
	}

	path := configPath
	if path == "" {
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}
	if err := settings.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nWritten to %s\n", path)
	return nil
}
