package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/uavconcept/v4lctl/internal/backend"
	"github.com/uavconcept/v4lctl/internal/client"
	"github.com/uavconcept/v4lctl/internal/console"
	"github.com/uavconcept/v4lctl/internal/ui"
)

// requestTimeout bounds one-shot commands
const requestTimeout = 30 * time.Second

// Command flags
var (
	outputFormat string
	assumeYes    bool
)

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(defaultsCmd)

	showCmd.Flags().StringVarP(&outputFormat, "format", "f", backend.FormatNameDetailed, "Output format (detailed, compact, json)")
	defaultsCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
}

// connect resolves the target for a one-shot command
func connect(ctx context.Context) (*target, *ui.Printer, error) {
	settings, err := setup()
	if err != nil {
		return nil, nil, err
	}
	t, err := resolveTarget(ctx, settings)
	if err != nil {
		return nil, nil, err
	}
	return t, ui.NewPrinter(os.Stdout), nil
}

// fail prints err in a failure box and returns it for cobra's exit status.
func fail(p *ui.Printer, title string, err error) error {
	if !client.IsNetworkError(err) && client.StatusCode(err) == 0 {
		p.PrintError(title, err, nil)
		return err
	}

	p.PrintError(title, errors.New(client.ShortMessage(err)), client.Hints(err))
	return err
}

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Read an attribute from the card",
	Long: `Read the current value of a v4lctl attribute from the card.

The value is the raw token printed by 'v4lctl show', e.g. 32768 for bright.
An empty result means v4lctl could not be run or does not know the attribute.`,
	Example: `  v4lctl-cfg get bright
  v4lctl-cfg get "UV Ratio" --server capture-pc:8740`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	t, p, err := connect(ctx)
	if err != nil {
		return err
	}

	value, err := t.Backend.Get(ctx, args[0])
	if err != nil {
		return fail(p, "Read failed", err)
	}
	if value == "" {
		p.PrintWarning("No value", map[string]string{
			"Attribute": args[0],
			"Target":    t.Label,
		})
		return nil
	}

	fmt.Println(value)
	return nil
}

var setCmd = &cobra.Command{
	Use:   "set <command...> <value>",
	Short: "Run a raw v4lctl write",
	Long: `Run a v4lctl write command with a value, bypassing the reconcile.

The command words are passed as given, so attributes with spaces need
quoting. Percent attributes take a percent value ("70%"). The write is
recorded in the daemon's snapshot but the daemon's current configuration is
not changed; use 'apply' for that.`,
	Example: `  v4lctl-cfg set bright 70%
  v4lctl-cfg set setnorm NTSC
  v4lctl-cfg set setattr "UV Ratio" 60%`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	t, p, err := connect(ctx)
	if err != nil {
		return err
	}

	command := console.QuoteCommand(args[:len(args)-1])
	value := args[len(args)-1]

	ok, err := t.Backend.Set(ctx, command, value)
	if err != nil {
		return fail(p, "Write failed", err)
	}
	if !ok {
		return fail(p, "Write failed", fmt.Errorf("v4lctl %s %s could not be run", command, value))
	}

	p.PrintSuccess("Write issued", map[string]string{
		"Command": command,
		"Value":   value,
		"Target":  t.Label,
	})
	return nil
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Long: `Display the configuration the engine holds for the card.

Values marked with '*' differ from the schema default.`,
	Example: `  # Show config with auto-discovery
  v4lctl-cfg show

  # Compact key=value output, suitable for 'apply'
  v4lctl-cfg show --format compact

  # JSON output for scripting
  v4lctl-cfg show --server capture-pc:8740 --format json`,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	if !backend.ValidFormat(outputFormat) {
		return fmt.Errorf("unknown format %q (detailed, compact, json)", outputFormat)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	t, p, err := connect(ctx)
	if err != nil {
		return err
	}

	rev, err := t.Backend.Current(ctx)
	if err != nil {
		return fail(p, "Failed to get configuration", err)
	}

	switch outputFormat {
	case backend.FormatNameCompact:
		fmt.Print(backend.FormatCompact(rev))
	case backend.FormatNameJSON:
		data, err := json.MarshalIndent(rev.Document(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	default:
		fmt.Print(backend.FormatDetailed(rev))
	}
	return nil
}

var applyCmd = &cobra.Command{
	Use:   "apply <key=value>...",
	Short: "Change attributes through the reconcile",
	Long: `Merge key=value pairs into the current configuration and write every
attribute whose value changed, in schema order.

Keys are schema keys (UV_Ratio) or v4lctl names ("UV Ratio"). Percent values
are given without the percent sign. All values are validated before anything
is written.`,
	Example: `  v4lctl-cfg apply bright=60 contrast=45
  v4lctl-cfg apply input=Composite1 norm=NTSC
  v4lctl-cfg apply mute=on`,
	Args: cobra.MinimumNArgs(1),
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	doc, err := console.ParseAssignments(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	t, p, err := connect(ctx)
	if err != nil {
		return err
	}

	before, err := t.Backend.Current(ctx)
	if err != nil {
		return fail(p, "Failed to get configuration", err)
	}

	after, changes, err := t.Backend.Apply(ctx, doc)
	if err != nil {
		return fail(p, "Apply failed", err)
	}

	p.PrintDiff(before, after)
	p.Newline()
	p.PrintChanges("Configuration applied", changes)
	return nil
}

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Reset every attribute to its default",
	Long: `Reconcile the card to the schema defaults. Only attributes whose current
value differs from the default are written.`,
	Example: `  v4lctl-cfg defaults
  v4lctl-cfg defaults --yes --server capture-pc:8740`,
	Args: cobra.NoArgs,
	RunE: runDefaults,
}

func runDefaults(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	t, p, err := connect(ctx)
	if err != nil {
		return err
	}

	if !assumeYes && !ui.ConfirmDefaults(os.Stdin, os.Stdout, t.Label) {
		return nil
	}

	_, changes, err := t.Backend.Defaults(ctx)
	if err != nil {
		return fail(p, "Restore defaults failed", err)
	}

	p.PrintChanges("Defaults restored", changes)
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon health",
	Long:  `Report the version, device, schema model and open watchers of a daemon.`,
	Example: `  v4lctl-cfg status
  v4lctl-cfg status --server capture-pc:8740`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	t, p, err := connect(ctx)
	if err != nil {
		return err
	}

	if t.Client == nil {
		schema, err := t.Backend.Schema(ctx)
		if err != nil {
			return fail(p, "Status failed", err)
		}
		p.PrintSuccess("Local engine", map[string]string{
			"Target": t.Label,
			"Model":  schema.Model(),
		})
		return nil
	}

	health, err := t.Client.Health(ctx)
	if err != nil {
		return fail(p, "Daemon unreachable", err)
	}

	p.PrintSuccess("Daemon "+health.Status, map[string]string{
		"Target":   t.Label,
		"Version":  health.Version,
		"Device":   health.Device,
		"Model":    health.Model,
		"Watchers": fmt.Sprintf("%d", health.Clients),
	})
	return nil
}
