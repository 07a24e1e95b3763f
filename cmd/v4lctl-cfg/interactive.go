package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uavconcept/v4lctl/internal/api"
	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/backend"
	"github.com/uavconcept/v4lctl/internal/config"
	"github.com/uavconcept/v4lctl/internal/console"
	"github.com/uavconcept/v4lctl/internal/discovery"
	"github.com/uavconcept/v4lctl/internal/engine"
	"github.com/uavconcept/v4lctl/internal/logging"
	"github.com/uavconcept/v4lctl/internal/tui"
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(consoleCmd)
}

// dashboardCmd launches the interactive TUI
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Launch the interactive attribute dashboard",
	Long: `Launch an interactive TUI for the card's attributes.

The dashboard provides:
- Discovering daemons on the network
- Viewing the current configuration next to the defaults
- Staging edits and applying them in one reconcile
- Live updates when other clients change the configuration

This is the recommended way to tune a card by eye.`,
	Example: `  # Launch with discovery
  v4lctl-cfg dashboard
  # Or simply (dashboard is default):
  v4lctl-cfg

  # Launch for a specific daemon
  v4lctl-cfg dashboard --server capture-pc:8740

  # Drive the local card without a daemon
  v4lctl-cfg --local --device /dev/video1`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	settings, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var program *tea.Program

	// watch forwards revisions pushed for t to the program. It must not be
	// called before program is set.
	watch := func(t *target) {
		switch {
		case t.Client != nil:
			go func() {
				err := t.Client.Watch(ctx, func(f api.Frame) {
					program.Send(tui.RevisionMsg{Config: f.Config})
				})
				if err != nil {
					logging.Warn("revision watch ended", zap.Error(err))
				}
			}()
		case t.Engine != nil:
			unsubscribe := t.Engine.Subscribe(func(current attr.Revision, _ []engine.Change) {
				go program.Send(tui.RevisionMsg{Config: current.Document()})
			})
			go func() {
				<-ctx.Done()
				unsubscribe()
			}()
		}
	}

	var (
		model  tea.Model
		direct *target
	)
	if local || settings.Client.Server != "" {
		direct, err = resolveTarget(ctx, settings)
		if err != nil {
			return err
		}
		model = tui.NewDashboardApp(direct.Backend, direct.Label)
	} else {
		registry, err := config.LoadRegistry()
		if err != nil {
			logging.Warn("could not load server registry", zap.Error(err))
			registry = config.NewRegistry()
		}

		scan := func(ctx context.Context) ([]*discovery.Instance, error) {
			instances, err := discovery.QuickScan(ctx, settings.Client.DiscoverTimeout)
			if err == nil {
				rememberInstances(registry, instances)
			}
			return instances, err
		}
		connectTo := func(inst *discovery.Instance) (backend.Backend, string) {
			c := newClient(settings, inst.Address())
			t := &target{Backend: c, Label: inst.Name + " (" + inst.Address() + ")", Client: c}
			watch(t)
			return t.Backend, t.Label
		}
		model = tui.NewDiscoveryApp(scan, connectTo)
	}

	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if direct != nil {
		watch(direct)
	}
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}

// consoleCmd runs the line console
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start an interactive command console",
	Long: `Start a line console with get, set, show, apply and defaults.

Attribute names with spaces are quoted as in a shell. Tab completes commands
and attribute keys.`,
	Example: `  v4lctl-cfg console --server capture-pc:8740
  v4lctl-cfg console --local`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	settings, err := setup()
	if err != nil {
		return err
	}

	t, err := resolveTarget(ctx, settings)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Connected to %s\n", t.Label)
	return console.New(t.Backend).Run(ctx)
}
