package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/backend"
	"github.com/uavconcept/v4lctl/internal/client"
	"github.com/uavconcept/v4lctl/internal/config"
	"github.com/uavconcept/v4lctl/internal/discovery"
	"github.com/uavconcept/v4lctl/internal/engine"
	"github.com/uavconcept/v4lctl/internal/logging"
	"github.com/uavconcept/v4lctl/internal/v4lctl"
)

// errNoServer means neither flags, settings nor discovery named a daemon
var errNoServer = errors.New("no v4lctl daemon found. Use --server to specify one, or --local to drive the card directly")

func mustBind(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag.Name, err))
	}
}

// setup loads settings and initializes logging. The utility is silent
// unless a level is configured.
func setup() (*config.Settings, error) {
	settings, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Initialize(settings.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return settings, nil
}

// target is a resolved backend plus what to call it in output.
type target struct {
	Backend backend.Backend
	Label   string

	// Client is set for daemon targets, Engine for --local.
	Client *client.Client
	Engine *engine.Engine
}

func newClient(settings *config.Settings, address string) *client.Client {
	c := client.New(address)
	c.SetRetry(settings.Client.Retries, c.RetryDelay)
	return c
}

// newLocalTarget builds an engine over the card and adopts its values.
// Writes are recorded in the engine's store only; --local has no snapshot.
func newLocalTarget(ctx context.Context, settings *config.Settings) (*target, error) {
	schema := attr.DefaultSchema()
	if settings.Schema != "" {
		s, err := attr.LoadSchema(settings.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to load schema: %w", err)
		}
		schema = s
	}

	if _, err := v4lctl.ValidateToolPath(settings.Tool); err != nil {
		return nil, err
	}
	tool := v4lctl.NewExecutor(v4lctl.Config{
		ToolPath: settings.Tool,
		Device:   settings.Device,
		Timeout:  settings.Timeout,
	}, logging.Named("v4lctl"))

	eng := engine.New(tool, schema, nil, logging.Named("engine"))
	eng.Start(ctx)

	return &target{
		Backend: backend.NewLocal(eng),
		Label:   "local " + settings.Device,
		Engine:  eng,
	}, nil
}

// resolveTarget picks the backend for non-interactive commands: --local,
// then --server or client.server, then a short mDNS scan. When the scan
// finds several daemons the one used last wins.
func resolveTarget(ctx context.Context, settings *config.Settings) (*target, error) {
	if local {
		return newLocalTarget(ctx, settings)
	}

	if settings.Client.Server != "" {
		c := newClient(settings, settings.Client.Server)
		return &target{Backend: c, Label: c.BaseURL, Client: c}, nil
	}

	logging.Debug("no server configured, scanning", zap.Duration("timeout", settings.Client.DiscoverTimeout))

	instances, err := discovery.QuickScan(ctx, settings.Client.DiscoverTimeout)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	registry, regErr := config.LoadRegistry()
	if regErr != nil {
		logging.Warn("could not load server registry", zap.Error(regErr))
		registry = config.NewRegistry()
	}

	inst, err := pickInstance(instances, registry)
	if err != nil {
		return nil, err
	}

	rememberInstances(registry, instances)

	c := newClient(settings, inst.Address())
	return &target{Backend: c, Label: inst.Name + " (" + inst.Address() + ")", Client: c}, nil
}

// pickInstance chooses among discovered daemons: the only one, or the one
// the registry saw last.
func pickInstance(instances []*discovery.Instance, registry *config.Registry) (*discovery.Instance, error) {
	switch len(instances) {
	case 0:
		return nil, errNoServer
	case 1:
		return instances[0], nil
	}

	if name, _ := registry.MostRecent(); name != "" {
		for _, inst := range instances {
			if inst.Name == name {
				return inst, nil
			}
		}
	}

	names := make([]string, 0, len(instances))
	for _, inst := range instances {
		names = append(names, fmt.Sprintf("%s (%s)", inst.Name, inst.Address()))
	}
	return nil, fmt.Errorf("multiple daemons found: %s. Use --server to specify which one", strings.Join(names, ", "))
}

// rememberInstances records sightings in the registry. Failing to save is
// logged, never fatal.
func rememberInstances(registry *config.Registry, instances []*discovery.Instance) {
	if len(instances) == 0 {
		return
	}
	for _, inst := range instances {
		registry.UpdateServerSeen(inst.Name, inst.Address(), inst.Device, inst.Version)
	}
	if err := registry.Save(); err != nil {
		logging.Warn("could not save server registry", zap.Error(err))
	}
}
