package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides (V4LCTL_DEVICE, ...).
const EnvPrefix = "V4LCTL"

// Viper keys. Nested keys map to V4LCTL_SERVER_LISTEN etc.
const (
	KeyDevice    = "device"
	KeyTool      = "tool"
	KeyTimeout   = "timeout"
	KeySnapshot  = "snapshot"
	KeySchema    = "schema"
	KeyLogLevel  = "log_level"
	KeyListen    = "server.listen"
	KeyAdvertise = "server.advertise"
	KeyInstance  = "server.instance"
	KeyServer    = "client.server"
	KeyDiscover  = "client.discover_timeout"
	KeyRetries   = "client.retries"
)

// Defaults
const (
	DefaultDevice          = "/dev/video0"
	DefaultTool            = "v4lctl"
	DefaultListen          = ":8740"
	DefaultDiscoverTimeout = 3 * time.Second
	DefaultRetries         = 3
)

// Settings is the merged configuration of both binaries.
type Settings struct {
	Device   string         `mapstructure:"device"    yaml:"device"`
	Tool     string         `mapstructure:"tool"      yaml:"tool"`
	Timeout  time.Duration  `mapstructure:"timeout"   yaml:"timeout"`
	Snapshot string         `mapstructure:"snapshot"  yaml:"snapshot"`
	Schema   string         `mapstructure:"schema"    yaml:"schema"`
	LogLevel string         `mapstructure:"log_level" yaml:"log_level"`
	Server   ServerSettings `mapstructure:"server"    yaml:"server"`
	Client   ClientSettings `mapstructure:"client"    yaml:"client"`
}

// ServerSettings configures the v4lctld HTTP listener.
type ServerSettings struct {
	Listen    string `mapstructure:"listen"    yaml:"listen"`
	Advertise bool   `mapstructure:"advertise" yaml:"advertise"`
	Instance  string `mapstructure:"instance"  yaml:"instance"` // mDNS instance name, hostname when empty
}

// ClientSettings configures v4lctl-cfg.
type ClientSettings struct {
	Server          string        `mapstructure:"server"           yaml:"server"` // base URL, discovered when empty
	DiscoverTimeout time.Duration `mapstructure:"discover_timeout" yaml:"discover_timeout"`
	Retries         int           `mapstructure:"retries"          yaml:"retries"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() *Settings {
	return &Settings{
		Device: DefaultDevice,
		Tool:   DefaultTool,
		Server: ServerSettings{
			Listen:    DefaultListen,
			Advertise: true,
		},
		Client: ClientSettings{
			DiscoverTimeout: DefaultDiscoverTimeout,
			Retries:         DefaultRetries,
		},
	}
}

// SetDefaults registers every key with its default so that environment
// variables are honoured by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault(KeyDevice, d.Device)
	v.SetDefault(KeyTool, d.Tool)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeySnapshot, d.Snapshot)
	v.SetDefault(KeySchema, d.Schema)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyListen, d.Server.Listen)
	v.SetDefault(KeyAdvertise, d.Server.Advertise)
	v.SetDefault(KeyInstance, d.Server.Instance)
	v.SetDefault(KeyServer, d.Client.Server)
	v.SetDefault(KeyDiscover, d.Client.DiscoverTimeout)
	v.SetDefault(KeyRetries, d.Client.Retries)
}

// Load merges defaults, the config file, the environment and whatever flags
// were bound to v. An empty configPath uses GetConfigPath; a missing default
// file is not an error, a missing explicit file is.
func Load(v *viper.Viper, configPath string) (*Settings, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	explicit := configPath != ""
	if !explicit {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		configPath = p
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings for values that cannot work.
func (s *Settings) Validate() error {
	if s.Device == "" {
		return fmt.Errorf("device must not be empty")
	}
	if s.Tool == "" {
		return fmt.Errorf("tool must not be empty")
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", s.Timeout)
	}
	if s.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if s.Client.DiscoverTimeout < 0 {
		return fmt.Errorf("client.discover_timeout must not be negative: %s", s.Client.DiscoverTimeout)
	}
	if s.Client.Retries < 0 {
		return fmt.Errorf("client.retries must not be negative: %d", s.Client.Retries)
	}
	if s.LogLevel != "" {
		if _, err := zapcore.ParseLevel(s.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level %q: %w", s.LogLevel, err)
		}
	}
	return nil
}

// Save writes the settings as YAML to path atomically.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# v4lctl configuration
# Environment variables (V4LCTL_*) and command-line flags override these values.
#
# Location: ` + path + `

`)
	return writeAtomic(path, append(header, data...))
}
