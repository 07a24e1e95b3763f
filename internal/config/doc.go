// Package config loads the settings shared by v4lctld and v4lctl-cfg and
// keeps the registry of known bridge daemons.
//
// # Settings
//
// Settings are layered with viper, lowest precedence first:
//
//  1. built-in defaults (DefaultSettings)
//  2. the YAML config file
//  3. V4LCTL_* environment variables (V4LCTL_DEVICE, V4LCTL_SERVER_LISTEN, ...)
//  4. command-line flags bound by the cmd packages
//
// # File Locations
//
//   - $V4LCTL_CONFIG_DIR when set
//   - Linux, macOS: $XDG_CONFIG_HOME/v4lctl or $HOME/.config/v4lctl
//   - Windows: %LOCALAPPDATA%\v4lctl
//
// The directory holds config.yaml (settings) and servers.yaml (daemons seen
// by discovery, written by v4lctl-cfg).
//
// # Usage Example
//
//	v := viper.New()
//	settings, err := config.Load(v, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(settings.Device)
package config
