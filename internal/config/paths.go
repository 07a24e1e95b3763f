package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName     = "v4lctl"
	configFile  = "config.yaml"
	serversFile = "servers.yaml"

	// ConfigDirEnvVar overrides the per-user directory outright.
	ConfigDirEnvVar = "V4LCTL_CONFIG_DIR"
)

// GetConfigDir returns the directory holding config.yaml and servers.yaml.
// Resolution order: $V4LCTL_CONFIG_DIR, $XDG_CONFIG_HOME/v4lctl, then
// %LOCALAPPDATA%\v4lctl on Windows and ~/.config/v4lctl elsewhere.
func GetConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnvVar); dir != "" {
		return filepath.Clean(dir), nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" && runtime.GOOS != "windows" {
		return filepath.Join(xdg, appName), nil
	}

	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appName), nil
		}
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			return filepath.Join(profile, "AppData", "Local", appName), nil
		}
		return "", errors.New("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

func pathIn(name string) (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// GetConfigPath returns where config.yaml lives.
func GetConfigPath() (string, error) { return pathIn(configFile) }

// GetServersPath returns where the known-daemon registry lives.
func GetServersPath() (string, error) { return pathIn(serversFile) }

// writeAtomic replaces path via a sibling temp file, creating the directory
// user-only if needed.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to save %s: %w", filepath.Base(path), err)
	}
	return nil
}
