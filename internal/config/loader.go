package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".credsheet"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads defaults and profiles from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cf.Profiles == nil {
		cf.Profiles = make(map[string]Profile)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .credsheet in the current directory
// 3. Look for .credsheet in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Load applies the configuration file and profile to c.
// A missing file is not an error unless c.ConfigFilePath names it
// explicitly. The loaded file is returned, or nil if none was found.
func (c *Config) Load() (*File, error) {
	path := FindConfigFile(c.ConfigFilePath)
	if path == "" {
		if c.ConfigFilePath != "" {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, c.ConfigFilePath)
		}
		if c.Profile != "" {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, c.Profile)
		}
		return nil, nil
	}

	cf, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}

	profile, err := cf.GetProfile(c.Profile)
	if err != nil {
		names := cf.ProfileNames()
		if len(names) == 0 {
			return nil, fmt.Errorf("%w: %s (no profiles defined in %s)", err, c.Profile, path)
		}
		return nil, fmt.Errorf("%w: %s (available: %s)", err, c.Profile, strings.Join(names, ", "))
	}
	c.ApplyProfile(profile)

	return cf, nil
}
