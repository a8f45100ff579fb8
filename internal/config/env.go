package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is the prefix of every environment variable read by credsheet.
const EnvPrefix = "CREDSHEET_"

// LoadDotEnv reads KEY=VALUE pairs from the given files (".env" when none
// are given) into the process environment. Variables already set are left
// alone. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides c with CREDSHEET_* variables from the process environment.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

// applyEnv overrides c with variables found through lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	str("ORGANIZATION", &c.OrganizationName)
	str("FORMAT", &c.Format)
	str("OUTPUT_DIR", &c.OutputDir)
	str("TITLE", &c.Title)
	str("DB_DIR", &c.DBDir)
	str("LISTEN_ADDR", &c.ListenAddr)
	str("LOG_FORMAT", &c.LogFormat)
	str("PROFILE", &c.Profile)

	bools := []struct {
		name string
		dst  *bool
	}{
		{"COMPRESS", &c.Compress},
		{"FILL_PASSWORDS", &c.FillPasswords},
		{"STRICT", &c.Strict},
		{"HIDE_PASSWORDS", &c.HidePasswords},
		{"SAVE_HISTORY", &c.SaveHistory},
		{"VERBOSE", &c.Verbose},
	}
	for _, b := range bools {
		v, ok := lookup(EnvPrefix + b.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrInvalidEnv, EnvPrefix, b.name, v)
		}
		*b.dst = parsed
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"CONCURRENCY", &c.Concurrency},
		{"MAX_CONNECTIONS", &c.MaxConnections},
	}
	for _, n := range ints {
		v, ok := lookup(EnvPrefix + n.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrInvalidEnv, EnvPrefix, n.name, v)
		}
		*n.dst = parsed
	}

	if v, ok := lookup(EnvPrefix + "MAX_BODY_BYTES"); ok && v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sMAX_BODY_BYTES=%q", ErrInvalidEnv, EnvPrefix, v)
		}
		c.MaxBodyBytes = parsed
	}

	if v, ok := lookup(EnvPrefix + "SHUTDOWN_TIMEOUT"); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sSHUTDOWN_TIMEOUT=%q", ErrInvalidEnv, EnvPrefix, v)
		}
		c.ShutdownTimeout = parsed
	}

	return nil
}
