package config

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "credsheet"

	// DefaultFormat is the output format when none is given.
	DefaultFormat = "pdf"

	// DefaultConcurrency is the number of input files rendered at once by
	// the generate command.
	DefaultConcurrency = 4

	// DefaultListenAddr is the address the HTTP server binds to.
	DefaultListenAddr = "127.0.0.1:8080"

	// DefaultMaxConnections caps simultaneous connections to the server.
	// Rendering is CPU bound, so a small number keeps latency predictable.
	DefaultMaxConnections = 64

	// DefaultMaxBodyBytes limits request bodies to 8MB, which is far more
	// than a sheet of a few thousand students needs.
	DefaultMaxBodyBytes = 8 * 1024 * 1024

	// DefaultShutdownTimeout is how long the server waits for in-flight
	// requests when stopping.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultLogFormat is the log output format.
	DefaultLogFormat = "text"
)

// supportedFormats mirrors the formats the report package can write.
var supportedFormats = []string{"pdf", "markdown", "md", "json", "text", "txt"}

// Config holds all configuration options for credsheet.
// It is populated once per command and passed down explicitly.
type Config struct {
	// OrganizationName is printed on every sheet. Empty means the input
	// file's own organization, or "Organization" when that is blank too.
	OrganizationName string

	// Format is the output format: pdf, markdown, json or text.
	Format string

	// OutputFile is the destination for a single input. When empty the
	// output is named after the input and placed in OutputDir.
	OutputFile string

	// OutputDir is the directory for generated files. Empty means the
	// directory of each input file.
	OutputDir string

	// Title overrides the PDF document title metadata.
	Title string

	// Compress enables PDF stream compression.
	Compress bool

	// FillPasswords sets "{roll}@CN" on records that have a roll number
	// but no password.
	FillPasswords bool

	// Strict aborts a job when validation reports issues. When false the
	// issues are logged and the sheet is rendered anyway.
	Strict bool

	// HidePasswords masks passwords in text output.
	HidePasswords bool

	// Concurrency is the number of inputs processed at the same time.
	Concurrency int

	// DBDir is the directory holding the history database.
	DBDir string

	// SaveHistory records each generated document in the history database.
	SaveHistory bool

	// ListenAddr is the HTTP server bind address.
	ListenAddr string

	// MaxConnections caps simultaneous server connections.
	MaxConnections int

	// MaxBodyBytes caps the size of a request body.
	MaxBodyBytes int64

	// ShutdownTimeout bounds graceful shutdown of the server.
	ShutdownTimeout time.Duration

	// LogFormat is "text" or "json".
	LogFormat string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit configuration file. If empty, the
	// .credsheet file is searched for in the current and home directories.
	ConfigFilePath string

	// Profile names the profile of the configuration file to apply.
	Profile string

	// Inputs are the credential files to render.
	Inputs []string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Format:          DefaultFormat,
		Compress:        true,
		FillPasswords:   false,
		Concurrency:     DefaultConcurrency,
		DBDir:           XDGDataDir(),
		SaveHistory:     true,
		ListenAddr:      DefaultListenAddr,
		MaxConnections:  DefaultMaxConnections,
		MaxBodyBytes:    DefaultMaxBodyBytes,
		ShutdownTimeout: DefaultShutdownTimeout,
		LogFormat:       DefaultLogFormat,
	}
}

// XDGDataDir returns the XDG data directory for credsheet.
// On Linux: ~/.local/share/credsheet
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for credsheet.
// On Linux: ~/.config/credsheet
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyProfile copies the non-empty fields of p onto c.
func (c *Config) ApplyProfile(p Profile) {
	if p.OrganizationName != "" {
		c.OrganizationName = p.OrganizationName
	}
	if p.Format != "" {
		c.Format = p.Format
	}
	if p.OutputDir != "" {
		c.OutputDir = p.OutputDir
	}
	if p.Title != "" {
		c.Title = p.Title
	}
	if p.Compress != nil {
		c.Compress = *p.Compress
	}
	if p.FillPasswords != nil {
		c.FillPasswords = *p.FillPasswords
	}
	if p.Strict != nil {
		c.Strict = *p.Strict
	}
	if p.HidePasswords != nil {
		c.HidePasswords = *p.HidePasswords
	}
}

// Validate checks the settings shared by every command.
// It returns the first problem found.
func (c *Config) Validate() error {
	if !slices.Contains(supportedFormats, strings.ToLower(c.Format)) {
		return ErrInvalidFormat
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxConnections <= 0 {
		return ErrInvalidMaxConnections
	}
	if c.MaxBodyBytes <= 0 {
		return ErrInvalidMaxBodyBytes
	}
	if c.ShutdownTimeout < 0 {
		return ErrInvalidShutdownTimeout
	}
	if c.SaveHistory && c.DBDir == "" {
		return ErrNoDBDir
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return ErrInvalidLogFormat
	}
	return nil
}

// ValidateGenerate runs Validate and the checks specific to generating
// files from inputs.
func (c *Config) ValidateGenerate() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}
	if c.OutputFile != "" && len(c.Inputs) > 1 {
		return ErrOutputFileWithManyInputs
	}
	return nil
}

// ValidateServe runs Validate and the checks specific to the server.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ListenAddr == "" {
		return ErrNoListenAddr
	}
	return nil
}
