package config

import "errors"

// Configuration validation errors, returned by the Validate methods.
// Callers match them with errors.Is.
var (
	// ErrNoInput is returned when generate is run without an input file.
	ErrNoInput = errors.New("no input specified: provide one or more credential files")

	// ErrInvalidFormat is returned for an output format the report package cannot write.
	ErrInvalidFormat = errors.New("invalid format: must be one of pdf, markdown, json, text")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxConnections is returned when the connection cap is not positive.
	ErrInvalidMaxConnections = errors.New("invalid max connections: must be positive")

	// ErrInvalidMaxBodyBytes is returned when the request body cap is not positive.
	ErrInvalidMaxBodyBytes = errors.New("invalid max body size: must be positive")

	// ErrInvalidShutdownTimeout is returned when the shutdown timeout is negative.
	ErrInvalidShutdownTimeout = errors.New("invalid shutdown timeout: must be non-negative")

	// ErrNoDBDir is returned when history is enabled without a database directory.
	ErrNoDBDir = errors.New("history is enabled but no database directory is set")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrOutputFileWithManyInputs is returned when --output names a single
	// file but several inputs were given.
	ErrOutputFileWithManyInputs = errors.New("--output cannot be used with more than one input; use --output-dir")

	// ErrNoListenAddr is returned when the server has no bind address.
	ErrNoListenAddr = errors.New("no listen address specified")

	// ErrProfileNotFound is returned when the requested profile is not in the config file.
	ErrProfileNotFound = errors.New("profile not found in configuration file")

	// ErrInvalidEnv is returned when a CREDSHEET_* variable cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")
)
