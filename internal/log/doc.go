// Package log builds the slog loggers used by credsheet.
//
// Every logger returned here wraps its output handler in a SecureHandler,
// which masks values that could leak a student's temporary password:
//   - attributes whose key names a secret (password, token, credential, ...)
//   - string values shaped like a default password ("<roll>@CN")
//   - bearer and basic authorization values
//
// Masking applies in verbose mode too, so debug logs can be attached to a
// support ticket without scrubbing them first.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("sheet rendered", "organization", org, "password", rec.Password)
//	// password=***REDACTED***
//	slog.SetDefault(logger)
package log
