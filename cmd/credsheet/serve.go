package main

import (
	"fmt"

	"github.com/careernest/credsheet/internal/config"
	"github.com/careernest/credsheet/internal/database"
	"github.com/careernest/credsheet/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve credential handouts over HTTP",
		Long: `Serve starts an HTTP server that renders posted credential records.

Endpoints:
  POST /api/v1/credentials/{format}   render pdf, markdown, json or text
  GET  /api/v1/generations            list recorded generations
  GET  /api/v1/generations/{id}       show one generation
  GET  /healthz                       liveness check

The request body is JSON: an array of records, or an object with
"organizationName" and "students". The response is the rendered document
with a Content-Disposition attachment filename.

The server has no authentication. Bind it to a trusted interface.

Examples:
  # Serve on the default address
  credsheet serve

  # Listen on all interfaces with a connection cap
  credsheet serve -l :8080 --max-connections 16`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddr,
		"Listen address")
	cmd.Flags().Int("max-connections", config.DefaultMaxConnections,
		"Maximum simultaneous connections")
	cmd.Flags().Int64("max-body-bytes", config.DefaultMaxBodyBytes,
		"Maximum request body size in bytes")
	cmd.Flags().Duration("shutdown-timeout", config.DefaultShutdownTimeout,
		"Time allowed for in-flight requests on shutdown")
	cmd.Flags().Bool("fill-passwords", false,
		"Assign \"<roll number>@CN\" to records without a password")
	cmd.Flags().Bool("strict", false,
		"Reject requests whose records have validation issues")
	cmd.Flags().Bool("compress", true,
		"Compress PDF streams")
	cmd.Flags().Bool("history", true,
		"Record generated documents in the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	opts := server.Options{
		Addr:            cfg.ListenAddr,
		MaxConnections:  cfg.MaxConnections,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Generator:       newGenerator(cfg, logger),
		FillPasswords:   cfg.FillPasswords,
		Strict:          cfg.Strict,
		Logger:          logger,
	}

	if cfg.SaveHistory {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		opts.History = db
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", cfg.ListenAddr)
	return server.New(opts).Run(ctx)
}

// buildServeConfig creates a Config from the configuration sources and the
// serve flags.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err := overrideString(cmd, "listen", &cfg.ListenAddr); err != nil {
		return nil, err
	}
	if err := overrideString(cmd, "db-dir", &cfg.DBDir); err != nil {
		return nil, err
	}
	if err := overrideInt(cmd, "max-connections", &cfg.MaxConnections); err != nil {
		return nil, err
	}
	for name, dst := range map[string]*bool{
		"fill-passwords": &cfg.FillPasswords,
		"strict":         &cfg.Strict,
		"compress":       &cfg.Compress,
		"history":        &cfg.SaveHistory,
	} {
		if err := overrideBool(cmd, name, dst); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("max-body-bytes") {
		if cfg.MaxBodyBytes, err = cmd.Flags().GetInt64("max-body-bytes"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("shutdown-timeout") {
		if cfg.ShutdownTimeout, err = cmd.Flags().GetDuration("shutdown-timeout"); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
