package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/careernest/credsheet/internal/config"
	"github.com/careernest/credsheet/internal/log"
	"github.com/careernest/credsheet/internal/report"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for credsheet.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credsheet",
		Short: "Render student login credentials into a confidential handout",
		Long: `credsheet turns bulk-created student credential records into a
confidential, paginated PDF handout that an organization can print or
distribute to its students.

Records are read from JSON, CSV or YAML files. Markdown, JSON and plain
text output are available for review. Every generated document is recorded
in a local history database (metadata only, never passwords).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .credsheet in current or home directory)")
	cmd.PersistentFlags().StringP("profile", "P", "",
		"Configuration profile to apply")
	cmd.PersistentFlags().String("log-format", config.DefaultLogFormat,
		"Log format: text or json")

	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the configuration in increasing precedence: defaults,
// configuration file and profile, CREDSHEET_* environment (.env included),
// then the global flags. Command flags are applied by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.Profile, err = cmd.Flags().GetString("profile")
	if err != nil {
		return nil, err
	}
	if cfg.Profile == "" {
		cfg.Profile = os.Getenv(config.EnvPrefix + "PROFILE")
	}

	if _, err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if err := overrideBool(cmd, "verbose", &cfg.Verbose); err != nil {
		return nil, err
	}
	if err := overrideString(cmd, "log-format", &cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overrideString sets dst from the flag only when the user passed it.
func overrideString(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func overrideBool(cmd *cobra.Command, name string, dst *bool) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func overrideInt(cmd *cobra.Command, name string, dst *int) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// setupLogger creates the masking logger and makes it the default.
func setupLogger(cfg *config.Config) *slog.Logger {
	logger := log.New(os.Stderr, cfg.LogFormat, cfg.Verbose)
	slog.SetDefault(logger)
	return logger
}

// newGenerator creates the PDF generator for cfg.
func newGenerator(cfg *config.Config, logger *slog.Logger) *report.Generator {
	return report.NewGenerator(
		report.WithCompression(cfg.Compress),
		report.WithTitle(cfg.Title),
		report.WithGeneratorLogger(logger),
	)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
