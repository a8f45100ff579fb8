package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/careernest/credsheet/internal/config"
	"github.com/careernest/credsheet/internal/database"
	"github.com/careernest/credsheet/internal/model"
	"github.com/careernest/credsheet/internal/pipeline"
	"github.com/careernest/credsheet/internal/report"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [input-file...]",
		Short: "Render credential files into handouts",
		Long: `Generate reads student credential records and renders a confidential
handout for each input file.

Input files may be JSON (an array of records, or an object with
"organizationName" and "students"), CSV with a header row, or YAML in the
same shapes as JSON. The format is chosen by file extension.

Records without a password keep an empty password cell. With
--fill-passwords they get the default "<roll number>@CN" instead. Validation problems (malformed email,
missing or duplicate roll number) are reported as warnings; --strict turns
them into errors.

Examples:
  # Render a PDF next to the input file
  credsheet generate students.csv

  # Render several inputs into one directory, 8 at a time
  credsheet generate -d out -j 8 batch1.json batch2.json batch3.json

  # Write a Markdown review copy to a specific file
  credsheet generate -f markdown -o review.md students.yaml

  # Use the organization settings of a profile from .credsheet
  credsheet generate -P springfield students.csv`,
		Args: cobra.ArbitraryArgs,
		RunE: runGenerateCmd,
	}

	// Sheet flags
	cmd.Flags().StringP("organization", "O", "",
		"Organization name printed on the sheet (overrides the input file)")
	cmd.Flags().String("title", "",
		"PDF document title")
	cmd.Flags().Bool("fill-passwords", false,
		"Assign \"<roll number>@CN\" to records without a password")
	cmd.Flags().Bool("strict", false,
		"Fail inputs whose records have validation issues")

	// Output flags
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Output format: pdf, markdown, json or text")
	cmd.Flags().StringP("output", "o", "",
		"Output file path (single input only)")
	cmd.Flags().StringP("output-dir", "d", "",
		"Output directory (default: the directory of each input)")
	cmd.Flags().Bool("compress", true,
		"Compress PDF streams")
	cmd.Flags().Bool("hide-passwords", false,
		"Mask passwords in text output")

	// Processing flags
	cmd.Flags().IntP("concurrency", "j", config.DefaultConcurrency,
		"Number of inputs rendered at the same time")
	cmd.Flags().Bool("history", true,
		"Record generated documents in the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runGenerateCmd executes the generate command.
func runGenerateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildGenerateConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateGenerate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	settings := pipeline.Settings{
		Strict:        cfg.Strict,
		FillPasswords: cfg.FillPasswords,
		HidePasswords: cfg.HidePasswords,
		Generator:     newGenerator(cfg, logger),
		Logger:        logger,
	}

	if cfg.SaveHistory {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		settings.History = db
		logger.Debug("database opened", "path", db.Path())
	}

	jobs := buildJobs(cfg)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline { return pipeline.NewGenerationPipeline(settings) },
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	out := cmd.OutOrStdout()
	p := message.NewPrinter(language.English)
	startTime := time.Now()

	// Results are printed as jobs finish.
	var mu sync.Mutex
	err = bp.ProcessBatchWithCallback(ctx, jobs, func(job *model.Job, index int) {
		mu.Lock()
		defer mu.Unlock()
		printJobResult(out, p, job, index, len(jobs))
	})

	summary := pipeline.Summarize(jobs)
	p.Fprintf(out, "\n%d succeeded, %d failed: %d students on %d pages (%s)\n",
		summary.Succeeded, summary.Failed, summary.Records, summary.Pages,
		time.Since(startTime).Round(time.Millisecond))

	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", summary.Failed, len(jobs))
	}
	return nil
}

// buildGenerateConfig creates a Config from the configuration sources and
// the generate flags.
func buildGenerateConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	for name, dst := range map[string]*string{
		"organization": &cfg.OrganizationName,
		"title":        &cfg.Title,
		"format":       &cfg.Format,
		"output":       &cfg.OutputFile,
		"output-dir":   &cfg.OutputDir,
		"db-dir":       &cfg.DBDir,
	} {
		if err := overrideString(cmd, name, dst); err != nil {
			return nil, err
		}
	}
	for name, dst := range map[string]*bool{
		"fill-passwords": &cfg.FillPasswords,
		"strict":         &cfg.Strict,
		"compress":       &cfg.Compress,
		"hide-passwords": &cfg.HidePasswords,
		"history":        &cfg.SaveHistory,
	} {
		if err := overrideBool(cmd, name, dst); err != nil {
			return nil, err
		}
	}
	if err := overrideInt(cmd, "concurrency", &cfg.Concurrency); err != nil {
		return nil, err
	}

	cfg.Format = strings.ToLower(cfg.Format)
	cfg.Inputs = args
	return cfg, nil
}

// buildJobs creates one job per input file.
func buildJobs(cfg *config.Config) []*model.Job {
	jobs := make([]*model.Job, len(cfg.Inputs))
	for i, input := range cfg.Inputs {
		job := model.NewJob(filepath.Base(input), input, outputPath(cfg, input), cfg.Format)
		job.OrganizationName = cfg.OrganizationName
		jobs[i] = job
	}
	return jobs
}

// outputPath returns where the document for input is written:
// the explicit output file, or "<input name>-credentials<ext>" in the
// output directory (the input's directory when unset).
func outputPath(cfg *config.Config, input string) string {
	if cfg.OutputFile != "" {
		return cfg.OutputFile
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name := base + "-credentials" + report.FileExtension(cfg.Format)

	dir := cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name)
}

// printJobResult prints one line per finished job.
func printJobResult(out io.Writer, p *message.Printer, job *model.Job, index, total int) {
	if job.Failed() {
		p.Fprintf(out, "[%d/%d] %s: failed: %v\n", index+1, total, job.Name, job.Error)
		return
	}

	students := 0
	if job.Sheet != nil {
		students = job.Sheet.Len()
	}
	p.Fprintf(out, "[%d/%d] %s -> %s (%d students", index+1, total, job.Name, job.OutputPath, students)
	if job.PageCount > 0 {
		p.Fprintf(out, ", %d pages", job.PageCount)
	}
	if len(job.Issues) > 0 {
		p.Fprintf(out, ", %d issues", len(job.Issues))
	}
	fmt.Fprintln(out, ")")
}
