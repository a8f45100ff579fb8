package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/careernest/credsheet/internal/database"
	"github.com/careernest/credsheet/internal/model"
	"github.com/careernest/credsheet/internal/report"
)

// ErrNoSheet is returned by steps that need records when none were loaded.
var ErrNoSheet = errors.New("job has no credential sheet")

// LoadStep reads the job's input file into a sheet.
type LoadStep struct {
	logger *slog.Logger
}

// NewLoadStep creates a LoadStep.
func NewLoadStep(logger *slog.Logger) *LoadStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadStep{logger: logger}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do loads the input. A sheet already on the job is kept as is apart from
// the organization override.
func (s *LoadStep) Do(_ context.Context, job *model.Job) error {
	if job.Sheet == nil {
		format, err := InputFormat(job.InputPath)
		if err != nil {
			return err
		}

		f, err := os.Open(job.InputPath) //nolint:gosec // input path comes from the user
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()

		org, records, err := DecodeSheet(f, format)
		if err != nil {
			return fmt.Errorf("%s: %w", job.InputPath, err)
		}
		job.Sheet = model.NewCredentialSheet(org, records)

		s.logger.Debug("input loaded",
			"input", job.InputPath,
			"format", format,
			"records", len(records),
		)
	}

	if strings.TrimSpace(job.OrganizationName) != "" {
		job.Sheet.OrganizationName = model.OrganizationOrDefault(job.OrganizationName)
	}
	return nil
}

// ValidateStep checks the records and stores the issues on the job.
// Issues are advisory unless the step is strict.
type ValidateStep struct {
	strict bool
	logger *slog.Logger
}

// NewValidateStep creates a ValidateStep.
func NewValidateStep(strict bool, logger *slog.Logger) *ValidateStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateStep{strict: strict, logger: logger}
}

// Name returns the step name.
func (s *ValidateStep) Name() string {
	return "validate"
}

// Do validates the sheet.
func (s *ValidateStep) Do(_ context.Context, job *model.Job) error {
	if job.Sheet == nil {
		return ErrNoSheet
	}

	job.Issues = model.Validate(job.Sheet.Records)
	for _, issue := range job.Issues {
		s.logger.Warn("invalid record",
			"job", job.Name,
			"row", issue.Row,
			"field", issue.Field,
			"problem", issue.Message,
		)
	}

	if s.strict {
		return job.Issues.Err()
	}
	return nil
}

// FillPasswordStep gives records without a password the default one.
type FillPasswordStep struct {
	logger *slog.Logger
}

// NewFillPasswordStep creates a FillPasswordStep.
func NewFillPasswordStep(logger *slog.Logger) *FillPasswordStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FillPasswordStep{logger: logger}
}

// Name returns the step name.
func (s *FillPasswordStep) Name() string {
	return "fill_passwords"
}

// Do fills default passwords.
func (s *FillPasswordStep) Do(_ context.Context, job *model.Job) error {
	if job.Sheet == nil {
		return ErrNoSheet
	}
	filled := job.Sheet.FillDefaultPasswords()
	s.logger.Debug("default passwords assigned", "job", job.Name, "count", filled)
	return nil
}

// RenderStep renders the sheet in the job's format.
type RenderStep struct {
	generator     *report.Generator
	hidePasswords bool
}

// RenderStepOption configures a RenderStep.
type RenderStepOption func(*RenderStep)

// WithHiddenTextPasswords masks passwords when rendering the text format.
func WithHiddenTextPasswords(hide bool) RenderStepOption {
	return func(s *RenderStep) {
		s.hidePasswords = hide
	}
}

// NewRenderStep creates a RenderStep. A nil generator uses report defaults.
func NewRenderStep(generator *report.Generator, opts ...RenderStepOption) *RenderStep {
	if generator == nil {
		generator = report.NewGenerator()
	}
	s := &RenderStep{generator: generator}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *RenderStep) Name() string {
	return "render"
}

// Do renders the document into job.Document.
func (s *RenderStep) Do(_ context.Context, job *model.Job) error {
	if job.Sheet == nil {
		return ErrNoSheet
	}

	var buf bytes.Buffer
	var w report.Writer
	if s.hidePasswords && isTextFormat(job.Format) {
		w = report.NewSimpleWriter(&buf, report.WithHiddenPasswords(true))
	} else {
		var err error
		w, err = report.NewWriter(job.Format, &buf, s.generator)
		if err != nil {
			return err
		}
	}

	if _, err := w.Write(job.Sheet); err != nil {
		return err
	}

	job.Document = buf.Bytes()
	job.Digest = report.Digest(job.Document)
	if pw, ok := w.(*report.PDFWriter); ok && pw.LastDocument() != nil {
		job.PageCount = pw.LastDocument().PageCount()
	}
	return nil
}

func isTextFormat(format string) bool {
	f := strings.ToLower(format)
	return f == report.FormatText || f == "txt"
}

// WriteFileStep writes the rendered document to job.OutputPath.
type WriteFileStep struct {
	logger *slog.Logger
}

// NewWriteFileStep creates a WriteFileStep.
func NewWriteFileStep(logger *slog.Logger) *WriteFileStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &WriteFileStep{logger: logger}
}

// Name returns the step name.
func (s *WriteFileStep) Name() string {
	return "write_file"
}

// Do writes the file. Credential handouts are written owner-only.
// An empty output path leaves the document in memory.
func (s *WriteFileStep) Do(_ context.Context, job *model.Job) error {
	if job.OutputPath == "" {
		return nil
	}
	if job.Document == nil {
		return errors.New("no rendered document to write")
	}

	if dir := filepath.Dir(job.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(job.OutputPath, job.Document, 0600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	s.logger.Info("document written",
		"job", job.Name,
		"path", job.OutputPath,
		"bytes", len(job.Document),
	)
	return nil
}

// HistoryStore is the part of the history database used by RecordHistoryStep.
type HistoryStore interface {
	SaveGeneration(ctx context.Context, g *database.Generation) error
}

// RecordHistoryStep saves the generation metadata. Record contents are
// not stored.
type RecordHistoryStep struct {
	store HistoryStore
}

// NewRecordHistoryStep creates a RecordHistoryStep.
func NewRecordHistoryStep(store HistoryStore) *RecordHistoryStep {
	return &RecordHistoryStep{store: store}
}

// Name returns the step name.
func (s *RecordHistoryStep) Name() string {
	return "record_history"
}

// Do saves the history entry and sets job.GenerationID.
func (s *RecordHistoryStep) Do(ctx context.Context, job *model.Job) error {
	if job.Sheet == nil {
		return ErrNoSheet
	}

	issues := make([]string, len(job.Issues))
	for i, issue := range job.Issues {
		issues[i] = issue.String()
	}

	g := &database.Generation{
		OrganizationName: job.Sheet.OrganizationName,
		RecordCount:      job.Sheet.Len(),
		PageCount:        job.PageCount,
		Format:           job.Format,
		Digest:           job.Digest,
		ByteSize:         len(job.Document),
		Source:           job.InputPath,
		OutputPath:       job.OutputPath,
		Issues:           issues,
	}
	if err := s.store.SaveGeneration(ctx, g); err != nil {
		return err
	}
	job.GenerationID = g.ID
	return nil
}
