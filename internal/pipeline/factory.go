package pipeline

import (
	"log/slog"

	"github.com/careernest/credsheet/internal/report"
)

// Settings selects the steps of a generation pipeline.
type Settings struct {
	// Strict fails the job when validation reports issues.
	Strict bool

	// FillPasswords adds the default password step.
	FillPasswords bool

	// HidePasswords masks passwords in text output.
	HidePasswords bool

	// Generator renders PDFs. Nil uses report defaults.
	Generator *report.Generator

	// History, when set, records each generated document.
	History HistoryStore

	Logger *slog.Logger
}

// NewGenerationPipeline builds the standard pipeline:
// load, validate, fill passwords, render, write file and record history.
func NewGenerationPipeline(s Settings) *Pipeline {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := New(WithLogger(logger))
	p.AddSteps(
		NewLoadStep(logger),
		NewValidateStep(s.Strict, logger),
	)
	if s.FillPasswords {
		p.AddStep(NewFillPasswordStep(logger))
	}
	p.AddSteps(
		NewRenderStep(s.Generator, WithHiddenTextPasswords(s.HidePasswords)),
		NewWriteFileStep(logger),
	)
	if s.History != nil {
		p.AddStep(NewRecordHistoryStep(s.History))
	}
	return p
}
