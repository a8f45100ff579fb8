package model

import "time"

// Job tracks one credential handout through the generation pipeline:
// from the input file to the rendered document on disk.
type Job struct {
	// Name identifies the job in logs, usually the input file name.
	Name string `json:"name"`

	// InputPath is the file the records were loaded from. Empty when the
	// sheet was supplied directly.
	InputPath string `json:"inputPath,omitempty"`

	// OutputPath is where the rendered document is written. Empty means
	// the document is kept in memory only.
	OutputPath string `json:"outputPath,omitempty"`

	// Format is the output format name ("pdf", "markdown", "json", "text").
	Format string `json:"format"`

	// OrganizationName overrides the sheet's organization when non-empty.
	OrganizationName string `json:"organizationName,omitempty"`

	// Sheet holds the loaded records.
	Sheet *CredentialSheet `json:"-"`

	// Issues are the advisory validation results.
	Issues Issues `json:"issues,omitempty"`

	// Document is the rendered output.
	Document []byte `json:"-"`

	// PageCount is the number of pages of a PDF document, zero otherwise.
	PageCount int `json:"pageCount"`

	// Digest is the hex SHA3-256 of Document.
	Digest string `json:"digest,omitempty"`

	// GenerationID is the history record id once saved.
	GenerationID string `json:"generationId,omitempty"`

	// StartedAt is when the job was created.
	StartedAt time.Time `json:"startedAt"`

	// CompletedSteps lists the pipeline steps that ran.
	CompletedSteps []string `json:"completedSteps,omitempty"`

	// Error is the first step failure. Not serialized.
	Error error `json:"-"`

	// ErrorMessage is Error's text for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewJob creates a job for an input file.
func NewJob(name, inputPath, outputPath, format string) *Job {
	return &Job{
		Name:       name,
		InputPath:  inputPath,
		OutputPath: outputPath,
		Format:     format,
		StartedAt:  time.Now(),
	}
}

// Failed reports whether a step recorded an error.
func (j *Job) Failed() bool {
	return j.Error != nil
}
