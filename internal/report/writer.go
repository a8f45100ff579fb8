package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/careernest/credsheet/internal/model"
)

// Output format names accepted by NewWriter.
const (
	FormatPDF      = "pdf"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatText     = "text"
)

// Formats lists every supported output format.
var Formats = []string{FormatPDF, FormatMarkdown, FormatJSON, FormatText}

// Writer defines the interface for credential sheet output.
// Implementations render a sheet in one format to their destination.
type Writer interface {
	// Write outputs the sheet to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(sheet *model.CredentialSheet) (int, error)
}

// NewWriter returns the Writer for the named format.
// The generator is only used for FormatPDF and may be nil.
func NewWriter(format string, output io.Writer, generator *Generator) (Writer, error) {
	switch strings.ToLower(format) {
	case FormatPDF, "":
		return NewPDFWriter(output, generator), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatText, "txt":
		return NewSimpleWriter(output), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// FileExtension returns the conventional file extension for a format.
func FileExtension(format string) string {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatText, "txt":
		return ".txt"
	default:
		return ".pdf"
	}
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatText, "txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/pdf"
	}
}

// MultiWriter writes to multiple Writers in order.
//
// This is not io.MultiWriter because our Writer renders sheets, and each
// destination may want a different format.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the sheet to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(sheet *model.CredentialSheet) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(sheet)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
