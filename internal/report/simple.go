package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/careernest/credsheet/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// textColumnWidth is the width, in characters, of each column of the plain
// text table. It mirrors the proportions of the PDF columns.
var textColumnWidth = [model.ColumnCount]int{4, 24, 28, 10, 12, 10, 8}

// SimpleWriter outputs a plain text credential table for terminal display.
// Long cells are cut with an ellipsis the same way the PDF does.
type SimpleWriter struct {
	baseWriter

	// printer formats counts with locale digit grouping.
	printer *message.Printer

	// hidePasswords replaces passwords with asterisks.
	hidePasswords bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithHiddenPasswords masks the password column, for previews on shared screens.
func WithHiddenPasswords(hide bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.hidePasswords = hide
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the sheet as a text table.
func (w *SimpleWriter) Write(sheet *model.CredentialSheet) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, sheet)
	w.writeTable(&sb, sheet)
	w.writeInstructions(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the title block.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, sheet *model.CredentialSheet) {
	sb.WriteString(strings.Repeat("=", 100))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s - %s\n", strings.ToUpper(ProductName), DefaultTitle))
	sb.WriteString(strings.Repeat("=", 100))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Organization: %s\n", sheet.OrganizationName))
	sb.WriteString(fmt.Sprintf("Generated:    %s\n", sheet.GeneratedAt.Format(TimestampLayout)))
	sb.WriteString(w.printer.Sprintf("Students:     %d\n", sheet.Len()))
	sb.WriteString("\n")
	sb.WriteString(ConfidentialityNotice)
	sb.WriteString("\n\n")
}

// writeTable writes the header row, a rule and one line per record.
func (w *SimpleWriter) writeTable(sb *strings.Builder, sheet *model.CredentialSheet) {
	w.writeRow(sb, ColumnTitles)
	sb.WriteString(strings.Repeat("-", 100))
	sb.WriteString("\n")

	for i, rec := range sheet.Records {
		cells := rec.Cells(i)
		if w.hidePasswords && cells[4] != "" {
			cells[4] = "********"
		}
		w.writeRow(sb, cells)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeRow(sb *strings.Builder, cells [model.ColumnCount]string) {
	for i, cell := range cells {
		width := textColumnWidth[i]
		cell = truncate(cell, float64(width), func(s string) float64 {
			return float64(len([]rune(s)))
		})
		sb.WriteString(cell)
		if i < len(cells)-1 {
			sb.WriteString(strings.Repeat(" ", width-len([]rune(cell))+1))
		}
	}
	sb.WriteString("\n")
}

// writeInstructions writes the numbered instructions.
func (w *SimpleWriter) writeInstructions(sb *strings.Builder) {
	sb.WriteString(InstructionsHeading)
	sb.WriteString("\n")
	for i, line := range Instructions {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, line))
	}
}
