package report

import (
	"encoding/json"
	"io"

	"github.com/careernest/credsheet/internal/model"
)

// JSONWriter outputs credential sheets in JSON format, for handing the
// same data to another system. Records use the camelCase field names.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// jsonSheet is the serialized form of a sheet.
type jsonSheet struct {
	OrganizationName string                   `json:"organizationName"`
	GeneratedAt      string                   `json:"generatedAt"`
	Count            int                      `json:"count"`
	Students         []model.CredentialRecord `json:"students"`
}

// Write outputs the sheet in JSON format.
func (w *JSONWriter) Write(sheet *model.CredentialSheet) (int, error) {
	students := sheet.Records
	if students == nil {
		students = []model.CredentialRecord{}
	}

	return w.writeJSON(jsonSheet{
		OrganizationName: sheet.OrganizationName,
		GeneratedAt:      sheet.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		Count:            len(students),
		Students:         students,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
