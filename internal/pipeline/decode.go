package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/careernest/credsheet/internal/model"
	"gopkg.in/yaml.v3"
)

// Input format names.
const (
	InputJSON = "json"
	InputCSV  = "csv"
	InputYAML = "yaml"
)

var (
	// ErrUnknownInputFormat is returned for an input file with an unrecognized extension.
	ErrUnknownInputFormat = errors.New("unknown input format: expected .json, .csv, .yaml or .yml")

	// ErrNoCSVColumns is returned when a CSV header names none of the record fields.
	ErrNoCSVColumns = errors.New("CSV header has no recognized columns")
)

// sheetDocument is the object form of an input file. A bare array of
// records is accepted too.
type sheetDocument struct {
	OrganizationName string                   `json:"organizationName" yaml:"organizationName"`
	Students         []model.CredentialRecord `json:"students" yaml:"students"`
}

// InputFormat returns the input format implied by a file's extension.
func InputFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return InputJSON, nil
	case ".csv":
		return InputCSV, nil
	case ".yaml", ".yml":
		return InputYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownInputFormat, path)
	}
}

// DecodeSheet reads a sheet in the given input format. The organization
// name is empty when the input carries none.
func DecodeSheet(r io.Reader, format string) (organizationName string, records []model.CredentialRecord, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read input: %w", err)
	}

	switch format {
	case InputJSON:
		return decodeJSON(data)
	case InputYAML:
		return decodeYAML(data)
	case InputCSV:
		records, err := decodeCSV(data)
		return "", records, err
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownInputFormat, format)
	}
}

func decodeJSON(data []byte) (string, []model.CredentialRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []model.CredentialRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return "", nil, fmt.Errorf("failed to parse JSON records: %w", err)
		}
		return "", records, nil
	}

	var doc sheetDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return "", nil, fmt.Errorf("failed to parse JSON sheet: %w", err)
	}
	return doc.OrganizationName, doc.Students, nil
}

func decodeYAML(data []byte) (string, []model.CredentialRecord, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return "", nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(node.Content) == 0 {
		return "", nil, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var records []model.CredentialRecord
		if err := root.Decode(&records); err != nil {
			return "", nil, fmt.Errorf("failed to parse YAML records: %w", err)
		}
		return "", records, nil
	}

	var doc sheetDocument
	if err := root.Decode(&doc); err != nil {
		return "", nil, fmt.Errorf("failed to parse YAML sheet: %w", err)
	}
	return doc.OrganizationName, doc.Students, nil
}

// csvColumn maps a normalized CSV header to a record field setter.
var csvColumn = map[string]func(*model.CredentialRecord, string){
	"name":         func(r *model.CredentialRecord, v string) { r.Name = v },
	"student_name": func(r *model.CredentialRecord, v string) { r.Name = v },
	"email":        func(r *model.CredentialRecord, v string) { r.Email = v },
	"rollnumber":   setRoll,
	"roll_number":  setRoll,
	"roll_no":      setRoll,
	"roll":         setRoll,
	"password":     func(r *model.CredentialRecord, v string) { r.Password = v },
	"course":       func(r *model.CredentialRecord, v string) { r.Course = v },
	"program":      func(r *model.CredentialRecord, v string) { r.Course = v },
	"year":         func(r *model.CredentialRecord, v string) { r.Year = v },
}

// rollAliasRank orders roll number headers by preference. Columns are
// applied in this order, so "rollNumber" wins over "roll_number" wherever
// it appears in the header row.
var rollAliasRank = map[string]int{
	"rollnumber":  0,
	"roll_number": 1,
	"roll_no":     2,
	"roll":        3,
}

// setRoll keeps the first non-empty roll number when several alias
// columns are present.
func setRoll(r *model.CredentialRecord, v string) {
	if r.RollNumber == "" {
		r.RollNumber = v
	}
}

// normalizeHeader lowercases a header and folds spaces, dots and dashes
// into underscores, so "Roll No." and "roll-number" match.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(h)
	return strings.Trim(h, "_")
}

func decodeCSV(data []byte) ([]model.CredentialRecord, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // short rows leave trailing fields empty

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read CSV header: %w", err)
	}

	setters := make([]func(*model.CredentialRecord, string), len(headers))
	ranks := make([]int, len(headers))
	var order []int
	for i, h := range headers {
		name := normalizeHeader(h)
		if set, ok := csvColumn[name]; ok {
			setters[i] = set
			ranks[i] = rollAliasRank[name]
			order = append(order, i)
		}
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCSVColumns, strings.Join(headers, ","))
	}
	slices.SortStableFunc(order, func(a, b int) int { return ranks[a] - ranks[b] })

	var records []model.CredentialRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV rows: %w", err)
		}

		var rec model.CredentialRecord
		for _, i := range order {
			if i < len(row) {
				setters[i](&rec, strings.TrimSpace(row[i]))
			}
		}
		if rec.IsEmpty() {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
