package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/encoding/charmap"
)

// ErrInvalidRecords is returned by Issues.Err when validation found problems.
var ErrInvalidRecords = errors.New("credential records failed validation")

// Issue describes one advisory problem found in a credential record.
// Issues never alter rendering; they are reported to the operator.
type Issue struct {
	// Row is the 1-based row number shown in the report.
	Row int `json:"row"`

	// Field is the JSON name of the offending field.
	Field string `json:"field"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// String implements fmt.Stringer.
func (i Issue) String() string {
	return fmt.Sprintf("row %d: %s: %s", i.Row, i.Field, i.Message)
}

// Issues is a list of validation issues.
type Issues []Issue

// Err returns nil when there are no issues, or an error wrapping
// ErrInvalidRecords that summarizes them.
func (is Issues) Err() error {
	if len(is) == 0 {
		return nil
	}
	lines := make([]string, len(is))
	for i, issue := range is {
		lines[i] = issue.String()
	}
	return fmt.Errorf("%w: %s", ErrInvalidRecords, strings.Join(lines, "; "))
}

// recordValidator is safe for concurrent use once built.
var recordValidator = newRecordValidator()

func newRecordValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// The PDF core fonts only carry the Windows-1252 repertoire.
	_ = v.RegisterValidation("winansi", func(fl validator.FieldLevel) bool {
		return IsWinAnsi(fl.Field().String())
	})
	return v
}

// IsWinAnsi reports whether every rune of s can be drawn with the
// standard PDF fonts.
func IsWinAnsi(s string) bool {
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return false
		}
	}
	return true
}

// Validate checks records for malformed emails, oversize fields, text the
// PDF font cannot draw, missing roll numbers and duplicate roll numbers.
func Validate(records []CredentialRecord) Issues {
	var issues Issues
	seen := make(map[string]int, len(records))

	for i, rec := range records {
		row := i + 1

		if err := recordValidator.Struct(rec); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					issues = append(issues, Issue{
						Row:     row,
						Field:   fe.Field(),
						Message: describeFieldError(fe),
					})
				}
			}
		}

		roll := strings.TrimSpace(rec.RollNumber)
		if roll == "" {
			if !rec.IsEmpty() {
				issues = append(issues, Issue{Row: row, Field: "rollNumber", Message: "missing roll number"})
			}
			continue
		}
		if first, ok := seen[roll]; ok {
			issues = append(issues, Issue{
				Row:     row,
				Field:   "rollNumber",
				Message: fmt.Sprintf("duplicate of row %d", first),
			})
			continue
		}
		seen[roll] = row
	}

	return issues
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "not a valid email address"
	case "max":
		return "longer than " + fe.Param() + " characters"
	case "winansi":
		return "contains characters the PDF font cannot draw"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
