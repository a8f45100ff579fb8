package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPasswordSuffix is appended to a roll number to build the temporary
// password handed out by the bulk student-creation workflow.
const DefaultPasswordSuffix = "@CN"

// ColumnCount is the number of cells in a rendered credential row.
const ColumnCount = 7

// CredentialRecord holds one student's identity and temporary login fields.
// Every field is optional; missing values are carried as empty strings.
type CredentialRecord struct {
	// Name is the student's display name.
	Name string `json:"name" yaml:"name" validate:"omitempty,max=200,winansi"`

	// Email is the login address of the student.
	Email string `json:"email" yaml:"email" validate:"omitempty,email,winansi"`

	// RollNumber is the institution-assigned student identifier.
	// Input may carry it as either "rollNumber" or "roll_number".
	RollNumber string `json:"rollNumber" yaml:"rollNumber" validate:"omitempty,max=64,winansi"`

	// Password is the plaintext temporary password.
	Password string `json:"password" yaml:"password" validate:"winansi"`

	// Course is the programme the student is enrolled in.
	Course string `json:"course" yaml:"course" validate:"winansi"`

	// Year is the study year, e.g. "2nd Year".
	Year string `json:"year" yaml:"year" validate:"winansi"`
}

// rawCredentialRecord mirrors the wire shape of a record, including the
// snake_case roll number alias. Pointer fields let JSON null decode to nil.
type rawCredentialRecord struct {
	Name          *scalar `json:"name" yaml:"name"`
	Email         *scalar `json:"email" yaml:"email"`
	RollNumber    *scalar `json:"rollNumber" yaml:"rollNumber"`
	RollNumberAlt *scalar `json:"roll_number" yaml:"roll_number"`
	Password      *scalar `json:"password" yaml:"password"`
	Course        *scalar `json:"course" yaml:"course"`
	Year          *scalar `json:"year" yaml:"year"`
}

// ErrNotScalar is returned when a record field holds an object or array.
var ErrNotScalar = errors.New("record field must be a string, number or boolean")

// scalar is a record field that also accepts JSON numbers and booleans,
// so {"rollNumber": 101} reads as "101". YAML scalars already decode into
// strings.
type scalar string

// UnmarshalJSON implements json.Unmarshaler.
func (s *scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrNotScalar
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = scalar(v)
	case '{', '[':
		return ErrNotScalar
	default:
		// Numbers and booleans keep their literal text.
		*s = scalar(data)
	}
	return nil
}

// toRecord converts the raw wire form, applying the roll number fallback.
func (r rawCredentialRecord) toRecord() CredentialRecord {
	return CredentialRecord{
		Name:       deref(r.Name),
		Email:      deref(r.Email),
		RollNumber: firstNonEmpty(deref(r.RollNumber), deref(r.RollNumberAlt)),
		Password:   deref(r.Password),
		Course:     deref(r.Course),
		Year:       deref(r.Year),
	}
}

// UnmarshalJSON decodes a record, accepting both "rollNumber" and
// "roll_number". The first non-empty value wins, camelCase first.
func (c *CredentialRecord) UnmarshalJSON(data []byte) error {
	var raw rawCredentialRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = raw.toRecord()
	return nil
}

// UnmarshalYAML decodes a record from YAML with the same alias rules as JSON.
func (c *CredentialRecord) UnmarshalYAML(node *yaml.Node) error {
	var raw rawCredentialRecord
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = raw.toRecord()
	return nil
}

// Cells returns the seven rendered cells of the record for the given
// zero-based position: row number, name, email, roll, password, course, year.
func (c CredentialRecord) Cells(index int) [ColumnCount]string {
	return [ColumnCount]string{
		strconv.Itoa(index + 1),
		c.Name,
		c.Email,
		c.RollNumber,
		c.Password,
		c.Course,
		c.Year,
	}
}

// IsEmpty reports whether every field of the record is blank.
func (c CredentialRecord) IsEmpty() bool {
	return c == CredentialRecord{}
}

// DefaultPassword returns the conventional temporary password for a roll
// number ("{RollNumber}@CN"). An empty roll number yields an empty password.
func DefaultPassword(rollNumber string) string {
	rollNumber = strings.TrimSpace(rollNumber)
	if rollNumber == "" {
		return ""
	}
	return rollNumber + DefaultPasswordSuffix
}

func deref(s *scalar) string {
	if s == nil {
		return ""
	}
	return string(*s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
