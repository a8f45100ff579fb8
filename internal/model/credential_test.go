package model

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestCredentialRecordUnmarshalJSON tests the roll number alias and null handling.
func TestCredentialRecordUnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantRoll string
		want     CredentialRecord
	}{
		{
			name:     "camelCase roll number",
			input:    `{"name":"Jane Doe","rollNumber":"CS001"}`,
			wantRoll: "CS001",
		},
		{
			name:     "snake_case roll number",
			input:    `{"name":"Jane Doe","roll_number":"CS001"}`,
			wantRoll: "CS001",
		},
		{
			name:     "camelCase wins when both set",
			input:    `{"rollNumber":"CS001","roll_number":"EE999"}`,
			wantRoll: "CS001",
		},
		{
			name:     "empty camelCase falls back to snake_case",
			input:    `{"rollNumber":"","roll_number":"EE999"}`,
			wantRoll: "EE999",
		},
		{
			name:     "null camelCase falls back to snake_case",
			input:    `{"rollNumber":null,"roll_number":"EE999"}`,
			wantRoll: "EE999",
		},
		{
			name:     "neither set",
			input:    `{}`,
			wantRoll: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var rec CredentialRecord
			if err := json.Unmarshal([]byte(tt.input), &rec); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.RollNumber != tt.wantRoll {
				t.Errorf("expected roll number %q, got %q", tt.wantRoll, rec.RollNumber)
			}
		})
	}
}

// TestCredentialRecordNullFields verifies null values decode to empty strings.
func TestCredentialRecordNullFields(t *testing.T) {
	t.Parallel()

	input := `{"name":null,"email":null,"password":null,"course":null,"year":null}`

	var rec CredentialRecord
	if err := json.Unmarshal([]byte(input), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.IsEmpty() {
		t.Errorf("expected empty record, got %+v", rec)
	}
}

// TestCredentialRecordUnmarshalList verifies decoding a list of records.
func TestCredentialRecordUnmarshalList(t *testing.T) {
	t.Parallel()

	input := `[{"name":"A","roll_number":"R1"},{"name":"B","rollNumber":"R2"},{}]`

	var recs []CredentialRecord
	if err := json.Unmarshal([]byte(input), &recs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].RollNumber != "R1" || recs[1].RollNumber != "R2" {
		t.Errorf("unexpected roll numbers: %q, %q", recs[0].RollNumber, recs[1].RollNumber)
	}
	if !recs[2].IsEmpty() {
		t.Errorf("expected third record to be empty, got %+v", recs[2])
	}
}

// TestCredentialRecordUnmarshalYAML verifies the alias rules apply to YAML input.
func TestCredentialRecordUnmarshalYAML(t *testing.T) {
	t.Parallel()

	input := `
- name: Jane Doe
  roll_number: CS001
- name: John Roe
  rollNumber: CS002
  roll_number: XX000
`

	var recs []CredentialRecord
	if err := yaml.Unmarshal([]byte(input), &recs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].RollNumber != "CS001" {
		t.Errorf("expected CS001, got %q", recs[0].RollNumber)
	}
	if recs[1].RollNumber != "CS002" {
		t.Errorf("expected CS002, got %q", recs[1].RollNumber)
	}
}

// TestCredentialRecordCells tests row construction.
func TestCredentialRecordCells(t *testing.T) {
	t.Parallel()

	t.Run("full record", func(t *testing.T) {
		t.Parallel()

		rec := CredentialRecord{
			Name:       "Jane Doe",
			Email:      "jane@x.com",
			RollNumber: "CS001",
			Password:   "CS001@CN",
			Course:     "CS",
			Year:       "2nd Year",
		}
		got := rec.Cells(0)
		want := [ColumnCount]string{"1", "Jane Doe", "jane@x.com", "CS001", "CS001@CN", "CS", "2nd Year"}
		if got != want {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("empty record keeps row number only", func(t *testing.T) {
		t.Parallel()

		got := CredentialRecord{}.Cells(41)
		if got[0] != "42" {
			t.Errorf("expected row number 42, got %q", got[0])
		}
		for i := 1; i < ColumnCount; i++ {
			if got[i] != "" {
				t.Errorf("expected empty cell %d, got %q", i, got[i])
			}
		}
	})
}

// TestDefaultPassword tests the {RollNumber}@CN convention.
func TestDefaultPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		roll string
		want string
	}{
		{"CS001", "CS001@CN"},
		{"  CS001 ", "CS001@CN"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := DefaultPassword(tt.roll); got != tt.want {
			t.Errorf("DefaultPassword(%q) = %q, want %q", tt.roll, got, tt.want)
		}
	}
}

// TestCredentialRecordNumericFields tests that numeric roll numbers and years
// are read as text instead of failing the whole batch.
func TestCredentialRecordNumericFields(t *testing.T) {
	t.Parallel()

	t.Run("json numbers and booleans", func(t *testing.T) {
		t.Parallel()

		var recs []CredentialRecord
		input := `[{"rollNumber":101,"year":2},{"roll_number":7,"password":true}]`
		if err := json.Unmarshal([]byte(input), &recs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if recs[0].RollNumber != "101" || recs[0].Year != "2" {
			t.Errorf("unexpected first record %+v", recs[0])
		}
		if recs[1].RollNumber != "7" || recs[1].Password != "true" {
			t.Errorf("unexpected second record %+v", recs[1])
		}
	})

	t.Run("json objects are rejected", func(t *testing.T) {
		t.Parallel()

		var rec CredentialRecord
		if err := json.Unmarshal([]byte(`{"rollNumber":{"id":1}}`), &rec); err == nil {
			t.Error("expected error for object roll number")
		}
	})

	t.Run("yaml numbers", func(t *testing.T) {
		t.Parallel()

		var rec CredentialRecord
		if err := yaml.Unmarshal([]byte("rollNumber: 101\nyear: 2\n"), &rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.RollNumber != "101" || rec.Year != "2" {
			t.Errorf("unexpected record %+v", rec)
		}
	})
}
