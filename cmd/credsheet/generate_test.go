package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/careernest/credsheet/internal/config"
	"github.com/careernest/credsheet/internal/database"
)

const studentsCSV = `Name,Email,Roll Number,Password,Course,Year
Jane Doe,jane@x.com,CS001,,CS,2nd Year
John Roe,john@x.com,CS002,Secret-2,CS,1st Year
`

// setupWorkspace writes an input file and an empty configuration file so
// the user's own .credsheet is never picked up.
func setupWorkspace(t *testing.T) (dir, input, cfgPath string) {
	t.Helper()

	dir = t.TempDir()
	input = filepath.Join(dir, "students.csv")
	if err := os.WriteFile(input, []byte(studentsCSV), 0600); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	cfgPath = filepath.Join(dir, "credsheet.yaml")
	if err := os.WriteFile(cfgPath, []byte("defaults:\n  format: pdf\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return dir, input, cfgPath
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestOutputPath tests where documents are written.
func TestOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cfg   config.Config
		input string
		want  string
	}{
		{
			name:  "next to the input",
			cfg:   config.Config{Format: "pdf"},
			input: filepath.Join("in", "students.csv"),
			want:  filepath.Join("in", "students-credentials.pdf"),
		},
		{
			name:  "output directory",
			cfg:   config.Config{Format: "markdown", OutputDir: "out"},
			input: filepath.Join("in", "students.json"),
			want:  filepath.Join("out", "students-credentials.md"),
		},
		{
			name:  "json input keeps its name free",
			cfg:   config.Config{Format: "json"},
			input: "students.json",
			want:  "students-credentials.json",
		},
		{
			name:  "explicit file wins",
			cfg:   config.Config{Format: "pdf", OutputDir: "out", OutputFile: "handout.pdf"},
			input: "students.csv",
			want:  "handout.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := outputPath(&tt.cfg, tt.input); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

// TestGenerateCmd tests rendering files end to end.
func TestGenerateCmd(t *testing.T) {
	t.Run("renders markdown and records history", func(t *testing.T) {
		dir, input, cfgPath := setupWorkspace(t)
		dbDir := filepath.Join(dir, "db")

		out, err := runCLI(t, "generate", "-c", cfgPath, "--db-dir", dbDir,
			"-f", "markdown", "-O", "Test Org", "--fill-passwords", input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "1 succeeded, 0 failed") {
			t.Errorf("unexpected summary: %s", out)
		}

		doc, err := os.ReadFile(filepath.Join(dir, "students-credentials.md"))
		if err != nil {
			t.Fatalf("expected output file: %v", err)
		}
		for _, want := range []string{"Test Org", "`CS001@CN`", "`Secret-2`"} {
			if !strings.Contains(string(doc), want) {
				t.Errorf("expected document to contain %q", want)
			}
		}

		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open history: %v", err)
		}
		defer db.Close()

		gens, err := db.ListGenerations(t.Context(), database.ListOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(gens) != 1 || gens[0].OrganizationName != "Test Org" || gens[0].RecordCount != 2 {
			t.Errorf("unexpected history %+v", gens)
		}
	})

	t.Run("renders pdf without history", func(t *testing.T) {
		dir, input, cfgPath := setupWorkspace(t)
		output := filepath.Join(dir, "out", "handout.pdf")

		out, err := runCLI(t, "generate", "-c", cfgPath, "--history=false", "-o", output, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "1 succeeded") {
			t.Errorf("unexpected output: %s", out)
		}

		doc, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("expected output file: %v", err)
		}
		if !bytes.HasPrefix(doc, []byte("%PDF-")) {
			t.Error("expected PDF document")
		}
	})

	t.Run("missing passwords stay empty by default", func(t *testing.T) {
		dir, _, cfgPath := setupWorkspace(t)
		input := filepath.Join(dir, "nopass.json")
		if err := os.WriteFile(input, []byte(`[{"name": "Jane", "rollNumber": "CS001"}]`), 0600); err != nil {
			t.Fatalf("failed to write input: %v", err)
		}

		if _, err := runCLI(t, "generate", "-c", cfgPath, "--history=false", "-f", "json", input); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "nopass-credentials.json"))
		if err != nil {
			t.Fatalf("expected output file: %v", err)
		}
		if strings.Contains(string(data), "CS001@CN") {
			t.Errorf("expected no default password, got %s", data)
		}
		var doc struct {
			Students []struct {
				RollNumber string `json:"rollNumber"`
				Password   string `json:"password"`
			} `json:"students"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if len(doc.Students) != 1 || doc.Students[0].RollNumber != "CS001" || doc.Students[0].Password != "" {
			t.Errorf("unexpected students %+v", doc.Students)
		}
	})

	t.Run("strict fails on invalid records", func(t *testing.T) {
		dir, _, cfgPath := setupWorkspace(t)
		input := filepath.Join(dir, "dup.json")
		body := `[{"name": "A", "rollNumber": "R1"}, {"name": "B", "rollNumber": "R1"}]`
		if err := os.WriteFile(input, []byte(body), 0600); err != nil {
			t.Fatalf("failed to write input: %v", err)
		}

		out, err := runCLI(t, "generate", "-c", cfgPath, "--history=false", "--strict", input)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(out, "failed") {
			t.Errorf("expected failure line, got %s", out)
		}
		if _, statErr := os.Stat(filepath.Join(dir, "dup-credentials.pdf")); statErr == nil {
			t.Error("expected no document to be written")
		}
	})

	t.Run("configuration errors", func(t *testing.T) {
		_, input, cfgPath := setupWorkspace(t)

		tests := []struct {
			name string
			args []string
		}{
			{"no input", []string{"generate", "-c", cfgPath}},
			{"unknown format", []string{"generate", "-c", cfgPath, "-f", "docx", input}},
			{"output file with many inputs", []string{"generate", "-c", cfgPath, "-o", "x.pdf", input, input}},
			{"missing config file", []string{"generate", "-c", filepath.Join(t.TempDir(), "none.yaml"), input}},
			{"unknown profile", []string{"generate", "-c", cfgPath, "-P", "nope", input}},
		}
		for _, tt := range tests {
			if _, err := runCLI(t, tt.args...); err == nil {
				t.Errorf("%s: expected error", tt.name)
			}
		}
	})

	t.Run("profile supplies the organization", func(t *testing.T) {
		dir, input, _ := setupWorkspace(t)
		cfgPath := filepath.Join(dir, "profiles.yaml")
		content := "defaults:\n  format: json\nprofiles:\n  springfield:\n    organizationName: Springfield High\n"
		if err := os.WriteFile(cfgPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if _, err := runCLI(t, "generate", "-c", cfgPath, "-P", "springfield", "--history=false", input); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "students-credentials.json"))
		if err != nil {
			t.Fatalf("expected output file: %v", err)
		}
		var doc struct {
			OrganizationName string `json:"organizationName"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if doc.OrganizationName != "Springfield High" {
			t.Errorf("expected Springfield High, got %q", doc.OrganizationName)
		}
	})
}

// TestHistoryCmd tests reading the history database.
func TestHistoryCmd(t *testing.T) {
	dir, input, cfgPath := setupWorkspace(t)
	dbDir := filepath.Join(dir, "db")

	if _, err := runCLI(t, "generate", "-c", cfgPath, "--db-dir", dbDir, "-O", "Test Org", input); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	t.Run("list", func(t *testing.T) {
		out, err := runCLI(t, "history", "list", "-c", cfgPath, "--db-dir", dbDir, "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var gens []database.Generation
		if err := json.Unmarshal([]byte(out), &gens); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(gens) != 1 || gens[0].Format != "pdf" {
			t.Fatalf("unexpected generations %+v", gens)
		}

		text, err := runCLI(t, "history", "list", "-c", cfgPath, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(text, shortID(gens[0].ID)) || !strings.Contains(text, "Test Org") {
			t.Errorf("unexpected listing: %s", text)
		}

		show, err := runCLI(t, "history", "show", "-c", cfgPath, "--db-dir", dbDir, shortID(gens[0].ID))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(show, gens[0].Digest) {
			t.Errorf("expected digest in details: %s", show)
		}
	})

	t.Run("orgs", func(t *testing.T) {
		out, err := runCLI(t, "history", "orgs", "-c", cfgPath, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Test Org: 1 generations, 2 students") {
			t.Errorf("unexpected output: %s", out)
		}
	})

	t.Run("verify", func(t *testing.T) {
		out, err := runCLI(t, "history", "verify", "-c", cfgPath, "--db-dir", dbDir,
			filepath.Join(dir, "students-credentials.pdf"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "matches 1 generation") {
			t.Errorf("unexpected output: %s", out)
		}
		if !strings.Contains(out, "Subject:  Test Org") {
			t.Errorf("expected PDF metadata in output: %s", out)
		}

		if _, err := runCLI(t, "history", "verify", "-c", cfgPath, "--db-dir", dbDir, input); err == nil {
			t.Error("expected error for a file credsheet did not produce")
		}
	})

	t.Run("missing database", func(t *testing.T) {
		if _, err := runCLI(t, "history", "list", "-c", cfgPath, "--db-dir", t.TempDir()); err == nil {
			t.Error("expected error")
		}
	})
}
