package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func sampleGeneration(org string, records int, at time.Time) *Generation {
	return &Generation{
		OrganizationName: org,
		RecordCount:      records,
		PageCount:        1,
		Format:           "pdf",
		Digest:           "ab12",
		ByteSize:         2048,
		Source:           "students.json",
		OutputPath:       "/tmp/students.pdf",
		CreatedAt:        at,
	}
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "missing")
		if _, err := Open(dbDir, Options{CreateIfNotExists: false}); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		g := sampleGeneration("Org", 3, time.Now())
		if err := db.SaveGeneration(context.Background(), g); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		_ = db.Close()

		db, err = Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		if _, err := db.GetGeneration(context.Background(), g.ID); err != nil {
			t.Errorf("expected saved generation after reopen, got %v", err)
		}
	})
}

// TestSaveAndGetGeneration tests the round trip of a generation.
func TestSaveAndGetGeneration(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	g := sampleGeneration("Test Org", 45, at)
	g.PageCount = 2
	g.Issues = []string{"row 3: rollNumber: missing roll number"}

	if err := db.SaveGeneration(ctx, g); err != nil {
		t.Fatalf("failed to save generation: %v", err)
	}
	if g.ID == "" {
		t.Fatal("expected ID to be assigned")
	}

	got, err := db.GetGeneration(ctx, g.ID)
	if err != nil {
		t.Fatalf("failed to get generation: %v", err)
	}

	if got.OrganizationName != "Test Org" || got.RecordCount != 45 || got.PageCount != 2 {
		t.Errorf("unexpected generation %+v", got)
	}
	if got.Digest != "ab12" || got.ByteSize != 2048 || got.Format != "pdf" {
		t.Errorf("unexpected document fields %+v", got)
	}
	if got.Source != "students.json" || got.OutputPath != "/tmp/students.pdf" {
		t.Errorf("unexpected paths %+v", got)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("expected created at %v, got %v", at, got.CreatedAt)
	}
	if len(got.Issues) != 1 {
		t.Errorf("expected 1 issue, got %v", got.Issues)
	}
}

// TestGetGeneration tests id and prefix lookup.
func TestGetGeneration(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	first := sampleGeneration("Org", 1, time.Now())
	first.ID = "aaaa1111-0000-4000-8000-000000000001"
	second := sampleGeneration("Org", 2, time.Now())
	second.ID = "aaaa2222-0000-4000-8000-000000000002"
	for _, g := range []*Generation{first, second} {
		if err := db.SaveGeneration(ctx, g); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
	}

	t.Run("unique prefix", func(t *testing.T) {
		got, err := db.GetGeneration(ctx, "aaaa2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != second.ID {
			t.Errorf("expected %s, got %s", second.ID, got.ID)
		}
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		if _, err := db.GetGeneration(ctx, "aaaa"); !errors.Is(err, ErrAmbiguousID) {
			t.Errorf("expected ErrAmbiguousID, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := db.GetGeneration(ctx, "ffffffff-0000-4000-8000-000000000000"); !errors.Is(err, ErrGenerationNotFound) {
			t.Errorf("expected ErrGenerationNotFound, got %v", err)
		}
		if _, err := db.GetGeneration(ctx, "zz"); !errors.Is(err, ErrGenerationNotFound) {
			t.Errorf("expected ErrGenerationNotFound, got %v", err)
		}
		if _, err := db.GetGeneration(ctx, ""); !errors.Is(err, ErrGenerationNotFound) {
			t.Errorf("expected ErrGenerationNotFound, got %v", err)
		}
	})

	t.Run("wildcards match only themselves", func(t *testing.T) {
		for _, id := range []string{"%", "_", "____", "aaaa_", "a%", `\`} {
			if _, err := db.GetGeneration(ctx, id); !errors.Is(err, ErrGenerationNotFound) {
				t.Errorf("GetGeneration(%q): expected ErrGenerationNotFound, got %v", id, err)
			}
		}
	})
}

// TestListGenerations tests ordering, filtering and limits.
func TestListGenerations(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, org := range []string{"Alpha", "Beta", "Alpha"} {
		if err := db.SaveGeneration(ctx, sampleGeneration(org, 10*(i+1), base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
	}

	t.Run("newest first", func(t *testing.T) {
		all, err := db.ListGenerations(ctx, ListOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 generations, got %d", len(all))
		}
		if all[0].RecordCount != 30 || all[2].RecordCount != 10 {
			t.Errorf("unexpected order: %d, %d", all[0].RecordCount, all[2].RecordCount)
		}
	})

	t.Run("filter by organization", func(t *testing.T) {
		alpha, err := db.ListGenerations(ctx, ListOptions{Organization: "Alpha"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(alpha) != 2 {
			t.Errorf("expected 2 Alpha generations, got %d", len(alpha))
		}
	})

	t.Run("limit", func(t *testing.T) {
		limited, err := db.ListGenerations(ctx, ListOptions{Limit: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("expected 1 generation, got %d", len(limited))
		}
	})
	t.Run("sub-second order", func(t *testing.T) {
		db := setupTestDB(t)
		at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		for i, ts := range []time.Time{at, at.Add(100 * time.Millisecond), at.Add(time.Second)} {
			if err := db.SaveGeneration(ctx, sampleGeneration("Gamma", i+1, ts)); err != nil {
				t.Fatalf("failed to save: %v", err)
			}
		}

		all, err := db.ListGenerations(ctx, ListOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 generations, got %d", len(all))
		}
		for i, want := range []int{3, 2, 1} {
			if all[i].RecordCount != want {
				t.Errorf("position %d: expected record count %d, got %d", i, want, all[i].RecordCount)
			}
		}
		if !all[1].CreatedAt.Equal(at.Add(100 * time.Millisecond)) {
			t.Errorf("expected fractional timestamp to round-trip, got %v", all[1].CreatedAt)
		}
	})
}

// TestListOrganizations tests the per-organization aggregation.
func TestListOrganizations(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	saves := []*Generation{
		sampleGeneration("Beta", 5, base),
		sampleGeneration("Alpha", 10, base.Add(time.Hour)),
		sampleGeneration("Alpha", 20, base.Add(2*time.Hour)),
	}
	for _, g := range saves {
		if err := db.SaveGeneration(ctx, g); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
	}

	orgs, err := db.ListOrganizations(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orgs) != 2 {
		t.Fatalf("expected 2 organizations, got %d", len(orgs))
	}
	if orgs[0].Name != "Alpha" || orgs[0].Generations != 2 || orgs[0].Students != 30 {
		t.Errorf("unexpected Alpha summary %+v", orgs[0])
	}
	if !orgs[0].LastGeneratedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("unexpected Alpha last generated %v", orgs[0].LastGeneratedAt)
	}
	if orgs[1].Name != "Beta" || orgs[1].Students != 5 {
		t.Errorf("unexpected Beta summary %+v", orgs[1])
	}
}

// TestFindByDigest tests lookup by document digest.
func TestFindByDigest(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	g := sampleGeneration("Org", 1, time.Now())
	g.Digest = "deadbeef"
	if err := db.SaveGeneration(ctx, g); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	found, err := db.FindByDigest(ctx, "DEADBEEF ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 || found[0].ID != g.ID {
		t.Errorf("expected generation %s, got %v", g.ID, found)
	}

	none, err := db.FindByDigest(ctx, "cafe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no match, got %d", len(none))
	}
}

// TestParseTimestamp tests the stored timestamp layouts.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		zero bool
	}{
		{"2025-06-01T09:30:00Z", false},
		{"2025-06-01T09:30:00.123456789Z", false},
		{"2025-06-01 09:30:00", false},
		{"not a time", true},
	}

	for _, tt := range tests {
		if got := parseTimestamp(tt.in); got.IsZero() != tt.zero {
			t.Errorf("parseTimestamp(%q) zero = %v, want %v", tt.in, got.IsZero(), tt.zero)
		}
	}
}
