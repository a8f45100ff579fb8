package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the name of the SQLite file inside the database directory.
const FileName = "credsheet.db"

var (
	// ErrGenerationNotFound is returned when no generation matches an id.
	ErrGenerationNotFound = errors.New("generation not found")

	// ErrAmbiguousID is returned when an id prefix matches several generations.
	ErrAmbiguousID = errors.New("generation id prefix is ambiguous")
)

// HistoryDB provides SQLite-based storage for generation history.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so the server and the CLI can
	// read while another process writes.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		id TEXT PRIMARY KEY,
		organization TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		page_count INTEGER NOT NULL DEFAULT 0,
		format TEXT NOT NULL,
		digest TEXT NOT NULL,
		byte_size INTEGER NOT NULL DEFAULT 0,
		source TEXT,
		output_path TEXT,
		issues TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_generations_org ON generations(organization);
	CREATE INDEX IF NOT EXISTS idx_generations_created ON generations(created_at);
	CREATE INDEX IF NOT EXISTS idx_generations_digest ON generations(digest);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Generation records one produced document.
type Generation struct {
	// ID is a UUID assigned by SaveGeneration when empty.
	ID string `json:"id"`

	OrganizationName string `json:"organizationName"`
	RecordCount      int    `json:"recordCount"`
	PageCount        int    `json:"pageCount"`
	Format           string `json:"format"`

	// Digest is the hex SHA3-256 of the document bytes.
	Digest   string `json:"digest"`
	ByteSize int    `json:"byteSize"`

	// Source is the input file, or "http" for server requests.
	Source string `json:"source,omitempty"`

	// OutputPath is where the document was written. Empty for documents
	// streamed over HTTP.
	OutputPath string `json:"outputPath,omitempty"`

	// Issues are the validation messages reported for the input.
	Issues []string `json:"issues,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// SaveGeneration inserts a generation. A missing ID or CreatedAt is filled in.
func (hdb *HistoryDB) SaveGeneration(ctx context.Context, g *Generation) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	issuesJSON, err := json.Marshal(g.Issues)
	if err != nil {
		return fmt.Errorf("failed to serialize issues: %w", err)
	}

	query := `
	INSERT INTO generations (id, organization, record_count, page_count, format, digest, byte_size, source, output_path, issues, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = hdb.db.ExecContext(ctx, query,
		g.ID,
		g.OrganizationName,
		g.RecordCount,
		g.PageCount,
		g.Format,
		g.Digest,
		g.ByteSize,
		g.Source,
		g.OutputPath,
		string(issuesJSON),
		formatTimestamp(g.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save generation: %w", err)
	}
	return nil
}

const generationColumns = `id, organization, record_count, page_count, format, digest, byte_size, source, output_path, issues, created_at`

// GetGeneration returns the generation whose id equals or starts with id.
func (hdb *HistoryDB) GetGeneration(ctx context.Context, id string) (*Generation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrGenerationNotFound
	}

	// An exact UUID skips the prefix scan.
	if _, err := uuid.Parse(id); err == nil {
		row := hdb.db.QueryRowContext(ctx, `SELECT `+generationColumns+` FROM generations WHERE id = ?`, id)
		g, err := scanGeneration(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGenerationNotFound
		}
		return g, err
	}

	rows, err := hdb.db.QueryContext(ctx,
		`SELECT `+generationColumns+` FROM generations WHERE id LIKE ? ESCAPE '\' ORDER BY created_at DESC LIMIT 2`,
		escapeLike(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query generation: %w", err)
	}
	defer rows.Close()

	var found []*Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, ErrGenerationNotFound
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

// ListOptions filters ListGenerations.
type ListOptions struct {
	// Organization restricts results to one organization when set.
	Organization string

	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// ListGenerations returns generations, newest first.
func (hdb *HistoryDB) ListGenerations(ctx context.Context, opts ListOptions) ([]*Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations`
	var args []any
	if opts.Organization != "" {
		query += ` WHERE organization = ?`
		args = append(args, opts.Organization)
	}
	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var results []*Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, g)
	}
	return results, rows.Err()
}

// FindByDigest returns the generations whose document digest matches.
func (hdb *HistoryDB) FindByDigest(ctx context.Context, digest string) ([]*Generation, error) {
	rows, err := hdb.db.QueryContext(ctx,
		`SELECT `+generationColumns+` FROM generations WHERE digest = ? ORDER BY created_at DESC`,
		strings.ToLower(strings.TrimSpace(digest)))
	if err != nil {
		return nil, fmt.Errorf("failed to query digest: %w", err)
	}
	defer rows.Close()

	var results []*Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, g)
	}
	return results, rows.Err()
}

// OrganizationSummary aggregates the generations of one organization.
type OrganizationSummary struct {
	Name            string    `json:"name"`
	Generations     int       `json:"generations"`
	Students        int       `json:"students"`
	LastGeneratedAt time.Time `json:"lastGeneratedAt"`
}

// ListOrganizations returns one summary per organization, ordered by name.
func (hdb *HistoryDB) ListOrganizations(ctx context.Context) ([]OrganizationSummary, error) {
	query := `
	SELECT organization, COUNT(*), SUM(record_count), MAX(created_at)
	FROM generations
	GROUP BY organization
	ORDER BY organization
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var results []OrganizationSummary
	for rows.Next() {
		var s OrganizationSummary
		var last string
		if err := rows.Scan(&s.Name, &s.Generations, &s.Students, &last); err != nil {
			return nil, err
		}
		s.LastGeneratedAt = parseTimestamp(last)
		results = append(results, s)
	}
	return results, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*Generation, error) {
	var g Generation
	var source, outputPath, issuesJSON sql.NullString
	var created string

	err := row.Scan(
		&g.ID,
		&g.OrganizationName,
		&g.RecordCount,
		&g.PageCount,
		&g.Format,
		&g.Digest,
		&g.ByteSize,
		&source,
		&outputPath,
		&issuesJSON,
		&created,
	)
	if err != nil {
		return nil, err
	}

	g.Source = source.String
	g.OutputPath = outputPath.String
	g.CreatedAt = parseTimestamp(created)
	if issuesJSON.Valid && issuesJSON.String != "" {
		if err := json.Unmarshal([]byte(issuesJSON.String), &g.Issues); err != nil {
			return nil, fmt.Errorf("failed to deserialize issues: %w", err)
		}
	}
	return &g, nil
}

// likeEscaper quotes LIKE wildcards for use with ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes s match only itself in a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// timestampLayout has a fixed width so that stored timestamps sort
// chronologically as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp formats t in UTC for storage.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats are the layouts tried when reading stored timestamps.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a stored timestamp, returning zero time on failure.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
