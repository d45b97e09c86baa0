// Package catalog keeps a local record of every generation run and its
// artifact, backed by an embedded sqlite database next to the output
// directory. It is what lets the uploader and the API answer "what is the
// most recent artifact" without scanning the filesystem.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/owlcode-mcp/text-to-video/internal/producer"
	"github.com/owlcode-mcp/text-to-video/internal/upload"
)

// Run statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("catalog: not found")

// Record is one generation run.
type Record struct {
	ID              string    `json:"id"`
	Prompt          string    `json:"prompt"`
	Model           string    `json:"model"`
	Resolution      string    `json:"resolution"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	FPS             int       `json:"fps"`
	DurationSeconds float64   `json:"duration_seconds"`
	FrameCount      int       `json:"frame_count"`
	Path            string    `json:"path"`
	SizeBytes       int64     `json:"size_bytes"`
	Checksum        string    `json:"checksum"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	UploadStatus    string    `json:"upload_status,omitempty"`
	RemotePath      string    `json:"remote_path,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("catalog: ensure directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		prompt TEXT NOT NULL,
		model TEXT NOT NULL,
		resolution TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		fps INTEGER NOT NULL,
		duration_seconds REAL NOT NULL DEFAULT 0,
		frame_count INTEGER NOT NULL DEFAULT 0,
		path TEXT NOT NULL DEFAULT '',
		size_bytes INTEGER NOT NULL DEFAULT 0,
		checksum TEXT NOT NULL DEFAULT '',
		status TEXT CHECK(status IN ('processing', 'completed', 'failed')) NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		upload_status TEXT NOT NULL DEFAULT '',
		remote_path TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("catalog: create schema: %w", err)
	}
	return nil
}

// Begin records a new processing run and returns its id.
func (s *Store) Begin(ctx context.Context, prompt, model, resolution string, width, height, fps int) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, prompt, model, resolution, width, height, fps, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, prompt, model, resolution, width, height, fps, StatusProcessing, now, now)
	if err != nil {
		return "", fmt.Errorf("catalog: insert run: %w", err)
	}
	return id, nil
}

// Complete marks a run as completed and records its artifact.
func (s *Store) Complete(ctx context.Context, id string, artifact *producer.Artifact) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, path = ?, size_bytes = ?, checksum = ?, frame_count = ?, duration_seconds = ?, updated_at = ?
		WHERE id = ?`,
		StatusCompleted, artifact.Path, artifact.SizeBytes, artifact.SHA256,
		artifact.FrameCount, artifact.DurationSeconds, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("catalog: complete run: %w", err)
	}
	return requireRow(res)
}

// Fail marks a run as failed with a reason.
func (s *Store) Fail(ctx context.Context, id, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, reason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("catalog: fail run: %w", err)
	}
	return requireRow(res)
}

// RecordUpload stores the dispatch outcome for a run.
func (s *Store) RecordUpload(ctx context.Context, id string, outcome upload.Outcome) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET upload_status = ?, remote_path = ?, updated_at = ? WHERE id = ?`,
		string(outcome.Status), outcome.RemotePath, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("catalog: record upload: %w", err)
	}
	return requireRow(res)
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	return s.queryOne(ctx, `SELECT `+columns+` FROM runs WHERE id = ?`, id)
}

// MostRecentCompleted returns the newest completed run, the one a
// "upload the latest artifact" utility should pick.
func (s *Store) MostRecentCompleted(ctx context.Context) (*Record, error) {
	return s.queryOne(ctx, `
		SELECT `+columns+` FROM runs
		WHERE status = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, StatusCompleted)
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+columns+` FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: list runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

const columns = `id, prompt, model, resolution, width, height, fps,
	duration_seconds, frame_count, path, size_bytes, checksum,
	status, error, upload_status, remote_path, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.Prompt, &rec.Model, &rec.Resolution, &rec.Width, &rec.Height, &rec.FPS,
		&rec.DurationSeconds, &rec.FrameCount, &rec.Path, &rec.SizeBytes, &rec.Checksum,
		&rec.Status, &rec.Error, &rec.UploadStatus, &rec.RemotePath, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
