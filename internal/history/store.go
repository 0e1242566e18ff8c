// internal/history/store.go
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// Kind distinguishes prediction-only runs from full benchmark runs.
type Kind string

const (
	KindPredict   Kind = "predict"
	KindBenchmark Kind = "benchmark"
)

// Entry is one recorded run.
type Entry struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
	Model    string `json:"model,omitempty"`
	// Tool is the recommended or requested tool.
	Tool string `json:"tool,omitempty"`
	// Ratios holds per-tool compression ratios for benchmark runs.
	Ratios    map[string]float64 `json:"ratios,omitempty"`
	Seconds   float64            `json:"seconds"`
	CreatedAt time.Time          `json:"created_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	file_name  TEXT NOT NULL,
	file_size  INTEGER NOT NULL,
	file_type  TEXT NOT NULL,
	model      TEXT NOT NULL DEFAULT '',
	tool       TEXT NOT NULL DEFAULT '',
	ratios     TEXT NOT NULL DEFAULT '{}',
	seconds    REAL NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Store persists run history in a sqlite database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates the database file (and its directory) if needed and
// applies the schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("history: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}

	logger.Info("history store ready", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one run, filling in the id and timestamp when the
// caller left them empty, and returns the completed entry.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	ratios, err := json.Marshal(entry.Ratios)
	if err != nil {
		return Entry{}, fmt.Errorf("history: encode ratios: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs(id, kind, file_name, file_size, file_type, model, tool, ratios, seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.Kind), entry.FileName, entry.FileSize, entry.FileType,
		entry.Model, entry.Tool, string(ratios), entry.Seconds, entry.CreatedAt.UnixNano())
	if err != nil {
		return Entry{}, fmt.Errorf("history: insert run: %w", err)
	}

	s.logger.Debug("run recorded",
		zap.String("id", entry.ID),
		zap.String("kind", string(entry.Kind)),
		zap.String("file", entry.FileName))
	return entry, nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, file_name, file_size, file_type, model, tool, ratios, seconds, created_at
		FROM runs
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			kind    string
			ratios  string
			created int64
		)
		if err := rows.Scan(&entry.ID, &kind, &entry.FileName, &entry.FileSize, &entry.FileType,
			&entry.Model, &entry.Tool, &ratios, &entry.Seconds, &created); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		entry.Kind = Kind(kind)
		entry.CreatedAt = time.Unix(0, created).UTC()
		if ratios != "" && ratios != "null" {
			if err := json.Unmarshal([]byte(ratios), &entry.Ratios); err != nil {
				return nil, fmt.Errorf("history: decode ratios: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return entries, nil
}
