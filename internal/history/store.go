package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/handiism/vidconv/internal/model"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Entry is one finished conversion.
type Entry struct {
	ID             string
	SourceURL      string
	Title          string
	FilePath       string
	FileSizeBytes  int64
	DurationMillis int64
	IsVideo        bool
	Items          int
	CompletedAt    time.Time
}

// Store persists entries. It is a completion sink for the session
// controller.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens or creates the database at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps sqlite from reporting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS conversions (
  id TEXT PRIMARY KEY,
  source_url TEXT NOT NULL,
  title TEXT NOT NULL,
  file_path TEXT NOT NULL UNIQUE,
  file_size INTEGER NOT NULL,
  duration_ms INTEGER NOT NULL,
  is_video INTEGER NOT NULL,
  items INTEGER NOT NULL,
  completed_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create conversions table: %w", err)
	}
	return nil
}

// Record stores result. Converting to the same file again replaces the
// earlier entry.
func (s *Store) Record(ctx context.Context, result *model.ConversionResult) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("entry id: %w", err)
	}

	const stmt = `
INSERT INTO conversions (id, source_url, title, file_path, file_size, duration_ms, is_video, items, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(file_path) DO UPDATE SET
  source_url=excluded.source_url,
  title=excluded.title,
  file_size=excluded.file_size,
  duration_ms=excluded.duration_ms,
  is_video=excluded.is_video,
  items=excluded.items,
  completed_at=excluded.completed_at;
`
	_, err = s.db.ExecContext(ctx, stmt,
		id.String(),
		result.SourceURL,
		result.Title,
		result.FilePath,
		result.FileSizeBytes,
		result.DurationMillis,
		result.IsVideo,
		len(result.Items),
		s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record conversion: %w", err)
	}
	return nil
}

// OnCompleted implements the controller's completion sink. Failures are
// logged since the conversion itself already succeeded.
func (s *Store) OnCompleted(ctx context.Context, result *model.ConversionResult) {
	if err := s.Record(ctx, result); err != nil {
		s.logger.WarnContext(ctx, "history not recorded",
			slog.String("file", result.FilePath),
			slog.Any("error", err),
		)
	}
}

// List returns up to limit entries, newest first. A limit of zero or less
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, source_url, title, file_path, file_size, duration_ms, is_video, items, completed_at
FROM conversions
ORDER BY completed_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			completed string
		)
		if err := rows.Scan(&e.ID, &e.SourceURL, &e.Title, &e.FilePath, &e.FileSizeBytes,
			&e.DurationMillis, &e.IsVideo, &e.Items, &completed); err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		e.CompletedAt, err = time.Parse(timeLayout, completed)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at %q: %w", completed, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
