// internal/storage/sqlite_store.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/akashia/dreambank/internal/errors"
	"github.com/akashia/dreambank/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps submissions in a single SQLite table
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the database at dbPath, creating the schema if needed.
// ":memory:" opens a private in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		connStr = "file::memory:?cache=shared"
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		timestamp TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		dream_type TEXT NOT NULL DEFAULT '',
		emotion TEXT NOT NULL DEFAULT '',
		age INTEGER,
		message TEXT NOT NULL,
		analysis TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_timestamp ON submissions(timestamp);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, sub models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var age sql.NullInt64
	if sub.Age != nil {
		age = sql.NullInt64{Int64: int64(*sub.Age), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, timestamp, name, email, region, dream_type, emotion, age, message, analysis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, FormatTimestamp(sub.Timestamp), sub.Name, sub.Email, sub.Region,
		sub.DreamType, sub.Emotion, age, sub.Message, sub.RawAnalysis,
	)
	if err != nil {
		return apperrors.NewStorageError("insert submission", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.Submission, error) {
	return s.query(ctx, `SELECT id, timestamp, name, email, region, dream_type, emotion, age, message, analysis
		FROM submissions ORDER BY seq`)
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (models.Submission, error) {
	rows, err := s.query(ctx, `SELECT id, timestamp, name, email, region, dream_type, emotion, age, message, analysis
		FROM submissions WHERE id = ?`, id)
	if err != nil {
		return models.Submission{}, err
	}
	if len(rows) == 0 {
		return models.Submission{}, apperrors.NewNotFoundError(fmt.Sprintf("submission %s not found", id), nil)
	}
	return rows[0], nil
}

// Close waits for in-flight operations before closing the database
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("query submissions", err)
	}
	defer rows.Close()

	out := []models.Submission{}
	for rows.Next() {
		var (
			sub models.Submission
			ts  string
			age sql.NullInt64
		)
		if err := rows.Scan(&sub.ID, &ts, &sub.Name, &sub.Email, &sub.Region,
			&sub.DreamType, &sub.Emotion, &age, &sub.Message, &sub.RawAnalysis); err != nil {
			return nil, apperrors.NewStorageError("scan submission", err)
		}
		if sub.Timestamp, err = ParseTimestamp(ts); err != nil {
			return nil, apperrors.NewStorageError("parse submission timestamp", err)
		}
		if age.Valid {
			v := int(age.Int64)
			sub.Age = &v
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewStorageError("iterate submissions", err)
	}
	return out, nil
}
