// internal/storage/store.go
package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akashia/dreambank/internal/config"
	"github.com/akashia/dreambank/internal/models"
)

// Store persists dream submissions. Rows are returned in insertion order.
type Store interface {
	Append(ctx context.Context, s models.Submission) error
	List(ctx context.Context) ([]models.Submission, error)
	Get(ctx context.Context, id string) (models.Submission, error)
	Close() error
}

// Columns is the column order shared by the CSV store, the SQLite table and
// CSV exports
var Columns = []string{"id", "timestamp", "name", "email", "region", "dream_type", "emotion", "age", "message", "analysis"}

// Open returns the store selected by cfg.StorageDriver
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case config.StorageCSV, "":
		return NewCSVStore(cfg.CSVPath)
	case config.StorageSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidStorageDriver, cfg.StorageDriver)
	}
}

// Record renders a submission as a row in Columns order
func Record(s models.Submission) []string {
	age := ""
	if s.Age != nil {
		age = strconv.Itoa(*s.Age)
	}
	return []string{
		s.ID,
		FormatTimestamp(s.Timestamp),
		s.Name,
		s.Email,
		s.Region,
		s.DreamType,
		s.Emotion,
		age,
		s.Message,
		s.RawAnalysis,
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampLayouts also accepts naive ISO timestamps written by older exports
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a stored timestamp, treating naive values as UTC
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func parseAge(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	age, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid age %q: %w", value, err)
	}
	return &age, nil
}
