// internal/storage/file_storage.go
package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	apperrors "github.com/akashia/dreambank/internal/errors"
	"github.com/akashia/dreambank/internal/models"
	"github.com/akashia/dreambank/internal/utils"
)

// fileLocks is shared by every store so two stores on the same path
// serialize their writes. path -> *sync.RWMutex
var fileLocks sync.Map

func getFileLock(path string) *sync.RWMutex {
	value, _ := fileLocks.LoadOrStore(path, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

// CSVStore keeps submissions in a single CSV file with a header row
type CSVStore struct {
	path  string
	cache *rowCache
}

// NewCSVStore opens (and creates if needed) the CSV file at path. A file
// written with an older header is rewritten with the current columns.
func NewCSVStore(path string) (*CSVStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve csv path: %w", err)
	}
	s := &CSVStore{path: absPath, cache: newRowCache(4, 5*time.Minute)}

	lock := getFileLock(absPath)
	lock.Lock()
	defer lock.Unlock()

	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CSVStore) Path() string {
	return s.path
}

// ensureFile creates the file with its header, or migrates a legacy header.
// Callers hold the write lock.
func (s *CSVStore) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return apperrors.NewStorageError("create storage directory", err)
	}

	header, err := s.readHeader()
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, io.EOF):
		return WriteFileAtomic(s.path, func(w io.Writer) error {
			return writeCSV(w, nil)
		})
	case err != nil:
		return apperrors.NewStorageError("read csv header", err)
	case slices.Equal(header, Columns):
		return nil
	}

	rows, err := s.readRows()
	if err != nil {
		return err
	}
	utils.GetLogger().Info("migrating submissions file to current columns", map[string]interface{}{
		"path": s.path,
		"rows": len(rows),
	})
	return WriteFileAtomic(s.path, func(w io.Writer) error {
		return writeCSV(w, rows)
	})
}

func (s *CSVStore) readHeader() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).Read()
}

// Append writes one row at the end of the file
func (s *CSVStore) Append(ctx context.Context, sub models.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := getFileLock(s.path)
	lock.Lock()
	defer lock.Unlock()

	if err := s.ensureFile(); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return apperrors.NewStorageError("open csv for append", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Record(sub)); err != nil {
		return apperrors.NewStorageError("write csv row", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.NewStorageError("flush csv row", err)
	}

	s.cache.invalidate(s.path)
	return nil
}

// List returns every stored row in file order
func (s *CSVStore) List(ctx context.Context) ([]models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := getFileLock(s.path)
	lock.RLock()
	defer lock.RUnlock()

	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Submission{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("stat csv", err)
	}
	if rows, ok := s.cache.get(s.path, info); ok {
		return rows, nil
	}

	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}
	s.cache.put(s.path, info, rows)
	return rows, nil
}

// Get returns the row with the given id
func (s *CSVStore) Get(ctx context.Context, id string) (models.Submission, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return models.Submission{}, err
	}
	for _, row := range rows {
		if row.ID == id {
			return row, nil
		}
	}
	return models.Submission{}, apperrors.NewNotFoundError(fmt.Sprintf("submission %s not found", id), nil)
}

func (s *CSVStore) Close() error {
	s.cache.invalidate(s.path)
	return nil
}

// readRows decodes the whole file, mapping columns by header name. Rows
// without an id (older files) get a positional one.
func (s *CSVStore) readRows() ([]models.Submission, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, apperrors.NewStorageError("open csv", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []models.Submission{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("read csv header", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	rows := []models.Submission{}
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewStorageError(fmt.Sprintf("read csv line %d", line), err)
		}

		field := func(name string) string {
			if i, ok := index[name]; ok && i < len(record) {
				return record[i]
			}
			return ""
		}

		sub := models.Submission{
			ID:          field("id"),
			Name:        field("name"),
			Email:       field("email"),
			Region:      field("region"),
			DreamType:   field("dream_type"),
			Emotion:     field("emotion"),
			Message:     field("message"),
			RawAnalysis: field("analysis"),
		}
		if sub.ID == "" {
			sub.ID = fmt.Sprintf("row-%d", line-1)
		}
		if ts := field("timestamp"); ts != "" {
			if sub.Timestamp, err = ParseTimestamp(ts); err != nil {
				utils.GetLogger().Warn("skipping unparseable timestamp", map[string]interface{}{
					"line":  line,
					"error": err.Error(),
				})
			}
		}
		if sub.Age, err = parseAge(field("age")); err != nil {
			utils.GetLogger().Warn("skipping unparseable age", map[string]interface{}{
				"line":  line,
				"error": err.Error(),
			})
		}
		rows = append(rows, sub)
	}
	return rows, nil
}

// WriteCSV writes the header and rows in Columns order
func WriteCSV(w io.Writer, rows []models.Submission) error {
	return writeCSV(w, rows)
}

func writeCSV(w io.Writer, rows []models.Submission) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(Record(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFileAtomic writes path through a temporary file and a rename
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tempPath := path + ".tmp"
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			utils.GetLogger().Warn("failed to clean up temporary file", map[string]interface{}{
				"path":  tempPath,
				"error": removeErr.Error(),
			})
		}
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
