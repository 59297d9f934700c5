// internal/services/export_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	apperrors "github.com/akashia/dreambank/internal/errors"
	"github.com/akashia/dreambank/internal/models"
	"github.com/akashia/dreambank/internal/storage"
	"github.com/akashia/dreambank/internal/utils"
)

// ExportService writes submissions as CSV or JSON and takes scheduled
// snapshots into <dataDir>/exports
type ExportService struct {
	store     storage.Store
	exportDir string
	logger    *utils.Logger
	now       func() time.Time

	mu        sync.Mutex
	scheduler *cron.Cron
}

func NewExportService(store storage.Store, dataDir string) *ExportService {
	return &ExportService{
		store:     store,
		exportDir: filepath.Join(dataDir, "exports"),
		logger:    utils.GetLogger(),
		now:       time.Now,
	}
}

func (s *ExportService) ExportDir() string {
	return s.exportDir
}

// WriteCSV writes records with the storage column layout
func (s *ExportService) WriteCSV(w io.Writer, records []models.Submission) error {
	if err := storage.WriteCSV(w, records); err != nil {
		return apperrors.NewProcessingError("write csv export", err)
	}
	return nil
}

// WriteJSON writes records as an indented array with decoded analyses
func (s *ExportService) WriteJSON(w io.Writer, records []models.Submission) error {
	views := make([]models.SubmissionView, 0, len(records))
	for _, rec := range records {
		views = append(views, models.NewSubmissionView(rec))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(views); err != nil {
		return apperrors.NewProcessingError("write json export", err)
	}
	return nil
}

// Write dispatches on format
func (s *ExportService) Write(w io.Writer, format string, records []models.Submission) error {
	switch strings.ToLower(format) {
	case models.ExportFormatCSV:
		return s.WriteCSV(w, records)
	case models.ExportFormatJSON:
		return s.WriteJSON(w, records)
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported export format: %s", format), nil)
	}
}

// Snapshot writes every stored submission to a timestamped file in the
// export directory
func (s *ExportService) Snapshot(ctx context.Context, format string) (*models.ExportResult, error) {
	if format == "" {
		format = models.ExportFormatCSV
	}
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	path := filepath.Join(s.exportDir, fmt.Sprintf("submissions-%s.%s", now.Format("20060102-150405"), format))
	if err := storage.WriteFileAtomic(path, func(w io.Writer) error {
		return s.Write(w, format, records)
	}); err != nil {
		return nil, apperrors.WrapError(err, "write export snapshot", apperrors.ErrorTypeStorage)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewStorageError("stat export snapshot", err)
	}

	result := &models.ExportResult{
		Format:      format,
		FilePath:    path,
		FileSize:    info.Size(),
		Rows:        len(records),
		GeneratedAt: now,
	}
	if len(records) > 0 {
		result.DateRange.StartDate = records[0].Timestamp
		result.DateRange.EndDate = records[0].Timestamp
		for _, rec := range records[1:] {
			if rec.Timestamp.Before(result.DateRange.StartDate) {
				result.DateRange.StartDate = rec.Timestamp
			}
			if rec.Timestamp.After(result.DateRange.EndDate) {
				result.DateRange.EndDate = rec.Timestamp
			}
		}
	}
	return result, nil
}

// StartSchedule takes a CSV snapshot on every tick of the cron spec. An
// empty spec leaves the scheduler off.
func (s *ExportService) StartSchedule(spec string) error {
	if strings.TrimSpace(spec) == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler != nil {
		return apperrors.NewConflictError("export schedule already running", nil)
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, s.runScheduledSnapshot); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid export schedule %q", spec), err)
	}
	c.Start()
	s.scheduler = c

	s.logger.Info("export schedule started", map[string]interface{}{
		"schedule": spec,
		"dir":      s.exportDir,
	})
	return nil
}

func (s *ExportService) runScheduledSnapshot() {
	result, err := s.Snapshot(context.Background(), models.ExportFormatCSV)
	if err != nil {
		utils.GetMetricsCollector().RecordError(string(apperrors.TypeOf(err)), "export")
		s.logger.Error("scheduled export failed", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("scheduled export written", map[string]interface{}{
		"path": result.FilePath,
		"rows": result.Rows,
	})
}

// Stop halts the scheduler and waits for a running snapshot to finish
func (s *ExportService) Stop() {
	s.mu.Lock()
	c := s.scheduler
	s.scheduler = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
