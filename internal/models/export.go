// internal/models/export.go
package models

import (
	"time"
)

// Export formats
const (
	ExportFormatCSV  = "csv"
	ExportFormatJSON = "json"
)

// ExportResult describes one export written to disk
type ExportResult struct {
	Format      string    `json:"format"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
	Rows        int       `json:"rows"`
	GeneratedAt time.Time `json:"generated_at"`
	DateRange   DateRange `json:"date_range"`
}

// DateRange spans the submissions included in an export
type DateRange struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}
