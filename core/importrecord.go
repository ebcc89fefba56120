package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ImportFileType represents the file format of a bulk import
type ImportFileType string

const (
	ImportFileTypeCSV  ImportFileType = "csv"
	ImportFileTypeJSON ImportFileType = "json"
)

// IsValid checks if the import file type is valid
func (t ImportFileType) IsValid() bool {
	return t == ImportFileTypeCSV || t == ImportFileTypeJSON
}

// ImportRowError records a single failed row in a bulk import. Row numbers
// are 1-based. The message is intentionally coarse: every validation failure
// surfaces the row's error text without a typed code.
type ImportRowError struct {
	Row   int    `json:"row" bson:"row"`
	Error string `json:"error" bson:"error"`
}

// ImportRecord is the stored history entry for one bulk import batch
type ImportRecord struct {
	ID           string           `json:"id" bson:"_id"`
	BatchID      string           `json:"batch_id" bson:"batch_id"`
	ImportedBy   string           `json:"imported_by" bson:"imported_by"`
	Timestamp    time.Time        `json:"timestamp" bson:"timestamp"`
	TotalRecords int              `json:"total_records" bson:"total_records"`
	SuccessCount int              `json:"success_count" bson:"success_count"`
	FailureCount int              `json:"failure_count" bson:"failure_count"`
	FileType     ImportFileType   `json:"file_type" bson:"file_type"`
	Errors       []ImportRowError `json:"errors,omitempty" bson:"errors,omitempty"`
}

// NewImportRecord creates an import history entry with generated IDs
func NewImportRecord(importedBy string, fileType ImportFileType) (*ImportRecord, error) {
	if importedBy == "" {
		return nil, fmt.Errorf("importedBy is required")
	}
	if !fileType.IsValid() {
		return nil, fmt.Errorf("invalid import file type: %s", fileType)
	}

	now := time.Now().UTC()
	return &ImportRecord{
		ID:         uuid.New().String(),
		BatchID:    fmt.Sprintf("import_%d_%s", now.UnixMilli(), importedBy),
		ImportedBy: importedBy,
		Timestamp:  now,
		FileType:   fileType,
	}, nil
}

// DefaultImportHistoryLimit is the default truncation for import history queries
const DefaultImportHistoryLimit = 20

// SortImportsByRecency orders import records newest-first in place.
func SortImportsByRecency(records []*ImportRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}

// ImportStorage defines the interface for import history persistence
type ImportStorage interface {
	CreateImportRecord(ctx context.Context, record *ImportRecord) error
	ListImportRecords(ctx context.Context, limit int) ([]*ImportRecord, error)
}
