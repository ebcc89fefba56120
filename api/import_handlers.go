package api

import (
	"net/http"

	"argus/core"
	"argus/metrics"
	"github.com/go-playground/validator/v10"
)

// importRowRequest is one candidate IOC in a bulk import
type importRowRequest struct {
	Type        string   `json:"type"`
	Value       string   `json:"value"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	Source      string   `json:"source"`
	Tags        []string `json:"tags"`
	Confidence  int      `json:"confidence"`
}

// bulkImportRequest is the body for POST /api/iocs/import
type bulkImportRequest struct {
	IOCs     []importRowRequest `json:"iocs" validate:"required,min=1"`
	FileType string             `json:"file_type" validate:"required,oneof=csv json"`
}

// bulkImportResponse summarizes a completed import
type bulkImportResponse struct {
	BatchID      string                `json:"batch_id"`
	SuccessCount int                   `json:"success_count"`
	FailureCount int                   `json:"failure_count"`
	Errors       []core.ImportRowError `json:"errors"`
}

// bulkImportIOCs imports candidate IOCs row by row. A bad row is recorded
// with its 1-based index and skipped; it never aborts the batch.
func (a *API) bulkImportIOCs(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", errAuthRequired, a.logger)
		return
	}

	var req bulkImportRequest
	if err := a.decodeJSONBody(w, r, &req); err != nil {
		return
	}
	validate := validator.New()
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid import request", err, a.logger)
		return
	}

	record, err := core.NewImportRecord(identity.ID, core.ImportFileType(req.FileType))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid import request", err, a.logger)
		return
	}

	rowErrors := make([]core.ImportRowError, 0)
	successCount := 0
	for i, row := range req.IOCs {
		ioc, err := a.importRow(r, &row, identity.ID, record.BatchID)
		if err != nil {
			metrics.ImportRows.WithLabelValues("failed").Inc()
			rowErrors = append(rowErrors, core.ImportRowError{Row: i + 1, Error: err.Error()})
			continue
		}
		metrics.ImportRows.WithLabelValues("ok").Inc()
		metrics.IOCsCreated.WithLabelValues(string(ioc.Type)).Inc()
		successCount++
	}

	record.TotalRecords = len(req.IOCs)
	record.SuccessCount = successCount
	record.FailureCount = len(rowErrors)
	record.Errors = rowErrors
	if err := a.stores.Imports.CreateImportRecord(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record import history", err, a.logger)
		return
	}

	a.logger.Infow("Bulk import completed",
		"batch_id", record.BatchID,
		"total", record.TotalRecords,
		"succeeded", successCount,
		"failed", len(rowErrors))
	a.respondJSON(w, bulkImportResponse{
		BatchID:      record.BatchID,
		SuccessCount: successCount,
		FailureCount: len(rowErrors),
		Errors:       rowErrors,
	}, http.StatusOK)
}

// importRow builds and persists a single imported IOC
func (a *API) importRow(r *http.Request, row *importRowRequest, createdBy, batchID string) (*core.IOC, error) {
	source := row.Source
	if source == "" {
		source = "bulk_import"
	}

	ioc, err := core.NewIOC(core.IOCType(row.Type), row.Value, core.Severity(row.Severity), source, createdBy)
	if err != nil {
		return nil, err
	}
	ioc.Description = row.Description
	ioc.Tags = append(append([]string{}, row.Tags...), "bulk_import", batchID)
	ioc.ImportBatch = batchID
	if row.Confidence > 0 {
		ioc.Confidence = row.Confidence
	} else {
		ioc.Confidence = 75
	}

	if err := ioc.Validate(); err != nil {
		return nil, err
	}
	if err := a.stores.IOCs.CreateIOC(r.Context(), ioc); err != nil {
		return nil, err
	}
	return ioc, nil
}

func (a *API) listImportRecords(w http.ResponseWriter, r *http.Request) {
	records, err := a.stores.Imports.ListImportRecords(r.Context(), parseLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list import history", err, a.logger)
		return
	}
	a.respondJSON(w, records, http.StatusOK)
}
