package storage

import "errors"

// Storage error constants
var (
	// ErrIOCNotFound is returned when an IOC is not found
	ErrIOCNotFound = errors.New("ioc not found")

	// ErrLogNotFound is returned when a security log is not found
	ErrLogNotFound = errors.New("security log not found")

	// ErrAnalysisNotFound is returned when an AI analysis is not found
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrThreatLogNotFound is returned when a threat log is not found
	ErrThreatLogNotFound = errors.New("threat log not found")

	// ErrIncidentNotFound is returned when an incident is not found
	ErrIncidentNotFound = errors.New("incident not found")

	// ErrCorrelationNotFound is returned when a correlation is not found
	ErrCorrelationNotFound = errors.New("correlation not found")

	// ErrFeedNotFound is returned when a threat feed is not found
	ErrFeedNotFound = errors.New("threat feed not found")

	// ErrImportNotFound is returned when an import record is not found
	ErrImportNotFound = errors.New("import record not found")

	// Generic storage errors

	// ErrNotFound is a generic "not found" error
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique constraint would be violated
	ErrDuplicate = errors.New("duplicate record")

	// ErrDatabaseClosed is returned when attempting to use a closed database connection
	ErrDatabaseClosed = errors.New("database is closed")
)
