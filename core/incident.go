package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// IncidentStatus represents the workflow status of an incident. Transitions
// are free-form; no ordering is enforced.
type IncidentStatus string

const (
	IncidentStatusOpen       IncidentStatus = "open"
	IncidentStatusInProgress IncidentStatus = "in_progress"
	IncidentStatusResolved   IncidentStatus = "resolved"
)

// AllIncidentStatuses returns all valid incident statuses
var AllIncidentStatuses = []IncidentStatus{
	IncidentStatusOpen, IncidentStatusInProgress, IncidentStatusResolved,
}

// IsValid checks if the incident status is valid
func (s IncidentStatus) IsValid() bool {
	for _, valid := range AllIncidentStatuses {
		if s == valid {
			return true
		}
	}
	return false
}

// Evidence is a weak reference from an incident to a supporting record
type Evidence struct {
	Kind  EntityKind `json:"kind" bson:"kind"`
	RefID string     `json:"ref_id" bson:"ref_id"`
}

// Incident represents a tracked security incident. Incidents are mutated
// incrementally (status, evidence list) and never deleted.
type Incident struct {
	ID          string         `json:"id" bson:"_id"`
	Title       string         `json:"title" bson:"title"`
	Description string         `json:"description,omitempty" bson:"description,omitempty"`
	Severity    Severity       `json:"severity" bson:"severity"`
	Status      IncidentStatus `json:"status" bson:"status"`
	Assignee    string         `json:"assignee,omitempty" bson:"assignee,omitempty"`
	Tags        []string       `json:"tags" bson:"tags"`
	Evidence    []Evidence     `json:"evidence" bson:"evidence"`
	CreatedBy   string         `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`

	MitreTechniques []string `json:"mitre_techniques,omitempty" bson:"mitre_techniques,omitempty"`
}

// NewIncident creates a new open incident with generated ID and validation
func NewIncident(title string, severity Severity, createdBy string) (*Incident, error) {
	if title == "" {
		return nil, fmt.Errorf("incident title is required")
	}
	if !severity.IsValid() {
		return nil, fmt.Errorf("invalid severity: %s", severity)
	}
	if createdBy == "" {
		return nil, fmt.Errorf("createdBy is required")
	}

	return &Incident{
		ID:        uuid.New().String(),
		Title:     title,
		Severity:  severity,
		Status:    IncidentStatusOpen,
		Tags:      []string{},
		Evidence:  []Evidence{},
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Validate performs full validation on an incident
func (inc *Incident) Validate() error {
	if inc.ID == "" {
		return fmt.Errorf("incident ID is required")
	}
	if inc.Title == "" {
		return fmt.Errorf("incident title is required")
	}
	if !inc.Severity.IsValid() {
		return fmt.Errorf("invalid severity: %s", inc.Severity)
	}
	if !inc.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", inc.Status)
	}
	for _, ev := range inc.Evidence {
		if !ev.Kind.IsValid() {
			return fmt.Errorf("invalid evidence kind: %s", ev.Kind)
		}
		if ev.RefID == "" {
			return fmt.Errorf("evidence ref_id is required")
		}
	}
	return nil
}

// DefaultIncidentListLimit is the default truncation for incident list queries
const DefaultIncidentListLimit = 50

// IncidentFilters defines filters for listing incidents
type IncidentFilters struct {
	Status string `json:"status"` // "" or "all" = any
	Limit  int    `json:"limit"`
}

// FilterIncidents returns the subset of incidents satisfying the filter,
// ordered by descending creation time and truncated to the limit.
func FilterIncidents(incidents []*Incident, f *IncidentFilters) []*Incident {
	matched := make([]*Incident, 0, len(incidents))
	for _, inc := range incidents {
		if f != nil && f.Status != "" && f.Status != FilterAll && string(inc.Status) != f.Status {
			continue
		}
		matched = append(matched, inc)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	limit := DefaultIncidentListLimit
	if f != nil && f.Limit > 0 {
		limit = f.Limit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// IncidentStorage defines the interface for incident persistence
type IncidentStorage interface {
	CreateIncident(ctx context.Context, incident *Incident) error
	GetIncident(ctx context.Context, id string) (*Incident, error)
	ListIncidents(ctx context.Context, filters *IncidentFilters) ([]*Incident, error)
	GetAllIncidents(ctx context.Context) ([]*Incident, error)

	UpdateIncidentStatus(ctx context.Context, id string, status IncidentStatus) error
	AddEvidence(ctx context.Context, id string, evidence Evidence) error
}
