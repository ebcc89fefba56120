package core

import (
	"context"
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// IOC Types and Constants
// =============================================================================

// IOCType represents the type of indicator of compromise
type IOCType string

const (
	IOCTypeIP     IOCType = "ip"
	IOCTypeDomain IOCType = "domain"
	IOCTypeURL    IOCType = "url"
	IOCTypeHash   IOCType = "hash" // MD5, SHA1, SHA256, SHA512
	IOCTypeEmail  IOCType = "email"
	IOCTypeFile   IOCType = "file"
)

// AllIOCTypes returns all valid IOC types for validation
var AllIOCTypes = []IOCType{
	IOCTypeIP, IOCTypeDomain, IOCTypeURL, IOCTypeHash, IOCTypeEmail, IOCTypeFile,
}

// IsValid checks if the IOC type is valid
func (t IOCType) IsValid() bool {
	for _, valid := range AllIOCTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// Validation patterns - compiled once at package init
var (
	// Domain pattern - ReDoS-safe
	domainPattern = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)
	// Hash pattern - MD5(32), SHA1(40), SHA256(64), SHA512(128)
	hashPattern = regexp.MustCompile(`^[a-fA-F0-9]{32}$|^[a-fA-F0-9]{40}$|^[a-fA-F0-9]{64}$|^[a-fA-F0-9]{128}$`)
	// Filename pattern - basic safety check
	filenamePattern = regexp.MustCompile(`^[^<>:"/\\|?*\x00-\x1f]+$`)
)

// Maximum lengths for IOC fields
const (
	MaxIOCValueLength       = 4096
	MaxIOCDescriptionLength = 2000
	MaxIOCTagLength         = 100
	MaxIOCTagCount          = 50
)

// ValidateIOCValue validates an IOC value based on its type
func ValidateIOCValue(iocType IOCType, value string) error {
	if value == "" {
		return fmt.Errorf("IOC value cannot be empty")
	}
	if len(value) > MaxIOCValueLength {
		return fmt.Errorf("IOC value exceeds maximum length of %d characters", MaxIOCValueLength)
	}

	normalizedValue := strings.TrimSpace(value)

	switch iocType {
	case IOCTypeIP:
		if net.ParseIP(normalizedValue) == nil {
			return fmt.Errorf("invalid IP address format")
		}
	case IOCTypeDomain:
		lowered := strings.ToLower(normalizedValue)
		if !domainPattern.MatchString(lowered) {
			return fmt.Errorf("invalid domain format")
		}
	case IOCTypeURL:
		parsed, err := url.ParseRequestURI(normalizedValue)
		if err != nil {
			return fmt.Errorf("invalid URL format: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("URL must use http or https scheme")
		}
	case IOCTypeHash:
		if !hashPattern.MatchString(normalizedValue) {
			return fmt.Errorf("invalid hash format (must be MD5/SHA1/SHA256/SHA512)")
		}
	case IOCTypeEmail:
		if _, err := mail.ParseAddress(normalizedValue); err != nil {
			return fmt.Errorf("invalid email format: %w", err)
		}
	case IOCTypeFile:
		if !filenamePattern.MatchString(normalizedValue) {
			return fmt.Errorf("invalid filename format")
		}
	default:
		return fmt.Errorf("unknown IOC type: %s", iocType)
	}

	return nil
}

// =============================================================================
// IOC Struct
// =============================================================================

// IOC represents a persistent indicator of compromise
type IOC struct {
	ID          string   `json:"id" bson:"_id"`
	Type        IOCType  `json:"type" bson:"type"`
	Value       string   `json:"value" bson:"value"`
	Severity    Severity `json:"severity" bson:"severity"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Source      string   `json:"source" bson:"source"`
	Tags        []string `json:"tags" bson:"tags"`
	IsActive    bool     `json:"is_active" bson:"is_active"`

	FirstSeen  time.Time `json:"first_seen" bson:"first_seen"`
	LastSeen   time.Time `json:"last_seen" bson:"last_seen"`
	Confidence int       `json:"confidence" bson:"confidence"` // 0-100

	CreatedBy string    `json:"created_by" bson:"created_by"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// MITRE ATT&CK technique IDs tagged on this indicator (T1xxx)
	MitreTechniques []string `json:"mitre_techniques,omitempty" bson:"mitre_techniques,omitempty"`

	// Feed attribution (IOCs imported from a configured feed)
	FeedID string `json:"feed_id,omitempty" bson:"feed_id,omitempty"`
	// ImportBatch tags IOCs created by a bulk import
	ImportBatch string `json:"import_batch,omitempty" bson:"import_batch,omitempty"`
}

// NewIOC creates a new IOC with generated ID and validation
func NewIOC(iocType IOCType, value string, severity Severity, source, createdBy string) (*IOC, error) {
	if !iocType.IsValid() {
		return nil, fmt.Errorf("invalid IOC type: %s", iocType)
	}
	if err := ValidateIOCValue(iocType, value); err != nil {
		return nil, fmt.Errorf("invalid IOC value: %w", err)
	}
	if severity == "" {
		severity = SeverityMedium
	}
	if !severity.IsValid() {
		return nil, fmt.Errorf("invalid severity: %s", severity)
	}
	if createdBy == "" {
		return nil, fmt.Errorf("createdBy is required")
	}

	now := time.Now().UTC()
	return &IOC{
		ID:         uuid.New().String(),
		Type:       iocType,
		Value:      strings.TrimSpace(value),
		Severity:   severity,
		Source:     source,
		Tags:       []string{},
		IsActive:   true,
		FirstSeen:  now,
		LastSeen:   now,
		Confidence: 50,
		CreatedBy:  createdBy,
		CreatedAt:  now,
	}, nil
}

// Validate performs full validation on an IOC
func (ioc *IOC) Validate() error {
	if ioc.ID == "" {
		return fmt.Errorf("IOC ID is required")
	}
	if !ioc.Type.IsValid() {
		return fmt.Errorf("invalid IOC type: %s", ioc.Type)
	}
	if err := ValidateIOCValue(ioc.Type, ioc.Value); err != nil {
		return err
	}
	if !ioc.Severity.IsValid() {
		return fmt.Errorf("invalid severity: %s", ioc.Severity)
	}
	if ioc.Confidence < 0 || ioc.Confidence > 100 {
		return fmt.Errorf("confidence must be between 0 and 100")
	}
	if ioc.LastSeen.Before(ioc.FirstSeen) {
		return fmt.Errorf("last_seen must not precede first_seen")
	}
	if len(ioc.Description) > MaxIOCDescriptionLength {
		return fmt.Errorf("description exceeds maximum length of %d characters", MaxIOCDescriptionLength)
	}
	if len(ioc.Tags) > MaxIOCTagCount {
		return fmt.Errorf("too many tags (max %d)", MaxIOCTagCount)
	}
	for _, tag := range ioc.Tags {
		if len(tag) > MaxIOCTagLength {
			return fmt.Errorf("tag exceeds maximum length of %d characters", MaxIOCTagLength)
		}
	}
	return nil
}

// IOCUpdate holds the patchable IOC fields. Nil pointers leave the stored
// value untouched.
type IOCUpdate struct {
	Severity        *Severity `json:"severity,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	IsActive        *bool     `json:"is_active,omitempty"`
	Confidence      *int      `json:"confidence,omitempty"`
	MitreTechniques []string  `json:"mitre_techniques,omitempty"`
}

// Apply patches the IOC in place. LastSeen is refreshed only when the
// activity flag changes: metadata edits do not count as new sightings.
func (u *IOCUpdate) Apply(ioc *IOC) {
	if u.Severity != nil {
		ioc.Severity = *u.Severity
	}
	if u.Description != nil {
		ioc.Description = *u.Description
	}
	if u.Tags != nil {
		ioc.Tags = u.Tags
	}
	if u.Confidence != nil {
		ioc.Confidence = *u.Confidence
	}
	if u.MitreTechniques != nil {
		ioc.MitreTechniques = u.MitreTechniques
	}
	if u.IsActive != nil {
		ioc.IsActive = *u.IsActive
		ioc.LastSeen = time.Now().UTC()
	}
}

// =============================================================================
// IOC Filtering and Statistics
// =============================================================================

// DefaultIOCListLimit is the default truncation for IOC list queries
const DefaultIOCListLimit = 50

// IOCFilters defines filters for listing IOCs. Every predicate is optional;
// the empty/sentinel value means "no constraint". Active predicates combine
// as a conjunction.
type IOCFilters struct {
	Type     string `json:"type"`     // "" or "all" = any
	Severity string `json:"severity"` // "" or "all" = any
	IsActive *bool  `json:"is_active"`
	Search   string `json:"search"` // substring match on value/description
	Limit    int    `json:"limit"`
}

// Matches reports whether the IOC satisfies every active predicate.
func (f *IOCFilters) Matches(ioc *IOC) bool {
	if f.Type != "" && f.Type != FilterAll && string(ioc.Type) != f.Type {
		return false
	}
	if f.Severity != "" && f.Severity != FilterAll && string(ioc.Severity) != f.Severity {
		return false
	}
	if f.IsActive != nil && ioc.IsActive != *f.IsActive {
		return false
	}
	if f.Search != "" &&
		!strings.Contains(ioc.Value, f.Search) &&
		!strings.Contains(ioc.Description, f.Search) {
		return false
	}
	return true
}

// FilterIOCs returns the subset of iocs satisfying the filter conjunction,
// ordered by descending creation time and truncated to the limit.
func FilterIOCs(iocs []*IOC, f *IOCFilters) []*IOC {
	matched := make([]*IOC, 0, len(iocs))
	for _, ioc := range iocs {
		if f == nil || f.Matches(ioc) {
			matched = append(matched, ioc)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	limit := DefaultIOCListLimit
	if f != nil && f.Limit > 0 {
		limit = f.Limit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// IOCStats contains aggregated IOC metrics. Computed by a full scan; the
// collections are small enough that maintained counters are not warranted.
type IOCStats struct {
	Total      int            `json:"total"`
	Active     int            `json:"active"`
	BySeverity map[string]int `json:"by_severity"`
	ByType     map[string]int `json:"by_type"`
}

// ComputeIOCStats aggregates counts over the full IOC collection.
func ComputeIOCStats(iocs []*IOC) *IOCStats {
	stats := &IOCStats{
		BySeverity: make(map[string]int, len(AllSeverities)),
		ByType:     make(map[string]int, len(AllIOCTypes)),
	}
	for _, s := range AllSeverities {
		stats.BySeverity[string(s)] = 0
	}
	for _, t := range AllIOCTypes {
		stats.ByType[string(t)] = 0
	}
	for _, ioc := range iocs {
		stats.Total++
		if ioc.IsActive {
			stats.Active++
		}
		stats.BySeverity[string(ioc.Severity)]++
		stats.ByType[string(ioc.Type)]++
	}
	return stats
}

// =============================================================================
// IOC Storage Interface
// =============================================================================

// IOCStorage defines the interface for IOC persistence
type IOCStorage interface {
	CreateIOC(ctx context.Context, ioc *IOC) error
	GetIOC(ctx context.Context, id string) (*IOC, error)
	UpdateIOC(ctx context.Context, ioc *IOC) error
	DeleteIOC(ctx context.Context, id string) error

	ListIOCs(ctx context.Context, filters *IOCFilters) ([]*IOC, error)
	GetAllIOCs(ctx context.Context) ([]*IOC, error)
	GetIOCStats(ctx context.Context) (*IOCStats, error)
}
