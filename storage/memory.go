package storage

import (
	"context"
	"sync"
	"time"

	"argus/core"
)

// MemoryStore is an in-memory backend implementing every core storage
// interface. It backs tests and the ephemeral server mode, and mirrors the
// MongoDB backend's semantics including the atomic correlation upsert.
type MemoryStore struct {
	mu sync.RWMutex

	iocs            map[string]*core.IOC
	logs            []*core.SecurityLog
	analyses        map[string]*core.AIAnalysis
	threatLogs      map[string]*core.ThreatLog
	incidents       map[string]*core.Incident
	correlations    map[string]*core.Correlation
	correlationKeys map[string]string
	feeds           map[string]*core.ThreatFeed
	imports         []*core.ImportRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		iocs:            make(map[string]*core.IOC),
		analyses:        make(map[string]*core.AIAnalysis),
		threatLogs:      make(map[string]*core.ThreatLog),
		incidents:       make(map[string]*core.Incident),
		correlations:    make(map[string]*core.Correlation),
		correlationKeys: make(map[string]string),
		feeds:           make(map[string]*core.ThreatFeed),
	}
}

// IOCs

func (m *MemoryStore) CreateIOC(ctx context.Context, ioc *core.IOC) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.iocs[ioc.ID]; exists {
		return ErrDuplicate
	}
	m.iocs[ioc.ID] = ioc
	return nil
}

func (m *MemoryStore) GetIOC(ctx context.Context, id string) (*core.IOC, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ioc, ok := m.iocs[id]
	if !ok {
		return nil, ErrIOCNotFound
	}
	return ioc, nil
}

func (m *MemoryStore) UpdateIOC(ctx context.Context, ioc *core.IOC) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.iocs[ioc.ID]; !ok {
		return ErrIOCNotFound
	}
	m.iocs[ioc.ID] = ioc
	return nil
}

func (m *MemoryStore) DeleteIOC(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.iocs[id]; !ok {
		return ErrIOCNotFound
	}
	delete(m.iocs, id)
	return nil
}

func (m *MemoryStore) ListIOCs(ctx context.Context, filters *core.IOCFilters) ([]*core.IOC, error) {
	iocs, _ := m.GetAllIOCs(ctx)
	return core.FilterIOCs(iocs, filters), nil
}

func (m *MemoryStore) GetAllIOCs(ctx context.Context) ([]*core.IOC, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	iocs := make([]*core.IOC, 0, len(m.iocs))
	for _, ioc := range m.iocs {
		iocs = append(iocs, ioc)
	}
	return iocs, nil
}

func (m *MemoryStore) GetIOCStats(ctx context.Context) (*core.IOCStats, error) {
	iocs, _ := m.GetAllIOCs(ctx)
	return core.ComputeIOCStats(iocs), nil
}

// Security logs

func (m *MemoryStore) CreateLog(ctx context.Context, log *core.SecurityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MemoryStore) ListLogs(ctx context.Context, filters *core.LogFilters) ([]*core.SecurityLog, error) {
	logs, _ := m.GetAllLogs(ctx)
	return core.FilterLogs(logs, filters), nil
}

func (m *MemoryStore) GetAllLogs(ctx context.Context) ([]*core.SecurityLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	logs := make([]*core.SecurityLog, len(m.logs))
	copy(logs, m.logs)
	return logs, nil
}

func (m *MemoryStore) GetLogStats(ctx context.Context) (*core.LogStats, error) {
	logs, _ := m.GetAllLogs(ctx)
	return core.ComputeLogStats(logs, time.Now().UTC()), nil
}

// AI analyses

func (m *MemoryStore) CreateAnalysis(ctx context.Context, analysis *core.AIAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses[analysis.ID] = analysis
	return nil
}

func (m *MemoryStore) GetAnalysis(ctx context.Context, id string) (*core.AIAnalysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	analysis, ok := m.analyses[id]
	if !ok {
		return nil, ErrAnalysisNotFound
	}
	return analysis, nil
}

func (m *MemoryStore) ListAnalyses(ctx context.Context, filters *core.AnalysisFilters) ([]*core.AIAnalysis, error) {
	analyses, _ := m.GetAllAnalyses(ctx)
	return core.FilterAnalyses(analyses, filters), nil
}

func (m *MemoryStore) GetAllAnalyses(ctx context.Context) ([]*core.AIAnalysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	analyses := make([]*core.AIAnalysis, 0, len(m.analyses))
	for _, analysis := range m.analyses {
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

func (m *MemoryStore) GetAnalysisStats(ctx context.Context, liveOnly bool) (*core.AnalysisStats, error) {
	analyses, _ := m.GetAllAnalyses(ctx)
	return core.ComputeAnalysisStats(analyses, liveOnly), nil
}

// Threat logs

func (m *MemoryStore) CreateThreatLog(ctx context.Context, log *core.ThreatLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threatLogs[log.ID] = log
	return nil
}

func (m *MemoryStore) GetThreatLog(ctx context.Context, id string) (*core.ThreatLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log, ok := m.threatLogs[id]
	if !ok {
		return nil, ErrThreatLogNotFound
	}
	return log, nil
}

func (m *MemoryStore) ListThreatLogs(ctx context.Context, filters *core.ThreatLogFilters) ([]*core.ThreatLog, error) {
	m.mu.RLock()
	logs := make([]*core.ThreatLog, 0, len(m.threatLogs))
	for _, log := range m.threatLogs {
		logs = append(logs, log)
	}
	m.mu.RUnlock()
	return core.FilterThreatLogs(logs, filters), nil
}

func (m *MemoryStore) GetAllThreatLogs(ctx context.Context) ([]*core.ThreatLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	logs := make([]*core.ThreatLog, 0, len(m.threatLogs))
	for _, log := range m.threatLogs {
		logs = append(logs, log)
	}
	return logs, nil
}

func (m *MemoryStore) GetLatestThreatLog(ctx context.Context) (*core.ThreatLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *core.ThreatLog
	for _, log := range m.threatLogs {
		if latest == nil || log.Timestamp.After(latest.Timestamp) {
			latest = log
		}
	}
	if latest == nil {
		return nil, ErrThreatLogNotFound
	}
	return latest, nil
}

func (m *MemoryStore) MarkAnalyzed(ctx context.Context, id, analysisID string, severity core.Severity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log, ok := m.threatLogs[id]
	if !ok {
		return ErrThreatLogNotFound
	}
	log.Analyzed = true
	log.AIAnalysisID = analysisID
	log.Severity = severity
	return nil
}

// Incidents

func (m *MemoryStore) CreateIncident(ctx context.Context, incident *core.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incidents[incident.ID] = incident
	return nil
}

func (m *MemoryStore) GetIncident(ctx context.Context, id string) (*core.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	incident, ok := m.incidents[id]
	if !ok {
		return nil, ErrIncidentNotFound
	}
	return incident, nil
}

func (m *MemoryStore) ListIncidents(ctx context.Context, filters *core.IncidentFilters) ([]*core.Incident, error) {
	incidents, _ := m.GetAllIncidents(ctx)
	return core.FilterIncidents(incidents, filters), nil
}

func (m *MemoryStore) GetAllIncidents(ctx context.Context) ([]*core.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	incidents := make([]*core.Incident, 0, len(m.incidents))
	for _, incident := range m.incidents {
		incidents = append(incidents, incident)
	}
	return incidents, nil
}

func (m *MemoryStore) UpdateIncidentStatus(ctx context.Context, id string, status core.IncidentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	incident, ok := m.incidents[id]
	if !ok {
		return ErrIncidentNotFound
	}
	incident.Status = status
	return nil
}

func (m *MemoryStore) AddEvidence(ctx context.Context, id string, evidence core.Evidence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	incident, ok := m.incidents[id]
	if !ok {
		return ErrIncidentNotFound
	}
	incident.Evidence = append(incident.Evidence, evidence)
	return nil
}

// Correlations

func (m *MemoryStore) UpsertCorrelation(ctx context.Context, c *core.Correlation) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := c.Key()
	if existingID, ok := m.correlationKeys[key]; ok {
		return existingID, false, nil
	}
	m.correlations[c.ID] = c
	m.correlationKeys[key] = c.ID
	return c.ID, true, nil
}

func (m *MemoryStore) GetCorrelationsForEntity(ctx context.Context, kind core.EntityKind, id string) ([]*core.Correlation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matches := make([]*core.Correlation, 0)
	for _, c := range m.correlations {
		if (c.SourceKind == kind && c.SourceID == id) || (c.TargetKind == kind && c.TargetID == id) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

func (m *MemoryStore) GetAllCorrelations(ctx context.Context) ([]*core.Correlation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	correlations := make([]*core.Correlation, 0, len(m.correlations))
	for _, c := range m.correlations {
		correlations = append(correlations, c)
	}
	return correlations, nil
}

func (m *MemoryStore) GetCorrelationStats(ctx context.Context) (*core.CorrelationStats, error) {
	correlations, _ := m.GetAllCorrelations(ctx)
	return core.ComputeCorrelationStats(correlations), nil
}

// Threat feeds

func (m *MemoryStore) CreateFeed(ctx context.Context, feed *core.ThreatFeed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feeds[feed.ID] = feed
	return nil
}

func (m *MemoryStore) GetFeed(ctx context.Context, id string) (*core.ThreatFeed, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	feed, ok := m.feeds[id]
	if !ok {
		return nil, ErrFeedNotFound
	}
	return feed, nil
}

func (m *MemoryStore) ListFeeds(ctx context.Context) ([]*core.ThreatFeed, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	feeds := make([]*core.ThreatFeed, 0, len(m.feeds))
	for _, feed := range m.feeds {
		feeds = append(feeds, feed)
	}
	core.SortFeedsByRecency(feeds)
	return feeds, nil
}

func (m *MemoryStore) SetFeedEnabled(ctx context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	feed, ok := m.feeds[id]
	if !ok {
		return ErrFeedNotFound
	}
	feed.Enabled = enabled
	return nil
}

func (m *MemoryStore) DeleteFeed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.feeds[id]; !ok {
		return ErrFeedNotFound
	}
	delete(m.feeds, id)
	return nil
}

// Import history

func (m *MemoryStore) CreateImportRecord(ctx context.Context, record *core.ImportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imports = append(m.imports, record)
	return nil
}

func (m *MemoryStore) ListImportRecords(ctx context.Context, limit int) ([]*core.ImportRecord, error) {
	m.mu.RLock()
	records := make([]*core.ImportRecord, len(m.imports))
	copy(records, m.imports)
	m.mu.RUnlock()

	core.SortImportsByRecency(records)
	if limit <= 0 {
		limit = core.DefaultImportHistoryLimit
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
