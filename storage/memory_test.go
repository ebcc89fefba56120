package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"argus/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ core.IOCStorage         = (*MemoryStore)(nil)
	_ core.LogStorage         = (*MemoryStore)(nil)
	_ core.AnalysisStorage    = (*MemoryStore)(nil)
	_ core.ThreatLogStorage   = (*MemoryStore)(nil)
	_ core.IncidentStorage    = (*MemoryStore)(nil)
	_ core.CorrelationStorage = (*MemoryStore)(nil)
	_ core.FeedStorage        = (*MemoryStore)(nil)
	_ core.ImportStorage      = (*MemoryStore)(nil)
)

func testIOC(t *testing.T, value string) *core.IOC {
	t.Helper()
	ioc, err := core.NewIOC(core.IOCTypeIP, value, core.SeverityHigh, "firewall", "analyst-1")
	require.NoError(t, err)
	return ioc
}

func TestMemoryStore_IOCLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	ioc := testIOC(t, "10.0.0.1")
	require.NoError(t, store.CreateIOC(ctx, ioc))
	assert.ErrorIs(t, store.CreateIOC(ctx, ioc), ErrDuplicate)

	got, err := store.GetIOC(ctx, ioc.ID)
	require.NoError(t, err)
	assert.Equal(t, ioc.Value, got.Value)

	ioc.Description = "updated"
	require.NoError(t, store.UpdateIOC(ctx, ioc))

	stats, err := store.GetIOCStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)

	require.NoError(t, store.DeleteIOC(ctx, ioc.ID))
	assert.ErrorIs(t, store.DeleteIOC(ctx, ioc.ID), ErrIOCNotFound)

	_, err = store.GetIOC(ctx, ioc.ID)
	assert.ErrorIs(t, err, ErrIOCNotFound)
}

func TestMemoryStore_ListIOCsAppliesFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.CreateIOC(ctx, testIOC(t, "10.0.0.1")))
	domain, err := core.NewIOC(core.IOCTypeDomain, "evil.example.com", core.SeverityLow, "osint", "analyst-1")
	require.NoError(t, err)
	require.NoError(t, store.CreateIOC(ctx, domain))

	out, err := store.ListIOCs(ctx, &core.IOCFilters{Type: "domain"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.ID, out[0].ID)
}

func TestMemoryStore_Logs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, log := range core.SampleLogs() {
		require.NoError(t, store.CreateLog(ctx, log))
	}

	out, err := store.ListLogs(ctx, &core.LogFilters{Level: "critical"})
	require.NoError(t, err)
	assert.Len(t, out, 1)

	stats, err := store.GetLogStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
}

func TestMemoryStore_ThreatLogLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetLatestThreatLog(ctx)
	assert.ErrorIs(t, err, ErrThreatLogNotFound)

	older, err := core.NewThreatLog(`{"a":1}`, "sensor", "scan")
	require.NoError(t, err)
	older.Timestamp = time.Now().UTC().Add(-1 * time.Hour)
	newer, err := core.NewThreatLog(`{"b":2}`, "sensor", "scan")
	require.NoError(t, err)

	require.NoError(t, store.CreateThreatLog(ctx, older))
	require.NoError(t, store.CreateThreatLog(ctx, newer))

	latest, err := store.GetLatestThreatLog(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)

	require.NoError(t, store.MarkAnalyzed(ctx, newer.ID, "analysis-1", core.SeverityHigh))
	got, err := store.GetThreatLog(ctx, newer.ID)
	require.NoError(t, err)
	assert.True(t, got.Analyzed)
	assert.Equal(t, "analysis-1", got.AIAnalysisID)
	assert.Equal(t, core.SeverityHigh, got.Severity)

	assert.ErrorIs(t, store.MarkAnalyzed(ctx, "missing", "x", core.SeverityLow), ErrThreatLogNotFound)

	analyzed := false
	pending, err := store.ListThreatLogs(ctx, &core.ThreatLogFilters{Analyzed: &analyzed})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, older.ID, pending[0].ID)

	// Unbounded read returns everything regardless of list limits
	all, err := store.GetAllThreatLogs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStore_Incidents(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	incident, err := core.NewIncident("Phishing wave", core.SeverityHigh, "analyst-1")
	require.NoError(t, err)
	require.NoError(t, store.CreateIncident(ctx, incident))

	require.NoError(t, store.UpdateIncidentStatus(ctx, incident.ID, core.IncidentStatusInProgress))
	require.NoError(t, store.AddEvidence(ctx, incident.ID, core.Evidence{Kind: core.EntityKindIOC, RefID: "ioc-1"}))

	got, err := store.GetIncident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, core.IncidentStatusInProgress, got.Status)
	require.Len(t, got.Evidence, 1)
	assert.Equal(t, "ioc-1", got.Evidence[0].RefID)

	open, err := store.ListIncidents(ctx, &core.IncidentFilters{Status: "open"})
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestMemoryStore_CorrelationUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := core.NewCorrelation(core.EntityKindIOC, "ioc-1", core.EntityKindLog, "log-1", "ip_match", 85)
	require.NoError(t, err)
	id, created, err := store.UpsertCorrelation(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first.ID, id)

	// Same pair again returns the existing record
	duplicate, err := core.NewCorrelation(core.EntityKindIOC, "ioc-1", core.EntityKindLog, "log-1", "temporal", 40)
	require.NoError(t, err)
	id, created, err = store.UpsertCorrelation(ctx, duplicate)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, id)

	all, err := store.GetAllCorrelations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	forIOC, err := store.GetCorrelationsForEntity(ctx, core.EntityKindIOC, "ioc-1")
	require.NoError(t, err)
	assert.Len(t, forIOC, 1)
	forLog, err := store.GetCorrelationsForEntity(ctx, core.EntityKindLog, "log-1")
	require.NoError(t, err)
	assert.Len(t, forLog, 1)
	none, err := store.GetCorrelationsForEntity(ctx, core.EntityKindIOC, "ioc-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_CorrelationUpsert_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const workers = 16
	createdCount := 0
	var countMu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := core.NewCorrelation(core.EntityKindIOC, "ioc-1", core.EntityKindLog, "log-1", "ip_match", 85)
			require.NoError(t, err)
			_, created, err := store.UpsertCorrelation(ctx, c)
			require.NoError(t, err)
			if created {
				countMu.Lock()
				createdCount++
				countMu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	all, err := store.GetAllCorrelations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryStore_Feeds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	feed, err := core.NewThreatFeed("Feed A", "https://a.example.com/f", core.FeedTypeJSON, 60, 80)
	require.NoError(t, err)
	require.NoError(t, store.CreateFeed(ctx, feed))

	require.NoError(t, store.SetFeedEnabled(ctx, feed.ID, false))
	got, err := store.GetFeed(ctx, feed.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	feeds, err := store.ListFeeds(ctx)
	require.NoError(t, err)
	assert.Len(t, feeds, 1)

	require.NoError(t, store.DeleteFeed(ctx, feed.ID))
	assert.ErrorIs(t, store.DeleteFeed(ctx, feed.ID), ErrFeedNotFound)
}

func TestMemoryStore_ImportHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	older, err := core.NewImportRecord("analyst-1", core.ImportFileTypeCSV)
	require.NoError(t, err)
	older.Timestamp = time.Now().UTC().Add(-1 * time.Hour)
	newer, err := core.NewImportRecord("analyst-2", core.ImportFileTypeJSON)
	require.NoError(t, err)

	require.NoError(t, store.CreateImportRecord(ctx, older))
	require.NoError(t, store.CreateImportRecord(ctx, newer))

	records, err := store.ListImportRecords(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newer.ID, records[0].ID)

	limited, err := store.ListImportRecords(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
