package bootstrap

import (
	"context"
	"fmt"

	"argus/api"
	"argus/config"
	"argus/storage"

	"go.uber.org/zap"
)

// indexed is implemented by the MongoDB-backed storages.
type indexed interface {
	EnsureIndexes(ctx context.Context) error
}

// InitStores builds the storage layer. With MongoDB enabled every entity gets
// its own collection-backed storage and indexes are created up front. With
// MongoDB disabled a single in-memory store backs everything, which is the
// ephemeral mode used for demos and local development.
func InitStores(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (api.Stores, *storage.MongoDB, error) {
	if !cfg.MongoDB.Enabled {
		sugar.Info("MongoDB disabled, using in-memory storage")
		mem := storage.NewMemoryStore()
		return api.Stores{
			IOCs:         mem,
			Logs:         mem,
			Analyses:     mem,
			ThreatLogs:   mem,
			Incidents:    mem,
			Correlations: mem,
			Feeds:        mem,
			Imports:      mem,
		}, nil, nil
	}

	mongoDB, err := storage.NewMongoDB(cfg.MongoDB.URI, cfg.MongoDB.Database, cfg.MongoDB.MaxPoolSize, sugar)
	if err != nil {
		return api.Stores{}, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	iocs := storage.NewIOCStorage(mongoDB)
	logs := storage.NewLogStorage(mongoDB)
	analyses := storage.NewAnalysisStorage(mongoDB)
	threatLogs := storage.NewThreatLogStorage(mongoDB)
	incidents := storage.NewIncidentStorage(mongoDB)
	correlations := storage.NewCorrelationStorage(mongoDB)
	feeds := storage.NewFeedStorage(mongoDB)
	imports := storage.NewImportStorage(mongoDB)

	for name, s := range map[string]indexed{
		"iocs":           iocs,
		"security_logs":  logs,
		"ai_analyses":    analyses,
		"threat_logs":    threatLogs,
		"incidents":      incidents,
		"correlations":   correlations,
		"threat_feeds":   feeds,
		"import_records": imports,
	} {
		if err := s.EnsureIndexes(ctx); err != nil {
			return api.Stores{}, nil, fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}
	sugar.Info("MongoDB indexes ensured")

	return api.Stores{
		IOCs:         iocs,
		Logs:         logs,
		Analyses:     analyses,
		ThreatLogs:   threatLogs,
		Incidents:    incidents,
		Correlations: correlations,
		Feeds:        feeds,
		Imports:      imports,
	}, mongoDB, nil
}
