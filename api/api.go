package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"argus/ai"
	"argus/config"
	"argus/core"
	"argus/mitre"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rateLimiterEntry holds a rate limiter with last seen time
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Stores groups the storage interfaces the API serves
type Stores struct {
	IOCs         core.IOCStorage
	Logs         core.LogStorage
	Analyses     core.AnalysisStorage
	ThreatLogs   core.ThreatLogStorage
	Incidents    core.IncidentStorage
	Correlations core.CorrelationStorage
	Feeds        core.FeedStorage
	Imports      core.ImportStorage
}

// API holds the API server
type API struct {
	router         *mux.Router
	handler        http.Handler
	server         *http.Server
	stores         Stores
	registry       *mitre.Registry
	analyzer       *ai.Analyzer
	config         *config.Config
	logger         *zap.SugaredLogger
	rateLimiters   map[string]*rateLimiterEntry
	rateLimitersMu sync.Mutex
	stopCh         chan struct{}
}

// NewAPI creates a new API server
func NewAPI(stores Stores, registry *mitre.Registry, analyzer *ai.Analyzer, config *config.Config, logger *zap.SugaredLogger) *API {
	api := &API{
		router:       mux.NewRouter(),
		stores:       stores,
		registry:     registry,
		analyzer:     analyzer,
		config:       config,
		logger:       logger,
		rateLimiters: make(map[string]*rateLimiterEntry),
		stopCh:       make(chan struct{}),
	}
	api.setupRoutes()
	go api.cleanupRateLimiters()
	return api
}

// setupRoutes sets up the API routes
func (a *API) setupRoutes() {
	a.router.Use(a.rateLimitMiddleware)
	a.router.Use(a.metricsMiddleware)
	a.router.Use(a.identityMiddleware)

	a.router.HandleFunc("/api/iocs", a.listIOCs).Methods("GET")
	a.router.HandleFunc("/api/iocs", a.createIOC).Methods("POST")
	a.router.HandleFunc("/api/iocs/stats", a.getIOCStats).Methods("GET")
	a.router.HandleFunc("/api/iocs/import", a.bulkImportIOCs).Methods("POST")
	a.router.HandleFunc("/api/iocs/imports", a.listImportRecords).Methods("GET")
	a.router.HandleFunc("/api/iocs/{id}", a.getIOC).Methods("GET")
	a.router.HandleFunc("/api/iocs/{id}", a.updateIOC).Methods("PUT")
	a.router.HandleFunc("/api/iocs/{id}", a.deleteIOC).Methods("DELETE")

	a.router.HandleFunc("/api/logs", a.listLogs).Methods("GET")
	a.router.HandleFunc("/api/logs", a.createLog).Methods("POST")
	a.router.HandleFunc("/api/logs/stats", a.getLogStats).Methods("GET")
	a.router.HandleFunc("/api/logs/seed", a.seedSampleLogs).Methods("POST")

	a.router.HandleFunc("/api/analyses", a.listAnalyses).Methods("GET")
	a.router.HandleFunc("/api/analyses/generate", a.generateAnalysis).Methods("POST")
	a.router.HandleFunc("/api/analyses/stats", a.getAnalysisStats).Methods("GET")
	a.router.HandleFunc("/api/analyses/{id}", a.getAnalysis).Methods("GET")

	a.router.HandleFunc("/api/threat-logs", a.listThreatLogs).Methods("GET")
	a.router.HandleFunc("/api/threat-logs", a.createThreatLog).Methods("POST")
	a.router.HandleFunc("/api/threat-logs/latest-analysis", a.latestThreatAnalysis).Methods("GET")

	a.router.HandleFunc("/api/incidents", a.listIncidents).Methods("GET")
	a.router.HandleFunc("/api/incidents", a.createIncident).Methods("POST")
	a.router.HandleFunc("/api/incidents/{id}", a.getIncident).Methods("GET")
	a.router.HandleFunc("/api/incidents/{id}/status", a.updateIncidentStatus).Methods("PUT")
	a.router.HandleFunc("/api/incidents/{id}/evidence", a.addIncidentEvidence).Methods("POST")

	a.router.HandleFunc("/api/correlations", a.upsertCorrelation).Methods("POST")
	a.router.HandleFunc("/api/correlations/stats", a.getCorrelationStats).Methods("GET")
	a.router.HandleFunc("/api/correlations/{kind}/{id}", a.getCorrelationsForEntity).Methods("GET")

	a.router.HandleFunc("/api/feeds", a.listFeeds).Methods("GET")
	a.router.HandleFunc("/api/feeds", a.createFeed).Methods("POST")
	a.router.HandleFunc("/api/feeds/stats", a.getFeedStats).Methods("GET")
	a.router.HandleFunc("/api/feeds/{id}", a.deleteFeed).Methods("DELETE")
	a.router.HandleFunc("/api/feeds/{id}/enabled", a.setFeedEnabled).Methods("PUT")

	a.router.HandleFunc("/api/hunt", a.huntSearch).Methods("GET")
	a.router.HandleFunc("/api/hunt/stats", a.getHuntStats).Methods("GET")

	a.router.HandleFunc("/api/dashboard/metrics", a.getDashboardMetrics).Methods("GET")
	a.router.HandleFunc("/api/dashboard/feed", a.getDashboardFeed).Methods("GET")

	a.router.HandleFunc("/api/mitre/techniques", a.getMitreTechniques).Methods("GET")
	a.router.HandleFunc("/api/mitre/tactics", a.getMitreTactics).Methods("GET")
	a.router.HandleFunc("/api/mitre/coverage", a.getMitreCoverage).Methods("GET")
	a.router.HandleFunc("/api/mitre/seed", a.seedMitreTechniques).Methods("POST")

	a.router.HandleFunc("/analyze", a.analyzeWebhook).Methods("POST")
	a.router.HandleFunc("/health", a.healthCheck).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler())

	// CORS wraps the router itself so preflight requests get their headers
	// even when no route matches the OPTIONS method
	a.handler = a.corsMiddleware(a.router)
}

// Start starts the API server
func (a *API) Start(addr string) error {
	a.server = &http.Server{
		Addr:    addr,
		Handler: a.handler,
	}
	return a.server.ListenAndServe()
}

// Stop stops the API server
func (a *API) Stop(ctx context.Context) error {
	close(a.stopCh)
	if a.server != nil {
		return a.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the full middleware stack, used by tests
func (a *API) Handler() http.Handler {
	return a.handler
}

// healthCheck reports liveness
func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
