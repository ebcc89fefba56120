package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"argus/ai"
	"argus/api"
	"argus/config"
	"argus/mitre"
	"argus/storage"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// App represents the Argus application with all its components.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	Stores  api.Stores
	MongoDB *storage.MongoDB

	Registry  *mitre.Registry
	Analyzer  *ai.Analyzer
	APIServer *api.API

	serverErrCh chan error
}

// NewApp creates a new application instance and initializes all components.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{
		serverErrCh: make(chan error, 1),
	}

	logger, sugar, err := InitLogger(os.Getenv("ARGUS_LOGGING_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Sugar = sugar

	sugar.Info("Argus threat intelligence service starting...")

	cfg, err := InitConfig(sugar)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	stores, mongoDB, err := InitStores(ctx, cfg, sugar)
	if err != nil {
		return nil, err
	}
	app.Stores = stores
	app.MongoDB = mongoDB

	app.Registry = InitMitreRegistry(cfg, sugar)

	analyzer, err := InitAnalyzer(cfg, sugar)
	if err != nil {
		return nil, err
	}
	app.Analyzer = analyzer

	app.APIServer = api.NewAPI(stores, app.Registry, analyzer, cfg, sugar)

	return app, nil
}

// InitMitreRegistry builds the MITRE technique registry. A configured YAML
// file wins over the built-in seed.
func InitMitreRegistry(cfg *config.Config, sugar *zap.SugaredLogger) *mitre.Registry {
	registry := mitre.NewRegistry(sugar)
	if cfg.MITRE.TechniquesFile != "" {
		if err := registry.LoadFile(cfg.MITRE.TechniquesFile); err != nil {
			sugar.Errorw("Failed to load MITRE techniques file, falling back to built-in seed",
				"file", cfg.MITRE.TechniquesFile, "error", err)
			registry.Seed()
		}
		return registry
	}
	registry.Seed()
	return registry
}

// InitAnalyzer builds the AI analysis pipeline from configuration.
func InitAnalyzer(cfg *config.Config, sugar *zap.SugaredLogger) (*ai.Analyzer, error) {
	client := ai.NewClient(ai.ClientOptions{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Referer: cfg.AI.Referer,
		Title:   cfg.AI.Title,
		Timeout: cfg.AI.Timeout,
	})

	analyzer, err := ai.NewAnalyzer(client, cfg.AI.Models, cfg.AI.CacheSize, sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}

	if cfg.AI.APIKey == "" {
		sugar.Warn("AI API key not set, analysis endpoints will return 503")
	}
	return analyzer, nil
}

// Start starts the API server.
func (a *App) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)

	go func() {
		a.Sugar.Infow("API server listening", "addr", addr)
		if err := a.APIServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.serverErrCh <- err
		}
	}()

	return nil
}

// WaitForShutdown blocks until a shutdown signal is received or the server
// fails.
func (a *App) WaitForShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		a.Sugar.Infow("Received shutdown signal", "signal", sig.String())
	case err := <-a.serverErrCh:
		a.Sugar.Errorw("API server failed", "error", err)
	}
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	a.Sugar.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.APIServer != nil {
		if err := a.APIServer.Stop(ctx); err != nil {
			a.Sugar.Errorw("Failed to stop API server cleanly", "error", err)
		}
	}

	if a.MongoDB != nil {
		if err := a.MongoDB.Close(ctx); err != nil {
			a.Sugar.Errorw("Failed to close MongoDB connection", "error", err)
		}
	}

	a.Sugar.Info("Shutdown complete")
	_ = a.Logger.Sync()
}
