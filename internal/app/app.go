// Package app wires the Moneta components together
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/moneta/internal/clients/ledgerapi"
	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/interfaces"
	"github.com/bobmcallan/moneta/internal/services/connectivity"
	"github.com/bobmcallan/moneta/internal/services/sync"
	"github.com/bobmcallan/moneta/internal/storage"
)

// App holds all initialized services and clients. Everything is built
// once here and passed by injection; there is no ambient global state.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	APIClient   interfaces.LedgerAPIClient
	Monitor     interfaces.ConnectivityMonitor
	SyncEngine  interfaces.SyncEngine
	Reference   interfaces.ReferenceService
	StartupTime time.Time

	monitorCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, the API client, the
// connectivity monitor, and the sync engine.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Load configuration - check provided path, MONETA_CONFIG, then binary dir
	if configPath == "" {
		configPath = os.Getenv("MONETA_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "moneta.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/moneta.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	apiClient := ledgerapi.NewClient(config.Remote.Token,
		ledgerapi.WithBaseURL(config.Remote.BaseURL),
		ledgerapi.WithLogger(logger),
		ledgerapi.WithRateLimit(config.Remote.RateLimit),
		ledgerapi.WithTimeout(config.Remote.GetTimeout()),
	)

	monitor := connectivity.NewMonitor(apiClient, logger,
		connectivity.WithProbeTimeout(config.Connectivity.GetProbeTimeout()),
		connectivity.WithPollInterval(config.Connectivity.GetPollInterval()),
		connectivity.WithStalenessThreshold(config.Sync.GetStalenessThreshold()),
	)

	engine := sync.NewEngine(storageManager, apiClient, monitor, logger,
		sync.WithRemoteTimeout(config.Remote.GetTimeout()),
	)

	reference := sync.NewReference(storageManager.CacheStore(), logger)

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		APIClient:   apiClient,
		Monitor:     monitor,
		SyncEngine:  engine,
		Reference:   reference,
		StartupTime: startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Start launches the background connectivity poll loop.
func (a *App) Start() {
	monitorCtx, cancel := context.WithCancel(context.Background())
	a.monitorCancel = cancel
	a.Monitor.Start(monitorCtx)
}

// Close releases all resources held by the App.
// Shutdown order: stop the monitor, close storage.
func (a *App) Close() {
	if a.monitorCancel != nil {
		a.monitorCancel()
		a.monitorCancel = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
