package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleister1102/changewatch/internal/api"
	"github.com/aleister1102/changewatch/internal/classifier"
	"github.com/aleister1102/changewatch/internal/config"
	"github.com/aleister1102/changewatch/internal/datastore"
	"github.com/aleister1102/changewatch/internal/differ"
	"github.com/aleister1102/changewatch/internal/fetcher"
	"github.com/aleister1102/changewatch/internal/httpclient"
	"github.com/aleister1102/changewatch/internal/logger"
	"github.com/aleister1102/changewatch/internal/metrics"
	"github.com/aleister1102/changewatch/internal/models"
	"github.com/aleister1102/changewatch/internal/monitor"
	"github.com/aleister1102/changewatch/internal/notifier"

	"github.com/rs/zerolog"
)

func main() {
	flags := ParseFlags()

	bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile, bootLogger)
	if err != nil {
		log.Fatalf("[FATAL] Main: Could not load global config using path '%s': %v", flags.GlobalConfigFile, err)
	}
	if flags.LogLevel != "" {
		gCfg.LogConfig.LogLevel = flags.LogLevel
	}
	if flags.ListenAddr != "" {
		gCfg.APIConfig.Enabled = true
		gCfg.APIConfig.ListenAddr = flags.ListenAddr
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Fatalf("[FATAL] Main: Could not initialize logger: %v", err)
	}

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}

	if err := run(gCfg, zLogger); err != nil {
		zLogger.Fatal().Err(err).Msg("changewatch exited with error")
	}
}

func run(gCfg *config.GlobalConfig, zLogger zerolog.Logger) error {
	lock, err := datastore.AcquireDirLock(gCfg.StorageConfig.DataDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			zLogger.Warn().Err(err).Msg("Failed to release data directory lock")
		}
	}()

	taskStore, err := datastore.NewTaskStore(gCfg.StorageConfig.SQLiteDBPath, zLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := taskStore.Close(); err != nil {
			zLogger.Warn().Err(err).Msg("Failed to close task registry")
		}
	}()

	snapshotStore, err := datastore.NewSnapshotStore(gCfg.StorageConfig.SnapshotDir, zLogger)
	if err != nil {
		return err
	}

	var (
		historyStore models.CheckHistoryStore
		historyAPI   api.HistoryLister
		purgers      []monitor.Purger
	)
	if gCfg.StorageConfig.HistoryEnabled() {
		parquetHistory, err := datastore.NewParquetCheckHistoryStore(gCfg.StorageConfig, zLogger)
		if err != nil {
			return err
		}
		historyStore, historyAPI = parquetHistory, parquetHistory
		purgers = append(purgers, parquetHistory)
	} else {
		zLogger.Info().Msg("Check history disabled (storage_config.history_dir is empty)")
	}
	if gCfg.StorageConfig.PurgeSnapshotsOnDelete {
		purgers = append(purgers, snapshotStore)
	}

	httpClient, err := httpclient.NewHTTPClientBuilder(zLogger).
		FromMonitorConfig(gCfg.MonitorConfig).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build HTTP client: %w", err)
	}

	changeClassifier, err := classifier.New(gCfg.ClassifierConfig, nil, zLogger)
	if err != nil {
		return err
	}
	emailNotifier, err := notifier.NewEmailNotifier(gCfg.EmailConfig, gCfg.TemplateConfig, nil, zLogger)
	if err != nil {
		return err
	}
	diffEngine := differ.NewEngine(gCfg.StorageConfig.LastDiffPath, zLogger)

	metrics.Init()

	scheduler, err := monitor.NewTaskScheduler(monitor.Dependencies{
		Registry:   taskStore,
		Fetchers:   fetcher.NewFactory(httpClient, zLogger),
		Snapshots:  snapshotStore,
		Differ:     diffEngine,
		Classifier: changeClassifier,
		Notifier:   emailNotifier,
		History:    historyStore,
		Purgers:    purgers,
	}, zLogger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started, err := scheduler.Restore(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore tasks: %w", err)
	}
	zLogger.Info().Int("running_tasks", started).Msg("changewatch started")

	var httpServer *http.Server
	serverErr := make(chan error, 1)
	if gCfg.APIConfig.Enabled {
		server := api.NewServer(scheduler, snapshotStore, historyAPI, diffEngine, zLogger)
		httpServer = server.NewHTTPServer(gCfg.APIConfig.ListenAddr)
		go func() {
			zLogger.Info().Str("addr", httpServer.Addr).Msg("Control-plane API listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	} else {
		zLogger.Warn().Msg("Control-plane API disabled; only restored tasks will run")
	}

	var runErr error
	select {
	case <-ctx.Done():
		zLogger.Info().Msg("Received interrupt signal, initiating graceful shutdown...")
	case runErr = <-serverErr:
		zLogger.Error().Err(runErr).Msg("Control-plane API failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultAPIShutdownTimeout)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			zLogger.Warn().Err(err).Msg("API server shutdown did not complete cleanly")
		}
	}
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		zLogger.Warn().Err(err).Dur("timeout", config.DefaultAPIShutdownTimeout).Msg("Task loops did not stop in time")
	}

	zLogger.Info().Msg("changewatch stopped")
	return runErr
}
