package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shubhamharia/investment-tracker/config"
	"github.com/shubhamharia/investment-tracker/data"
	"github.com/shubhamharia/investment-tracker/data/cache"
	"github.com/shubhamharia/investment-tracker/data/repository/postgres"
	"github.com/shubhamharia/investment-tracker/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/shubhamharia/investment-tracker/internal/externalApi/yahooApi"
	"github.com/shubhamharia/investment-tracker/internal/normalizer"
	"github.com/shubhamharia/investment-tracker/internal/reportGenerator/xlsxGenerator"
	"github.com/shubhamharia/investment-tracker/internal/scheduler"
	"github.com/shubhamharia/investment-tracker/internal/service/reconcileService"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)

	quoteApiClient := yahooApi.New(cfg)

	reportGenerator := xlsxGenerator.New()

	norm := mustLoadNormalizer(cfg)

	var cloudStorage reconcileService.CloudStorage
	var driveApi *googleDriveApi.GoogleDriveApi
	if cfg.GoogleDrive.Enabled {
		driveApi = googleDriveApi.New(ctx, cfg)
		cloudStorage = driveApi
	}

	reconcileSrv := reconcileService.New(pgRepo, redisCache, quoteApiClient, reportGenerator, cloudStorage, norm, cfg)

	sched := scheduler.New()
	sched.NewIntervalJob("refresh quotes", reconcileSrv.RefreshQuotes, cfg.Jobs.RefreshQuotesInterval, true)
	if driveApi != nil {
		sched.NewIntervalJob("cleanup drive reports", driveApi.DeleteOldFiles, cfg.Jobs.CleanupReportsInterval, false)
	}
	sched.Start()
	defer sched.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func mustLoadNormalizer(cfg *config.Config) *normalizer.Normalizer {
	var table normalizer.AliasTable
	if cfg.Import.AliasFile != "" {
		var err error
		table, err = normalizer.LoadAliasFile(cfg.Import.AliasFile)
		if err != nil {
			slog.Error("failed to load platform alias file", slog.String("path", cfg.Import.AliasFile), slog.String("err", err.Error()))
			panic(err)
		}
	}
	return normalizer.New(table)
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
