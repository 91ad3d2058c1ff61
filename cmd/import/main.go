package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/shubhamharia/investment-tracker/config"
	"github.com/shubhamharia/investment-tracker/data"
	"github.com/shubhamharia/investment-tracker/data/cache"
	"github.com/shubhamharia/investment-tracker/data/repository/postgres"
	"github.com/shubhamharia/investment-tracker/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/shubhamharia/investment-tracker/internal/externalApi/yahooApi"
	"github.com/shubhamharia/investment-tracker/internal/normalizer"
	"github.com/shubhamharia/investment-tracker/internal/reportGenerator/xlsxGenerator"
	"github.com/shubhamharia/investment-tracker/internal/service/reconcileService"
	"github.com/shubhamharia/investment-tracker/utils"
)

// One-shot companion to the daemon: imports a CSV batch, runs a merge pass,
// or renders the holdings report, then exits.
func main() {
	csvPath := flag.String("file", "", "path to a combined-transactions CSV to import")
	reconcile := flag.Bool("reconcile", false, "merge duplicate platforms and securities")
	report := flag.String("report", "", "write the holdings report to this path")
	flag.Parse()

	if *csvPath == "" && !*reconcile && *report == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -file, -reconcile or -report")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.MustLoad()

	setupLogger(cfg)

	ctx := utils.CreateCtxWithRqID(context.Background())

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)

	var table normalizer.AliasTable
	if cfg.Import.AliasFile != "" {
		var err error
		table, err = normalizer.LoadAliasFile(cfg.Import.AliasFile)
		if err != nil {
			slog.Error("failed to load platform alias file", slog.String("path", cfg.Import.AliasFile), slog.String("err", err.Error()))
			os.Exit(1)
		}
	}

	var cloudStorage reconcileService.CloudStorage
	if cfg.GoogleDrive.Enabled {
		cloudStorage = googleDriveApi.New(ctx, cfg)
	}

	reconcileSrv := reconcileService.New(
		pgRepo,
		redisCache,
		yahooApi.New(cfg),
		xlsxGenerator.New(),
		cloudStorage,
		normalizer.New(table),
		cfg,
	)

	if *csvPath != "" {
		runImport(ctx, reconcileSrv, *csvPath)
	}

	if *reconcile {
		runReconcile(ctx, reconcileSrv)
	}

	if *report != "" {
		runReport(ctx, reconcileSrv, *report)
	}
}

func runImport(ctx context.Context, svc *reconcileService.ReconcileService, path string) {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("failed to open csv", slog.String("path", path), slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer f.Close()

	summary, err := svc.ImportTransactions(ctx, f)
	if err != nil {
		slog.Error("import failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("imported: %d accepted, %d duplicates, %d failed\n", summary.Accepted, summary.Duplicates, summary.Failed)
	for _, failure := range summary.Failures {
		fmt.Printf("  line %d: %s\n", failure.Line, failure.Reason)
	}
}

func runReconcile(ctx context.Context, svc *reconcileService.ReconcileService) {
	report, err := svc.Reconcile(ctx)
	if err != nil {
		slog.Error("reconcile failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("merged: %d platforms, %d securities, %d transactions repointed\n",
		report.PlatformsMerged, report.SecuritiesMerged, report.TransactionsRepointed)
	for _, skipped := range report.SkippedGroups {
		fmt.Printf("  skipped %s %s: %s\n", skipped.Kind, skipped.Key, skipped.Reason)
	}
}

func runReport(ctx context.Context, svc *reconcileService.ReconcileService, path string) {
	fileBytes, _, link, err := svc.GenerateHoldingsReport(ctx)
	if err != nil {
		slog.Error("report generation failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
		slog.Error("failed to write report", slog.String("path", path), slog.String("err", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("report written to %s\n", path)
	if link != "" {
		fmt.Printf("uploaded: %s\n", link)
	}
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
