package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"floorsheet-observer/src/config"
	"floorsheet-observer/src/data_source/merolagani"
	"floorsheet-observer/src/downloader"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/network"
	"floorsheet-observer/src/storage"
	"floorsheet-observer/src/summary"
	"floorsheet-observer/src/utils"
)

// -----------------------------------------------------------------------------
// pipeline runs the three stages in order against the canonical stores:
// download -> date summarize -> combined summarize. The first failing stage
// aborts the run with a non-zero exit so the scheduler can retry.
// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	date := flag.String("date", "", "specific date to download (YYYY-MM-DD, default: latest trading day)")
	maxPages := flag.Int("max-pages", 0, "maximum number of pages to download (0 = all)")
	retentionDays := flag.Int("retention-days", 0, "number of days to retain data")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	retention := cfg.Retention.Days
	if *retentionDays > 0 {
		retention = *retentionDays
	}
	pages := cfg.Source.MaxPages
	if *maxPages > 0 {
		pages = *maxPages
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, "FloorsheetPipeline")

	targetDate := *date
	if targetDate == "" {
		cal := utils.GetCalendar(cfg.Source.CalendarMIC)
		targetDate = cal.LatestTradingDay(time.Now())
	}
	appLogger.Info("Running pipeline for %s (retention %d days)", targetDate, retention)

	// Setup store
	store, err := storage.NewStore(cfg.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		appLogger.Critical("Failed to initialize store: %v", err)
	}
	defer store.Close()

	// Stage 1: download
	netMgr := network.NewManager(cfg.MConfig, appLogger)
	source := merolagani.NewFloorsheetSource(cfg.MConfig, netMgr)
	dl := downloader.NewDownloader(cfg.MConfig, source, store, appLogger)

	res, err := dl.Run(targetDate, pages, retention)
	if err != nil {
		appLogger.Error("Download stage failed: %v", err)
		os.Exit(1)
	}
	appLogger.Info("Download stage done: %d new records for %s", res.Appended, res.TradingDate)

	// Stage 2: date-wise summary
	dateRows, err := summary.NewDateSummarizer(store, appLogger).Run(retention)
	if err != nil {
		appLogger.Error("Date summary stage failed: %v", err)
		os.Exit(1)
	}
	appLogger.Info("Date summary stage done: %d rows stored", dateRows)

	// Stage 3: combined summary
	combinedRows, err := summary.NewCombinedSummarizer(store, appLogger).Run(retention)
	if err != nil {
		appLogger.Error("Combined summary stage failed: %v", err)
		os.Exit(1)
	}
	appLogger.Info("Combined summary stage done: %d rows stored", combinedRows)

	appLogger.Info("Pipeline completed successfully")
}
