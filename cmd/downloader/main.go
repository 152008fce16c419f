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
	"floorsheet-observer/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	date := flag.String("date", "", "specific date to download (YYYY-MM-DD, default: latest trading day)")
	maxPages := flag.Int("max-pages", 0, "maximum number of pages to download (0 = all)")
	output := flag.String("output", "", "output file path for the raw data (parquet backend)")
	retentionDays := flag.Int("retention-days", 0, "number of days to retain data")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *output != "" {
		cfg.Storage.RawPath = *output
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
	appLogger := logger.NewLogger(cfg.LogLevel, "FloorsheetDownloader")

	// Resolve the target date
	targetDate := *date
	if targetDate == "" {
		cal := utils.GetCalendar(cfg.Source.CalendarMIC)
		targetDate = cal.LatestTradingDay(time.Now())
		appLogger.Info("Downloading latest floorsheet data (trading day %s)", targetDate)
	} else {
		if _, err := time.Parse(utils.DateLayout, targetDate); err != nil {
			appLogger.Critical("Invalid --date %q: %v", targetDate, err)
		}
		appLogger.Info("Downloading floorsheet data for date: %s", targetDate)
	}
	appLogger.Info("Data retention policy: %d days", retention)

	// Setup components
	store, err := storage.NewStore(cfg.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		appLogger.Critical("Failed to initialize store: %v", err)
	}
	defer store.Close()

	netMgr := network.NewManager(cfg.MConfig, appLogger)
	source := merolagani.NewFloorsheetSource(cfg.MConfig, netMgr)

	// Run the download
	dl := downloader.NewDownloader(cfg.MConfig, source, store, appLogger)
	res, err := dl.Run(targetDate, pages, retention)
	if err != nil {
		appLogger.Error("Download failed: %v", err)
		os.Exit(1)
	}

	appLogger.Info("Download summary: date=%s pages=%d downloaded=%d duplicates=%d appended=%d purged=%d",
		res.TradingDate, res.PagesRead, res.Downloaded, res.Duplicates, res.Appended, res.Purged)
}
