package main

import (
	"flag"
	"fmt"
	"os"

	"floorsheet-observer/src/config"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/storage"
	"floorsheet-observer/src/summary"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	input := flag.String("input", "", "input file path for date-wise summarized data (parquet backend)")
	output := flag.String("output", "", "output file path for combined summarized data (parquet backend)")
	retentionDays := flag.Int("retention-days", 0, "number of days to retain data")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *input != "" {
		cfg.Storage.DateSummaryPath = *input
	}
	if *output != "" {
		cfg.Storage.CombinedPath = *output
	}
	retention := cfg.Retention.Days
	if *retentionDays > 0 {
		retention = *retentionDays
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, "FloorsheetSummarizer")
	appLogger.Info("Data retention policy: %d days", retention)

	// Setup store
	store, err := storage.NewStore(cfg.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		appLogger.Critical("Failed to initialize store: %v", err)
	}
	defer store.Close()

	// Run the combined summarization
	summarizer := summary.NewCombinedSummarizer(store, appLogger)
	rows, err := summarizer.Run(retention)
	if err != nil {
		appLogger.Error("Combined summarization failed: %v", err)
		os.Exit(1)
	}

	appLogger.Info("Combined summarization completed successfully (%d rows stored)", rows)
}
