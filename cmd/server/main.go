package main

import (
	"flag"
	"fmt"
	"os"

	"floorsheet-observer/src/config"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/server"
	"floorsheet-observer/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Port == 0 {
		fmt.Println("Server port not configured")
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// Setup store
	store, err := storage.NewStore(cfg.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		appLogger.Critical("Failed to initialize store: %v", err)
	}
	defer store.Close()

	// Start the read-only API
	srv := server.NewServer(cfg.MConfig, store, appLogger)
	if err := srv.Start(); err != nil {
		appLogger.Critical("Server failed: %v", err)
	}
}
