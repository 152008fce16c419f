package storage

import (
	"fmt"

	"floorsheet-observer/src/interfaces"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/models"
)

// -----------------------------------------------------------------------------

// NewStore selects the store backend from config. Default is the parquet
// file store.
func NewStore(cfg *models.MConfig, log *logger.Logger) (interfaces.IFloorsheetStore, error) {
	switch cfg.Storage.DBType {
	case "", "parquet":
		return NewParquetStore(cfg, log)
	case "sqlite":
		return NewSQLiteStore(cfg, log)
	case "postgres":
		return NewPostgresStore(cfg, log)
	default:
		return nil, fmt.Errorf("unknown db_type: %s", cfg.Storage.DBType)
	}
}
