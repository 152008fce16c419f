package interfaces

import "floorsheet-observer/src/models"

// -----------------------------------------------------------------------------
// IFloorsheetStore defines the contract for the three floorsheet stores.
//
// Each store is read and replaced as a whole: a stage loads the current
// content, computes the merged result in memory, and replaces the dataset in
// one all-or-nothing write. A missing store reads as empty, not as an error.
// -----------------------------------------------------------------------------

type IFloorsheetStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the backing files or tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// HasTransactions reports whether the raw store has been written at all.
	// A stage that consumes the raw store as its input must fail when it is
	// absent; only the downloader treats absence as a valid first run.
	HasTransactions() (bool, error)

	// -----------------------------------------------------------------------------

	// HasDateSummaries reports whether the date-wise summary store has been
	// written at all.
	HasDateSummaries() (bool, error)

	// -----------------------------------------------------------------------------

	// LoadTransactions reads the raw transaction store.
	LoadTransactions() ([]models.MTransaction, error)

	// -----------------------------------------------------------------------------

	// ReplaceTransactions atomically replaces the raw transaction store.
	ReplaceTransactions(rows []models.MTransaction) error

	// -----------------------------------------------------------------------------

	// LoadDateSummaries reads the date-wise summary store.
	LoadDateSummaries() ([]models.MDateSummary, error)

	// -----------------------------------------------------------------------------

	// ReplaceDateSummaries atomically replaces the date-wise summary store.
	ReplaceDateSummaries(rows []models.MDateSummary) error

	// -----------------------------------------------------------------------------

	// LoadCombinedSummaries reads the all-time summary store.
	LoadCombinedSummaries() ([]models.MCombinedSummary, error)

	// -----------------------------------------------------------------------------

	// ReplaceCombinedSummaries atomically replaces the all-time summary store.
	ReplaceCombinedSummaries(rows []models.MCombinedSummary) error

	// -----------------------------------------------------------------------------

	// Close releases any underlying connections.
	Close() error
}
