package interfaces

import "floorsheet-observer/src/models"

// -----------------------------------------------------------------------------
// IFloorsheetSource interface for fetching floorsheet pages from the exchange
// site.
// -----------------------------------------------------------------------------

// MPage is one parsed floorsheet page: its rows plus the continuation signal
// derived from the site's pagination metadata.
type MPage struct {
	Number       int
	Transactions []models.MTransaction
	TotalPages   int
	TradingDate  string
}

// -----------------------------------------------------------------------------

type IFloorsheetSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchPage retrieves and parses one floorsheet page for the target date.
	// date may be empty, in which case the site serves its latest trading day
	// and the page reports which date that is.
	FetchPage(date string, pageNum int) (*MPage, error)
}
