package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MTransaction represents a single floorsheet transaction as published by the
// exchange. Unique key: (Date, TransactionNo).
type MTransaction struct {
	Date          string          `json:"date"`
	TransactionNo int64           `json:"transaction_no"`
	Symbol        string          `json:"symbol"`
	SymbolFull    string          `json:"symbol_full"`
	BuyerID       string          `json:"buyer_id"`
	BuyerName     string          `json:"buyer_name"`
	SellerID      string          `json:"seller_id"`
	SellerName    string          `json:"seller_name"`
	Quantity      int64           `json:"quantity"`
	Rate          decimal.Decimal `json:"rate"`
	Amount        decimal.Decimal `json:"amount"`
}

// -----------------------------------------------------------------------------

// Key returns the dedup key for the raw store.
func (t MTransaction) Key() string {
	return fmt.Sprintf("%s-%d", t.Date, t.TransactionNo)
}
