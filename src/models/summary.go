package models

import "github.com/shopspring/decimal"

// MDateSummary aggregates one broker's activity in one stock for one trading
// date. Unique key: (Date, BrokerID, Symbol). A date's partition is replaced
// wholesale whenever that date is recomputed.
type MDateSummary struct {
	Date             string          `json:"date"`
	BrokerID         string          `json:"broker_id"`
	BrokerName       string          `json:"broker_name"`
	Symbol           string          `json:"symbol"`
	BuyQuantity      int64           `json:"buy_quantity"`
	SellQuantity     int64           `json:"sell_quantity"`
	BuyAmount        decimal.Decimal `json:"buy_amount"`
	SellAmount       decimal.Decimal `json:"sell_amount"`
	TransactionCount int64           `json:"transaction_count"`
	AvgBuyPrice      decimal.Decimal `json:"avg_buy_price"`
	AvgSellPrice     decimal.Decimal `json:"avg_sell_price"`
	NetQuantity      int64           `json:"net_quantity"`
	AvgHoldingPrice  decimal.Decimal `json:"avg_holding_price"`
}

// -----------------------------------------------------------------------------

// MCombinedSummary aggregates one broker's all-time activity in one stock
// across every retained date. Unique key: (BrokerID, Symbol). LastUpdated is
// the most recent date that contributed to the row.
type MCombinedSummary struct {
	BrokerID         string          `json:"broker_id"`
	BrokerName       string          `json:"broker_name"`
	Symbol           string          `json:"symbol"`
	BuyQuantity      int64           `json:"buy_quantity"`
	SellQuantity     int64           `json:"sell_quantity"`
	BuyAmount        decimal.Decimal `json:"buy_amount"`
	SellAmount       decimal.Decimal `json:"sell_amount"`
	TransactionCount int64           `json:"transaction_count"`
	AvgBuyPrice      decimal.Decimal `json:"avg_buy_price"`
	AvgSellPrice     decimal.Decimal `json:"avg_sell_price"`
	NetQuantity      int64           `json:"net_quantity"`
	AvgHoldingPrice  decimal.Decimal `json:"avg_holding_price"`
	LastUpdated      string          `json:"last_updated"`
}
