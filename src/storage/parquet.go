package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"floorsheet-observer/src/helpers"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/models"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// ParquetStore keeps the three stores as self-describing parquet files, the
// canonical at-rest format. Each write goes to a temp file that is renamed
// over the target, so a failed run never leaves a partially written store.
// -----------------------------------------------------------------------------

type ParquetStore struct {
	Config *models.MConfig
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// Flat row schemas. Money fields are textual decimals so re-aggregation stays
// exact across write/read cycles.

type transactionRow struct {
	Date          string `parquet:"date"`
	TransactionNo int64  `parquet:"transaction_no"`
	Symbol        string `parquet:"symbol"`
	SymbolFull    string `parquet:"symbol_full"`
	BuyerID       string `parquet:"buyer_id"`
	BuyerName     string `parquet:"buyer_name"`
	SellerID      string `parquet:"seller_id"`
	SellerName    string `parquet:"seller_name"`
	Quantity      int64  `parquet:"quantity"`
	Rate          string `parquet:"rate"`
	Amount        string `parquet:"amount"`
}

type dateSummaryRow struct {
	Date             string `parquet:"date"`
	BrokerID         string `parquet:"broker_id"`
	BrokerName       string `parquet:"broker_name"`
	Symbol           string `parquet:"symbol"`
	BuyQuantity      int64  `parquet:"buy_quantity"`
	SellQuantity     int64  `parquet:"sell_quantity"`
	BuyAmount        string `parquet:"buy_amount"`
	SellAmount       string `parquet:"sell_amount"`
	TransactionCount int64  `parquet:"transaction_count"`
	AvgBuyPrice      string `parquet:"avg_buy_price"`
	AvgSellPrice     string `parquet:"avg_sell_price"`
	NetQuantity      int64  `parquet:"net_quantity"`
	AvgHoldingPrice  string `parquet:"avg_holding_price"`
}

type combinedSummaryRow struct {
	BrokerID         string `parquet:"broker_id"`
	BrokerName       string `parquet:"broker_name"`
	Symbol           string `parquet:"symbol"`
	BuyQuantity      int64  `parquet:"buy_quantity"`
	SellQuantity     int64  `parquet:"sell_quantity"`
	BuyAmount        string `parquet:"buy_amount"`
	SellAmount       string `parquet:"sell_amount"`
	TransactionCount int64  `parquet:"transaction_count"`
	AvgBuyPrice      string `parquet:"avg_buy_price"`
	AvgSellPrice     string `parquet:"avg_sell_price"`
	NetQuantity      int64  `parquet:"net_quantity"`
	AvgHoldingPrice  string `parquet:"avg_holding_price"`
	LastUpdated      string `parquet:"last_updated"`
}

// -----------------------------------------------------------------------------

func NewParquetStore(cfg *models.MConfig, log *logger.Logger) (*ParquetStore, error) {
	return &ParquetStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

// Initialize ensures the store directories exist. Missing files are valid:
// they read as empty datasets.
func (p *ParquetStore) Initialize() error {
	for _, path := range []string{p.Config.Storage.RawPath, p.Config.Storage.DateSummaryPath, p.Config.Storage.CombinedPath} {
		dir := filepath.Dir(path)
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return helpers.NewStorageError(fmt.Sprintf("failed to create store directory %s", dir), err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// HasTransactions reports whether the raw store file has been written yet.
func (p *ParquetStore) HasTransactions() (bool, error) {
	return fileExists(p.Config.Storage.RawPath)
}

// -----------------------------------------------------------------------------

// HasDateSummaries reports whether the date-summary store file has been
// written yet.
func (p *ParquetStore) HasDateSummaries() (bool, error) {
	return fileExists(p.Config.Storage.DateSummaryPath)
}

// -----------------------------------------------------------------------------

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, helpers.NewStorageError(fmt.Sprintf("failed to stat %s", path), err)
	}
	return true, nil
}

// -----------------------------------------------------------------------------

func (p *ParquetStore) LoadTransactions() ([]models.MTransaction, error) {
	rows, err := readParquet[transactionRow](p.Config.Storage.RawPath, p.Logger)
	if err != nil {
		return nil, err
	}

	out := make([]models.MTransaction, 0, len(rows))
	for _, r := range rows {
		rate, err := decimal.NewFromString(r.Rate)
		if err != nil {
			return nil, helpers.NewStorageError(fmt.Sprintf("corrupt rate value %q in %s", r.Rate, p.Config.Storage.RawPath), err)
		}
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, helpers.NewStorageError(fmt.Sprintf("corrupt amount value %q in %s", r.Amount, p.Config.Storage.RawPath), err)
		}
		out = append(out, models.MTransaction{
			Date:          r.Date,
			TransactionNo: r.TransactionNo,
			Symbol:        r.Symbol,
			SymbolFull:    r.SymbolFull,
			BuyerID:       r.BuyerID,
			BuyerName:     r.BuyerName,
			SellerID:      r.SellerID,
			SellerName:    r.SellerName,
			Quantity:      r.Quantity,
			Rate:          rate,
			Amount:        amount,
		})
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (p *ParquetStore) ReplaceTransactions(rows []models.MTransaction) error {
	out := make([]transactionRow, 0, len(rows))
	for _, t := range rows {
		out = append(out, transactionRow{
			Date:          t.Date,
			TransactionNo: t.TransactionNo,
			Symbol:        t.Symbol,
			SymbolFull:    t.SymbolFull,
			BuyerID:       t.BuyerID,
			BuyerName:     t.BuyerName,
			SellerID:      t.SellerID,
			SellerName:    t.SellerName,
			Quantity:      t.Quantity,
			Rate:          t.Rate.String(),
			Amount:        t.Amount.String(),
		})
	}
	return writeParquet(p.Config.Storage.RawPath, out)
}

// -----------------------------------------------------------------------------

func (p *ParquetStore) LoadDateSummaries() ([]models.MDateSummary, error) {
	rows, err := readParquet[dateSummaryRow](p.Config.Storage.DateSummaryPath, p.Logger)
	if err != nil {
		return nil, err
	}

	out := make([]models.MDateSummary, 0, len(rows))
	for _, r := range rows {
		s := models.MDateSummary{
			Date:             r.Date,
			BrokerID:         r.BrokerID,
			BrokerName:       r.BrokerName,
			Symbol:           r.Symbol,
			BuyQuantity:      r.BuyQuantity,
			SellQuantity:     r.SellQuantity,
			TransactionCount: r.TransactionCount,
			NetQuantity:      r.NetQuantity,
		}
		var err error
		if s.BuyAmount, err = parseStoredDecimal(r.BuyAmount, p.Config.Storage.DateSummaryPath); err != nil {
			return nil, err
		}
		if s.SellAmount, err = parseStoredDecimal(r.SellAmount, p.Config.Storage.DateSummaryPath); err != nil {
			return nil, err
		}
		if s.AvgBuyPrice, err = parseStoredDecimal(r.AvgBuyPrice, p.Config.Storage.DateSummaryPath); err != nil {
			return nil, err
		}
		if s.AvgSellPrice, err = parseStoredDecimal(r.AvgSellPrice, p.Config.Storage.DateSummaryPath); err != nil {
			return nil, err
		}
		if s.AvgHoldingPrice, err = parseStoredDecimal(r.AvgHoldingPrice, p.Config.Storage.DateSummaryPath); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (p *ParquetStore) ReplaceDateSummaries(rows []models.MDateSummary) error {
	out := make([]dateSummaryRow, 0, len(rows))
	for _, s := range rows {
		out = append(out, dateSummaryRow{
			Date:             s.Date,
			BrokerID:         s.BrokerID,
			BrokerName:       s.BrokerName,
			Symbol:           s.Symbol,
			BuyQuantity:      s.BuyQuantity,
			SellQuantity:     s.SellQuantity,
			BuyAmount:        s.BuyAmount.String(),
			SellAmount:       s.SellAmount.String(),
			TransactionCount: s.TransactionCount,
			AvgBuyPrice:      s.AvgBuyPrice.String(),
			AvgSellPrice:     s.AvgSellPrice.String(),
			NetQuantity:      s.NetQuantity,
			AvgHoldingPrice:  s.AvgHoldingPrice.String(),
		})
	}
	return writeParquet(p.Config.Storage.DateSummaryPath, out)
}

// -----------------------------------------------------------------------------

func (p *ParquetStore) LoadCombinedSummaries() ([]models.MCombinedSummary, error) {
	rows, err := readParquet[combinedSummaryRow](p.Config.Storage.CombinedPath, p.Logger)
	if err != nil {
		return nil, err
	}

	out := make([]models.MCombinedSummary, 0, len(rows))
	for _, r := range rows {
		s := models.MCombinedSummary{
			BrokerID:         r.BrokerID,
			BrokerName:       r.BrokerName,
			Symbol:           r.Symbol,
			BuyQuantity:      r.BuyQuantity,
			SellQuantity:     r.SellQuantity,
			TransactionCount: r.TransactionCount,
			NetQuantity:      r.NetQuantity,
			LastUpdated:      r.LastUpdated,
		}
		var err error
		if s.BuyAmount, err = parseStoredDecimal(r.BuyAmount, p.Config.Storage.CombinedPath); err != nil {
			return nil, err
		}
		if s.SellAmount, err = parseStoredDecimal(r.SellAmount, p.Config.Storage.CombinedPath); err != nil {
			return nil, err
		}
		if s.AvgBuyPrice, err = parseStoredDecimal(r.AvgBuyPrice, p.Config.Storage.CombinedPath); err != nil {
			return nil, err
		}
		if s.AvgSellPrice, err = parseStoredDecimal(r.AvgSellPrice, p.Config.Storage.CombinedPath); err != nil {
			return nil, err
		}
		if s.AvgHoldingPrice, err = parseStoredDecimal(r.AvgHoldingPrice, p.Config.Storage.CombinedPath); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (p *ParquetStore) ReplaceCombinedSummaries(rows []models.MCombinedSummary) error {
	out := make([]combinedSummaryRow, 0, len(rows))
	for _, s := range rows {
		out = append(out, combinedSummaryRow{
			BrokerID:         s.BrokerID,
			BrokerName:       s.BrokerName,
			Symbol:           s.Symbol,
			BuyQuantity:      s.BuyQuantity,
			SellQuantity:     s.SellQuantity,
			BuyAmount:        s.BuyAmount.String(),
			SellAmount:       s.SellAmount.String(),
			TransactionCount: s.TransactionCount,
			AvgBuyPrice:      s.AvgBuyPrice.String(),
			AvgSellPrice:     s.AvgSellPrice.String(),
			NetQuantity:      s.NetQuantity,
			AvgHoldingPrice:  s.AvgHoldingPrice.String(),
			LastUpdated:      s.LastUpdated,
		})
	}
	return writeParquet(p.Config.Storage.CombinedPath, out)
}

// -----------------------------------------------------------------------------

func (p *ParquetStore) Close() error {
	return nil
}

// -----------------------------------------------------------------------------

func readParquet[Row any](path string, log *logger.Logger) ([]Row, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Info("Store file not found: %s (treating as empty)", path)
		return nil, nil
	}

	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, helpers.NewStorageError(fmt.Sprintf("failed to read %s", path), err)
	}
	return rows, nil
}

// -----------------------------------------------------------------------------

func writeParquet[Row any](path string, rows []Row) error {
	tmp := path + ".tmp"

	if err := parquet.WriteFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return helpers.NewStorageError(fmt.Sprintf("failed to write %s", tmp), err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return helpers.NewStorageError(fmt.Sprintf("failed to replace %s", path), err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func parseStoredDecimal(raw, path string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, helpers.NewStorageError(fmt.Sprintf("corrupt decimal value %q in %s", raw, path), err)
	}
	return d, nil
}
