package storage

import (
	"os"
	"path/filepath"
	"testing"

	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/models"

	"github.com/shopspring/decimal"
)

func newTestParquetStore(t *testing.T) *ParquetStore {
	t.Helper()
	dir := t.TempDir()

	cfg := &models.MConfig{
		LogLevel: "ERROR",
		Storage: models.MStorageConfig{
			DBType:          "parquet",
			RawPath:         filepath.Join(dir, "raw.parquet"),
			DateSummaryPath: filepath.Join(dir, "date.parquet"),
			CombinedPath:    filepath.Join(dir, "combined.parquet"),
		},
	}

	store, err := NewParquetStore(cfg, logger.NewLogger("ERROR", "test"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	return store
}

func TestParquetMissingFilesReadAsEmpty(t *testing.T) {
	store := newTestParquetStore(t)

	txns, err := store.LoadTransactions()
	if err != nil {
		t.Fatalf("load transactions: %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("expected empty transactions, got %d", len(txns))
	}

	sums, err := store.LoadDateSummaries()
	if err != nil {
		t.Fatalf("load date summaries: %v", err)
	}
	if len(sums) != 0 {
		t.Errorf("expected empty date summaries, got %d", len(sums))
	}

	combined, err := store.LoadCombinedSummaries()
	if err != nil {
		t.Fatalf("load combined summaries: %v", err)
	}
	if len(combined) != 0 {
		t.Errorf("expected empty combined summaries, got %d", len(combined))
	}
}

func TestParquetExistenceTracksWrites(t *testing.T) {
	store := newTestParquetStore(t)

	ok, err := store.HasTransactions()
	if err != nil {
		t.Fatalf("has transactions: %v", err)
	}
	if ok {
		t.Error("raw store reported present before any write")
	}

	if err := store.ReplaceTransactions(nil); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if ok, _ = store.HasTransactions(); !ok {
		t.Error("raw store reported missing after write")
	}

	if ok, _ = store.HasDateSummaries(); ok {
		t.Error("date-summary store reported present before any write")
	}
	if err := store.ReplaceDateSummaries(nil); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if ok, _ = store.HasDateSummaries(); !ok {
		t.Error("date-summary store reported missing after write")
	}
}

func TestParquetTransactionRoundTrip(t *testing.T) {
	store := newTestParquetStore(t)

	in := []models.MTransaction{
		{
			Date:          "2025-01-15",
			TransactionNo: 2025011500001,
			Symbol:        "NABIL",
			SymbolFull:    "Nabil Bank Limited",
			BuyerID:       "34",
			BuyerName:     "Kumari Securities",
			SellerID:      "40",
			SellerName:    "Sweta Securities",
			Quantity:      1000,
			Rate:          decimal.RequireFromString("512.50"),
			Amount:        decimal.RequireFromString("512500.00"),
		},
	}

	if err := store.ReplaceTransactions(in); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	out, err := store.LoadTransactions()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}

	got := out[0]
	if got.Date != in[0].Date || got.TransactionNo != in[0].TransactionNo {
		t.Errorf("key mismatch: %s/%d", got.Date, got.TransactionNo)
	}
	if got.Symbol != "NABIL" || got.SymbolFull != "Nabil Bank Limited" {
		t.Errorf("symbol mismatch: %q / %q", got.Symbol, got.SymbolFull)
	}
	if got.Quantity != 1000 {
		t.Errorf("quantity mismatch: %d", got.Quantity)
	}
	if !got.Rate.Equal(in[0].Rate) || !got.Amount.Equal(in[0].Amount) {
		t.Errorf("money mismatch: rate %s amount %s", got.Rate, got.Amount)
	}
}

func TestParquetDateSummaryRoundTrip(t *testing.T) {
	store := newTestParquetStore(t)

	in := []models.MDateSummary{
		{
			Date:             "2025-01-15",
			BrokerID:         "34",
			BrokerName:       "Kumari Securities",
			Symbol:           "NABIL",
			BuyQuantity:      10,
			SellQuantity:     5,
			BuyAmount:        decimal.RequireFromString("5000"),
			SellAmount:       decimal.RequireFromString("2550"),
			TransactionCount: 2,
			AvgBuyPrice:      decimal.RequireFromString("500"),
			AvgSellPrice:     decimal.RequireFromString("510"),
			NetQuantity:      5,
			AvgHoldingPrice:  decimal.RequireFromString("490"),
		},
	}

	if err := store.ReplaceDateSummaries(in); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	out, err := store.LoadDateSummaries()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if !out[0].BuyAmount.Equal(in[0].BuyAmount) || !out[0].AvgHoldingPrice.Equal(in[0].AvgHoldingPrice) {
		t.Errorf("money mismatch: %+v", out[0])
	}
	if out[0].TransactionCount != 2 || out[0].NetQuantity != 5 {
		t.Errorf("counts mismatch: %+v", out[0])
	}
}

func TestParquetCombinedRoundTrip(t *testing.T) {
	store := newTestParquetStore(t)

	in := []models.MCombinedSummary{
		{
			BrokerID:         "34",
			BrokerName:       "Kumari Securities",
			Symbol:           "NABIL",
			BuyQuantity:      30,
			SellQuantity:     5,
			BuyAmount:        decimal.RequireFromString("15100"),
			SellAmount:       decimal.RequireFromString("2550"),
			TransactionCount: 4,
			AvgBuyPrice:      decimal.RequireFromString("503.3333"),
			AvgSellPrice:     decimal.RequireFromString("510"),
			NetQuantity:      25,
			AvgHoldingPrice:  decimal.RequireFromString("502"),
			LastUpdated:      "2025-01-15",
		},
	}

	if err := store.ReplaceCombinedSummaries(in); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	out, err := store.LoadCombinedSummaries()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if out[0].LastUpdated != "2025-01-15" {
		t.Errorf("last updated mismatch: %s", out[0].LastUpdated)
	}
	if !out[0].AvgBuyPrice.Equal(in[0].AvgBuyPrice) {
		t.Errorf("avg buy price mismatch: %s", out[0].AvgBuyPrice)
	}
}

func TestParquetReplaceLeavesNoTempFile(t *testing.T) {
	store := newTestParquetStore(t)

	if err := store.ReplaceTransactions([]models.MTransaction{
		{Date: "2025-01-15", TransactionNo: 1, Quantity: 1,
			Rate: decimal.NewFromInt(500), Amount: decimal.NewFromInt(500)},
	}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if _, err := os.Stat(store.Config.Storage.RawPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after replace")
	}
	if _, err := os.Stat(store.Config.Storage.RawPath); err != nil {
		t.Errorf("store file missing after replace: %v", err)
	}
}

func TestParquetReplaceOverwrites(t *testing.T) {
	store := newTestParquetStore(t)

	write := func(n int) {
		rows := make([]models.MTransaction, n)
		for i := range rows {
			rows[i] = models.MTransaction{
				Date:          "2025-01-15",
				TransactionNo: int64(i + 1),
				Quantity:      1,
				Rate:          decimal.NewFromInt(500),
				Amount:        decimal.NewFromInt(500),
			}
		}
		if err := store.ReplaceTransactions(rows); err != nil {
			t.Fatalf("replace failed: %v", err)
		}
	}

	write(5)
	write(2)

	out, err := store.LoadTransactions()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 rows after overwrite, got %d", len(out))
	}
}
