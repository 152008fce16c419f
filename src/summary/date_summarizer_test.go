package summary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"floorsheet-observer/src/helpers"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/models"
	"floorsheet-observer/src/storage"

	"github.com/shopspring/decimal"
)

// fakeStore holds the three datasets in memory for summarizer tests.
type fakeStore struct {
	transactions    []models.MTransaction
	dateSums        []models.MDateSummary
	combined        []models.MCombinedSummary
	rawMissing      bool
	dateSumsMissing bool
}

func (f *fakeStore) Initialize() error { return nil }
func (f *fakeStore) Close() error      { return nil }

func (f *fakeStore) HasTransactions() (bool, error)  { return !f.rawMissing, nil }
func (f *fakeStore) HasDateSummaries() (bool, error) { return !f.dateSumsMissing, nil }

func (f *fakeStore) LoadTransactions() ([]models.MTransaction, error) { return f.transactions, nil }
func (f *fakeStore) ReplaceTransactions(rows []models.MTransaction) error {
	f.transactions = rows
	return nil
}

func (f *fakeStore) LoadDateSummaries() ([]models.MDateSummary, error) { return f.dateSums, nil }
func (f *fakeStore) ReplaceDateSummaries(rows []models.MDateSummary) error {
	f.dateSums = rows
	return nil
}

func (f *fakeStore) LoadCombinedSummaries() ([]models.MCombinedSummary, error) {
	return f.combined, nil
}
func (f *fakeStore) ReplaceCombinedSummaries(rows []models.MCombinedSummary) error {
	f.combined = rows
	return nil
}

func testLogger() *logger.Logger {
	return logger.NewLogger("ERROR", "test")
}

func fixedNow() time.Time {
	return time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func txn(date string, no int64, symbol, buyer, seller string, qty int64, rate, amount string) models.MTransaction {
	return models.MTransaction{
		Date:          date,
		TransactionNo: no,
		Symbol:        symbol,
		BuyerID:       buyer,
		BuyerName:     "Broker " + buyer,
		SellerID:      seller,
		SellerName:    "Broker " + seller,
		Quantity:      qty,
		Rate:          dec(rate),
		Amount:        dec(amount),
	}
}

func findDateSummary(t *testing.T, rows []models.MDateSummary, date, broker, symbol string) models.MDateSummary {
	t.Helper()
	for _, row := range rows {
		if row.Date == date && row.BrokerID == broker && row.Symbol == symbol {
			return row
		}
	}
	t.Fatalf("no summary row for (%s, %s, %s)", date, broker, symbol)
	return models.MDateSummary{}
}

func TestSummarizeBuyAndSellSides(t *testing.T) {
	raw := []models.MTransaction{
		txn("2025-01-15", 1, "NABIL", "34", "40", 10, "500", "5000"),
		txn("2025-01-15", 2, "NABIL", "52", "34", 5, "510", "2550"),
	}

	byDate := Summarize(raw)
	rows := byDate["2025-01-15"]
	if len(rows) != 3 {
		t.Fatalf("expected 3 summary rows, got %d", len(rows))
	}

	b34 := findDateSummary(t, rows, "2025-01-15", "34", "NABIL")
	if b34.BuyQuantity != 10 || b34.SellQuantity != 5 {
		t.Errorf("broker 34 quantities: buy %d sell %d", b34.BuyQuantity, b34.SellQuantity)
	}
	if !b34.BuyAmount.Equal(dec("5000")) || !b34.SellAmount.Equal(dec("2550")) {
		t.Errorf("broker 34 amounts: buy %s sell %s", b34.BuyAmount, b34.SellAmount)
	}
	if b34.TransactionCount != 2 {
		t.Errorf("broker 34 transaction count: got %d, want 2", b34.TransactionCount)
	}
	if !b34.AvgBuyPrice.Equal(dec("500")) {
		t.Errorf("broker 34 avg buy price: got %s, want 500", b34.AvgBuyPrice)
	}
	if !b34.AvgSellPrice.Equal(dec("510")) {
		t.Errorf("broker 34 avg sell price: got %s, want 510", b34.AvgSellPrice)
	}
	if b34.NetQuantity != 5 {
		t.Errorf("broker 34 net quantity: got %d, want 5", b34.NetQuantity)
	}
	// (5000 - 2550) / 5
	if !b34.AvgHoldingPrice.Equal(dec("490")) {
		t.Errorf("broker 34 avg holding price: got %s, want 490", b34.AvgHoldingPrice)
	}

	b40 := findDateSummary(t, rows, "2025-01-15", "40", "NABIL")
	if b40.BuyQuantity != 0 || b40.SellQuantity != 10 || b40.TransactionCount != 1 {
		t.Errorf("broker 40: buy %d sell %d count %d", b40.BuyQuantity, b40.SellQuantity, b40.TransactionCount)
	}
	if b40.NetQuantity != -10 || !b40.AvgHoldingPrice.IsZero() {
		t.Errorf("broker 40 net/holding: %d / %s", b40.NetQuantity, b40.AvgHoldingPrice)
	}

	b52 := findDateSummary(t, rows, "2025-01-15", "52", "NABIL")
	if b52.BuyQuantity != 5 || b52.TransactionCount != 1 {
		t.Errorf("broker 52: buy %d count %d", b52.BuyQuantity, b52.TransactionCount)
	}
}

func TestSummarizeSelfTradeCountsOnce(t *testing.T) {
	raw := []models.MTransaction{
		txn("2025-01-15", 1, "NTC", "34", "34", 100, "900", "90000"),
	}

	rows := Summarize(raw)["2025-01-15"]
	if len(rows) != 1 {
		t.Fatalf("expected 1 summary row, got %d", len(rows))
	}

	row := rows[0]
	if row.BuyQuantity != 100 || row.SellQuantity != 100 {
		t.Errorf("self-trade quantities: buy %d sell %d", row.BuyQuantity, row.SellQuantity)
	}
	if row.TransactionCount != 1 {
		t.Errorf("self-trade transaction count: got %d, want 1", row.TransactionCount)
	}
	if row.NetQuantity != 0 {
		t.Errorf("self-trade net quantity: got %d, want 0", row.NetQuantity)
	}
}

func TestSummarizeGroupsPerDate(t *testing.T) {
	raw := []models.MTransaction{
		txn("2025-01-14", 1, "NABIL", "34", "40", 10, "500", "5000"),
		txn("2025-01-15", 1, "NABIL", "34", "40", 20, "505", "10100"),
	}

	byDate := Summarize(raw)
	if len(byDate) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(byDate))
	}
	if got := findDateSummary(t, byDate["2025-01-14"], "2025-01-14", "34", "NABIL"); got.BuyQuantity != 10 {
		t.Errorf("2025-01-14 broker 34 buy quantity: got %d, want 10", got.BuyQuantity)
	}
	if got := findDateSummary(t, byDate["2025-01-15"], "2025-01-15", "34", "NABIL"); got.BuyQuantity != 20 {
		t.Errorf("2025-01-15 broker 34 buy quantity: got %d, want 20", got.BuyQuantity)
	}
}

func TestDateSummarizerReplacesRecomputedPartition(t *testing.T) {
	store := &fakeStore{
		transactions: []models.MTransaction{
			txn("2025-01-15", 1, "NABIL", "34", "40", 10, "500", "5000"),
		},
		dateSums: []models.MDateSummary{
			// Stale row for the recomputed date: must disappear
			{Date: "2025-01-15", BrokerID: "99", Symbol: "NABIL", BuyQuantity: 777},
			// Untouched date: must survive
			{Date: "2025-01-10", BrokerID: "10", Symbol: "NTC", BuyQuantity: 50},
		},
	}

	s := NewDateSummarizer(store, testLogger())
	s.Now = fixedNow

	n, err := s.Run(365)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows written, got %d", n)
	}

	for _, row := range store.dateSums {
		if row.Date == "2025-01-15" && row.BrokerID == "99" {
			t.Errorf("stale row for recomputed date survived: %+v", row)
		}
	}
	findDateSummary(t, store.dateSums, "2025-01-10", "10", "NTC")
	findDateSummary(t, store.dateSums, "2025-01-15", "34", "NABIL")
	findDateSummary(t, store.dateSums, "2025-01-15", "40", "NABIL")
}

func TestDateSummarizerRetention(t *testing.T) {
	store := &fakeStore{
		transactions: []models.MTransaction{
			txn("2023-06-01", 1, "NABIL", "34", "40", 10, "500", "5000"),
			txn("2025-01-15", 2, "NABIL", "34", "40", 10, "500", "5000"),
		},
		dateSums: []models.MDateSummary{
			{Date: "2023-05-01", BrokerID: "10", Symbol: "NTC", BuyQuantity: 50},
		},
	}

	s := NewDateSummarizer(store, testLogger())
	s.Now = fixedNow

	if _, err := s.Run(365); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, row := range store.dateSums {
		if row.Date < "2024-01-20" {
			t.Errorf("expired row survived: %+v", row)
		}
	}
	findDateSummary(t, store.dateSums, "2025-01-15", "34", "NABIL")
	findDateSummary(t, store.dateSums, "2025-01-15", "40", "NABIL")
}

func TestDateSummarizerFailsWhenRawStoreMissing(t *testing.T) {
	store := &fakeStore{rawMissing: true}

	s := NewDateSummarizer(store, testLogger())
	s.Now = fixedNow

	if _, err := s.Run(365); err == nil {
		t.Fatal("expected error for missing raw store")
	}
	if len(store.dateSums) != 0 {
		t.Error("output written despite missing input")
	}
}

func TestDateSummarizerMissingInputFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &models.MConfig{
		LogLevel: "ERROR",
		Storage: models.MStorageConfig{
			DBType:          "parquet",
			RawPath:         filepath.Join(dir, "missing.parquet"),
			DateSummaryPath: filepath.Join(dir, "date.parquet"),
			CombinedPath:    filepath.Join(dir, "combined.parquet"),
		},
	}
	store, err := storage.NewParquetStore(cfg, testLogger())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	s := NewDateSummarizer(store, testLogger())
	s.Now = fixedNow

	if _, err := s.Run(365); err == nil {
		t.Fatal("expected error when the raw store file does not exist")
	} else {
		var storageErr *helpers.StorageError
		if !errors.As(err, &storageErr) {
			t.Errorf("expected *helpers.StorageError, got %T", err)
		}
	}

	if _, err := os.Stat(cfg.Storage.DateSummaryPath); !os.IsNotExist(err) {
		t.Error("summary output written despite missing input")
	}
}

func TestDateSummarizerRunIsIdempotent(t *testing.T) {
	store := &fakeStore{
		transactions: []models.MTransaction{
			txn("2025-01-15", 1, "NABIL", "34", "40", 10, "500", "5000"),
			txn("2025-01-15", 2, "NTC", "40", "52", 3, "900", "2700"),
		},
	}

	s := NewDateSummarizer(store, testLogger())
	s.Now = fixedNow

	first, err := s.Run(365)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := s.Run(365)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if first != second {
		t.Errorf("row count changed between runs: %d then %d", first, second)
	}
}
