package merolagani

import (
	"errors"
	"testing"

	"floorsheet-observer/src/helpers"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/models"

	"github.com/shopspring/decimal"
)

const fixturePage = `<html><body>
<div class="panel-title">Floorsheet As of 2025/01/15</div>
<table class="table table-bordered">
<tr><th>#</th><th>Transaction No.</th><th>Symbol</th><th>Buyer</th><th>Seller</th><th>Quantity</th><th>Rate</th><th>Amount</th></tr>
<tr>
  <td>1</td>
  <td>2025011500001</td>
  <td><a href="#" title="Nabil Bank Limited">NABIL</a></td>
  <td><a href="#" title="Kumari Securities">34</a></td>
  <td><a href="#" title="Sweta Securities">40</a></td>
  <td>1,000</td>
  <td>512.50</td>
  <td>512,500.00</td>
</tr>
<tr>
  <td>2</td>
  <td>2025011500002</td>
  <td><a href="#" title="Nepal Telecom">NTC</a></td>
  <td><a href="#" title="Sweta Securities">40</a></td>
  <td><a href="#" title="Kumari Securities">34</a></td>
  <td>50</td>
  <td>900.00</td>
  <td>45,000.00</td>
</tr>
</table>
<div>Total pages: 57]</div>
</body></html>`

// fakeNetwork records the request and serves a canned body.
type fakeNetwork struct {
	body   []byte
	err    error
	url    string
	params map[string]string
}

func (f *fakeNetwork) Get(url string, params map[string]string) ([]byte, error) {
	f.url = url
	f.params = params
	return f.body, f.err
}

func testSource(network *fakeNetwork) *FloorsheetSource {
	cfg := &models.MConfig{
		LogLevel: "ERROR",
		Source: models.MSourceConfig{
			Name:    "merolagani",
			BaseURL: "https://merolagani.com/Floorsheet.aspx",
		},
	}
	return &FloorsheetSource{
		Config:  cfg,
		Network: network,
		Logger:  logger.NewLogger("ERROR", "test"),
	}
}

func TestFetchPageParsesRows(t *testing.T) {
	network := &fakeNetwork{body: []byte(fixturePage)}
	page, err := testSource(network).FetchPage("", 1)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if page.TradingDate != "2025-01-15" {
		t.Errorf("trading date: got %s, want 2025-01-15", page.TradingDate)
	}
	if page.TotalPages != 57 {
		t.Errorf("total pages: got %d, want 57", page.TotalPages)
	}
	if len(page.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(page.Transactions))
	}

	first := page.Transactions[0]
	if first.TransactionNo != 2025011500001 {
		t.Errorf("transaction no: got %d", first.TransactionNo)
	}
	if first.Symbol != "NABIL" || first.SymbolFull != "Nabil Bank Limited" {
		t.Errorf("symbol: got %q / %q", first.Symbol, first.SymbolFull)
	}
	if first.BuyerID != "34" || first.BuyerName != "Kumari Securities" {
		t.Errorf("buyer: got %q / %q", first.BuyerID, first.BuyerName)
	}
	if first.SellerID != "40" || first.SellerName != "Sweta Securities" {
		t.Errorf("seller: got %q / %q", first.SellerID, first.SellerName)
	}
	if first.Quantity != 1000 {
		t.Errorf("quantity: got %d, want 1000", first.Quantity)
	}
	if !first.Rate.Equal(decimal.RequireFromString("512.50")) {
		t.Errorf("rate: got %s", first.Rate)
	}
	if !first.Amount.Equal(decimal.RequireFromString("512500.00")) {
		t.Errorf("amount: got %s", first.Amount)
	}
	if first.Date != "2025-01-15" {
		t.Errorf("row date: got %q", first.Date)
	}
}

func TestFetchPageRequestParams(t *testing.T) {
	network := &fakeNetwork{body: []byte(fixturePage)}
	src := testSource(network)

	if _, err := src.FetchPage("", 1); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if network.url != "https://merolagani.com/Floorsheet.aspx" {
		t.Errorf("url: got %s", network.url)
	}
	if _, ok := network.params["pg"]; ok {
		t.Error("pg param sent for page 1")
	}
	if _, ok := network.params["date"]; ok {
		t.Error("date param sent for empty target date")
	}

	if _, err := src.FetchPage("2025-01-15", 3); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if network.params["pg"] != "3" {
		t.Errorf("pg param: got %q, want 3", network.params["pg"])
	}
	// Site expects slashes
	if network.params["date"] != "2025/01/15" {
		t.Errorf("date param: got %q, want 2025/01/15", network.params["date"])
	}
}

func TestFetchPageMalformedRow(t *testing.T) {
	bad := `<html><body><table class="table">
<tr><th>#</th><th>No</th><th>Sym</th><th>B</th><th>S</th><th>Qty</th><th>Rate</th><th>Amt</th></tr>
<tr><td>1</td><td>not-a-number</td><td>NABIL</td><td>34</td><td>40</td><td>10</td><td>500</td><td>5000</td></tr>
</table></body></html>`

	network := &fakeNetwork{body: []byte(bad)}
	_, err := testSource(network).FetchPage("2025-01-15", 1)
	if err == nil {
		t.Fatal("expected parse error")
	}

	var parseErr *helpers.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *helpers.ParseError, got %T", err)
	}
}

func TestFetchPageWithoutTableIsEmpty(t *testing.T) {
	network := &fakeNetwork{body: []byte(`<html><body><p>No data</p></body></html>`)}
	page, err := testSource(network).FetchPage("2025-01-15", 1)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(page.Transactions) != 0 {
		t.Errorf("expected no transactions, got %d", len(page.Transactions))
	}
	if page.TotalPages != 1 {
		t.Errorf("total pages default: got %d, want 1", page.TotalPages)
	}
	if page.TradingDate != "" {
		t.Errorf("trading date: got %q, want empty", page.TradingDate)
	}
}

func TestFetchPagePropagatesNetworkError(t *testing.T) {
	network := &fakeNetwork{err: errors.New("blocked")}
	if _, err := testSource(network).FetchPage("2025-01-15", 1); err == nil {
		t.Fatal("expected network error")
	}
}
