package merolagani

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"floorsheet-observer/src/helpers"
	"floorsheet-observer/src/interfaces"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/models"
	"floorsheet-observer/src/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Patterns for the page metadata the site renders as free text.
var (
	asOfRe      = regexp.MustCompile(`As of\s+(\d{4}/\d{2}/\d{2})`)
	totalPagesRe = regexp.MustCompile(`Total pages:\s*(\d+)`)
)

// -----------------------------------------------------------------------------

// FloorsheetSource scrapes the merolagani.com floorsheet listing.
type FloorsheetSource struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFloorsheetSource(cfg *models.MConfig, netMgr interfaces.INetworkManager) *FloorsheetSource {
	return &FloorsheetSource{
		Config:  cfg,
		Network: netMgr,
		Logger:  logger.NewLogger(cfg.LogLevel, "FloorsheetSource-"+cfg.Source.Name),
	}
}

// -----------------------------------------------------------------------------

func (s *FloorsheetSource) Name() string {
	return s.Config.Source.Name
}

// -----------------------------------------------------------------------------

// FetchPage retrieves and parses one floorsheet page. date is YYYY-MM-DD or
// empty for the site's latest trading day.
func (s *FloorsheetSource) FetchPage(date string, pageNum int) (*interfaces.MPage, error) {
	params := map[string]string{}
	if pageNum > 1 {
		params["pg"] = strconv.Itoa(pageNum)
	}
	if date != "" {
		// The site expects YYYY/MM/DD
		params["date"] = strings.ReplaceAll(date, "-", "/")
	}

	body, err := s.Network.Get(s.Config.Source.BaseURL, params)
	if err != nil {
		return nil, err
	}

	return s.parsePage(body, pageNum)
}

// -----------------------------------------------------------------------------

func (s *FloorsheetSource) parsePage(body []byte, pageNum int) (*interfaces.MPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, helpers.NewParseError(fmt.Sprintf("page %d is not parseable HTML", pageNum), err)
	}

	page := &interfaces.MPage{
		Number:      pageNum,
		TotalPages:  extractTotalPages(body),
		TradingDate: extractTradingDate(body),
	}

	table := doc.Find("table.table").First()
	if table.Length() == 0 {
		// No floorsheet table on the page: legitimate empty result
		return page, nil
	}

	var rowErr error
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 || rowErr != nil { // Skip header row
			return
		}

		cols := row.Find("td")
		if cols.Length() < 8 {
			return
		}

		txn, err := parseRow(cols, page.TradingDate)
		if err != nil {
			rowErr = helpers.NewParseError(fmt.Sprintf("malformed row on page %d", pageNum), err)
			return
		}

		page.Transactions = append(page.Transactions, txn)
	})
	if rowErr != nil {
		return nil, rowErr
	}

	s.Logger.Debug("Parsed page %d: %d transactions, total pages %d, date %s",
		pageNum, len(page.Transactions), page.TotalPages, page.TradingDate)

	return page, nil
}

// -----------------------------------------------------------------------------

func parseRow(cols *goquery.Selection, date string) (models.MTransaction, error) {
	var txn models.MTransaction
	txn.Date = date

	txnNo, err := parseInt(cols.Eq(1).Text())
	if err != nil {
		return txn, fmt.Errorf("transaction no: %w", err)
	}
	txn.TransactionNo = txnNo

	// Symbol and broker cells carry the full name in the link title
	txn.Symbol, txn.SymbolFull = parseLinkCell(cols.Eq(2))
	txn.BuyerID, txn.BuyerName = parseLinkCell(cols.Eq(3))
	txn.SellerID, txn.SellerName = parseLinkCell(cols.Eq(4))

	txn.Quantity, err = parseInt(cols.Eq(5).Text())
	if err != nil {
		return txn, fmt.Errorf("quantity: %w", err)
	}

	txn.Rate, err = parseDecimal(cols.Eq(6).Text())
	if err != nil {
		return txn, fmt.Errorf("rate: %w", err)
	}

	txn.Amount, err = parseDecimal(cols.Eq(7).Text())
	if err != nil {
		return txn, fmt.Errorf("amount: %w", err)
	}

	return txn, nil
}

// -----------------------------------------------------------------------------

func parseLinkCell(cell *goquery.Selection) (text, title string) {
	link := cell.Find("a").First()
	if link.Length() == 0 {
		return strings.TrimSpace(cell.Text()), ""
	}
	title, _ = link.Attr("title")
	return strings.TrimSpace(link.Text()), strings.TrimSpace(title)
}

// -----------------------------------------------------------------------------

func parseInt(raw string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	return strconv.ParseInt(cleaned, 10, 64)
}

// -----------------------------------------------------------------------------

func parseDecimal(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	return decimal.NewFromString(cleaned)
}

// -----------------------------------------------------------------------------

// extractTradingDate pulls the "As of YYYY/MM/DD" header and normalizes it to
// YYYY-MM-DD. Empty when the header is absent.
func extractTradingDate(body []byte) string {
	m := asOfRe.FindSubmatch(body)
	if m == nil {
		return ""
	}

	t, err := time.Parse("2006/01/02", string(m[1]))
	if err != nil {
		return ""
	}
	return t.Format(utils.DateLayout)
}

// -----------------------------------------------------------------------------

// extractTotalPages pulls the declared page count. Defaults to 1 when the
// pagination text is missing.
func extractTotalPages(body []byte) int {
	m := totalPagesRe.FindSubmatch(body)
	if m == nil {
		return 1
	}

	n, err := strconv.Atoi(string(m[1]))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
