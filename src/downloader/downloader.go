package downloader

import (
	"math/rand"
	"time"

	"floorsheet-observer/src/interfaces"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/models"
	"floorsheet-observer/src/utils"
)

// -----------------------------------------------------------------------------
// Downloader fetches all floorsheet pages for one trading date and merges
// them into the raw store: rows whose (date, transaction_no) key already
// exists are dropped, novel rows are appended, and rows older than the
// retention window are purged. Re-running for the same date leaves the store
// unchanged.
// -----------------------------------------------------------------------------

type Downloader struct {
	Config *models.MConfig
	Source interfaces.IFloorsheetSource
	Store  interfaces.IFloorsheetStore
	Logger *logger.Logger
	Now    func() time.Time
}

// -----------------------------------------------------------------------------

// MResult reports what a run did.
type MResult struct {
	TradingDate string
	Downloaded  int
	Duplicates  int
	Appended    int
	Purged      int
	PagesRead   int
}

// -----------------------------------------------------------------------------

func NewDownloader(cfg *models.MConfig, source interfaces.IFloorsheetSource, store interfaces.IFloorsheetStore, log *logger.Logger) *Downloader {
	return &Downloader{
		Config: cfg,
		Source: source,
		Store:  store,
		Logger: log,
		Now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

// Run downloads the floorsheet for targetDate (empty = the site's latest
// trading day) and merges it into the raw store. maxPages caps the page walk;
// 0 means all declared pages. Any fetch or parse failure aborts the run
// before the store is touched.
func (d *Downloader) Run(targetDate string, maxPages int, retentionDays int) (*MResult, error) {
	batch, tradingDate, pagesRead, err := d.download(targetDate, maxPages)
	if err != nil {
		return nil, err
	}

	res := &MResult{
		TradingDate: tradingDate,
		Downloaded:  len(batch),
		PagesRead:   pagesRead,
	}

	if len(batch) == 0 {
		// A valid date with no transactions is a legitimate empty result,
		// but retention still applies to what is already stored.
		d.Logger.Info("No transactions found for %s", tradingDate)
	}

	return res, d.merge(batch, retentionDays, res)
}

// -----------------------------------------------------------------------------

// download walks the page sequence. Stops at the declared page count, at an
// empty page, or at maxPages, whichever comes first.
func (d *Downloader) download(targetDate string, maxPages int) ([]models.MTransaction, string, int, error) {
	first, err := d.Source.FetchPage(targetDate, 1)
	if err != nil {
		return nil, "", 0, err
	}

	tradingDate := first.TradingDate
	if tradingDate == "" {
		tradingDate = targetDate
	}

	totalPages := first.TotalPages
	if maxPages > 0 && maxPages < totalPages {
		totalPages = maxPages
	}
	d.Logger.Info("Date: %s, Total pages: %d (fetching %d)", tradingDate, first.TotalPages, totalPages)

	all := make([]models.MTransaction, 0, len(first.Transactions)*totalPages)
	all = append(all, stampDate(first.Transactions, tradingDate)...)
	d.Logger.Info("Processed page 1/%d, extracted %d transactions", totalPages, len(first.Transactions))

	pagesRead := 1
	for pageNum := 2; pageNum <= totalPages; pageNum++ {
		d.politeDelay()

		page, err := d.Source.FetchPage(targetDate, pageNum)
		if err != nil {
			// A missing page would corrupt the dedup-by-transaction-number
			// invariant, so the whole run aborts with nothing written.
			return nil, "", pagesRead, err
		}

		pagesRead++
		if len(page.Transactions) == 0 {
			d.Logger.Info("Page %d/%d is empty, stopping", pageNum, totalPages)
			break
		}

		all = append(all, stampDate(page.Transactions, tradingDate)...)
		d.Logger.Info("Processed page %d/%d, extracted %d transactions", pageNum, totalPages, len(page.Transactions))
	}

	return all, tradingDate, pagesRead, nil
}

// -----------------------------------------------------------------------------

// merge loads the existing store, drops candidate rows whose key is already
// present, appends the rest, applies retention, and writes back in one
// replace. The write is skipped when nothing was appended or purged.
func (d *Downloader) merge(batch []models.MTransaction, retentionDays int, res *MResult) error {
	existing, err := d.Store.LoadTransactions()
	if err != nil {
		return err
	}

	cutoff := utils.CutoffDate(d.Now(), retentionDays)

	kept := make([]models.MTransaction, 0, len(existing)+len(batch))
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		if t.Date < cutoff {
			res.Purged++
			continue
		}
		seen[t.Key()] = struct{}{}
		kept = append(kept, t)
	}

	for _, t := range batch {
		if _, ok := seen[t.Key()]; ok {
			res.Duplicates++
			continue
		}
		if t.Date < cutoff {
			res.Purged++
			continue
		}
		seen[t.Key()] = struct{}{}
		kept = append(kept, t)
		res.Appended++
	}

	if res.Purged > 0 {
		d.Logger.Info("Removed %d records older than %s", res.Purged, cutoff)
	}
	if res.Appended == 0 && res.Purged == 0 {
		d.Logger.Info("Found %d duplicate records, nothing new to write", res.Duplicates)
		return nil
	}
	d.Logger.Info("Found %d duplicate records, adding %d new records (%d total)",
		res.Duplicates, res.Appended, len(kept))

	return d.Store.ReplaceTransactions(kept)
}

// -----------------------------------------------------------------------------

// politeDelay sleeps a random interval between page fetches.
func (d *Downloader) politeDelay() {
	min := d.Config.Network.DelayMinMs
	max := d.Config.Network.DelayMaxMs
	if max <= 0 {
		return
	}

	delay := min
	if max > min {
		delay = min + rand.Intn(max-min)
	}
	time.Sleep(time.Duration(delay) * time.Millisecond)
}

// -----------------------------------------------------------------------------

// stampDate fills the trading date on rows parsed from pages that omit the
// "As of" header (only the first page reliably carries it).
func stampDate(rows []models.MTransaction, date string) []models.MTransaction {
	for i := range rows {
		if rows[i].Date == "" {
			rows[i].Date = date
		}
	}
	return rows
}
