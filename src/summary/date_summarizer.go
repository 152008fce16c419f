package summary

import (
	"sort"
	"time"

	"floorsheet-observer/src/helpers"
	"floorsheet-observer/src/interfaces"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/models"
	"floorsheet-observer/src/utils"
)

// -----------------------------------------------------------------------------
// DateSummarizer reads the raw store and maintains the date-wise summary
// store: one row per (date, broker, symbol) with buy/sell totals and derived
// metrics. Every date present in the input has its partition replaced
// wholesale, so re-summarizing a re-downloaded date leaves no stale rows.
// -----------------------------------------------------------------------------

type DateSummarizer struct {
	Store  interfaces.IFloorsheetStore
	Logger *logger.Logger
	Now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewDateSummarizer(store interfaces.IFloorsheetStore, log *logger.Logger) *DateSummarizer {
	return &DateSummarizer{
		Store:  store,
		Logger: log,
		Now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

// Run computes summaries for every date in the raw store and merges them into
// the date-summary store. Returns the number of summary rows written.
func (s *DateSummarizer) Run(retentionDays int) (int, error) {
	ok, err := s.Store.HasTransactions()
	if err != nil {
		return 0, err
	}
	if !ok {
		// A missing input is a pipeline fault (wrong path, stage never ran),
		// not an empty trading day.
		return 0, helpers.NewStorageError("raw floorsheet store does not exist; run the downloader first", nil)
	}

	raw, err := s.Store.LoadTransactions()
	if err != nil {
		return 0, err
	}

	cutoff := utils.CutoffDate(s.Now(), retentionDays)

	input := raw[:0:0]
	for _, t := range raw {
		if t.Date >= cutoff {
			input = append(input, t)
		}
	}
	if dropped := len(raw) - len(input); dropped > 0 {
		s.Logger.Info("Filtered out %d raw records older than %s", dropped, cutoff)
	}

	computed := Summarize(input)
	s.Logger.Info("Summarized %d raw records into %d rows across %d dates",
		len(input), countRows(computed), len(computed))

	merged, err := s.merge(computed, cutoff)
	if err != nil {
		return 0, err
	}

	return len(merged), s.Store.ReplaceDateSummaries(merged)
}

// -----------------------------------------------------------------------------

// Summarize groups raw transactions by (date, broker, symbol). A broker
// appearing only as buyer or only as seller still gets a full row with the
// missing side at zero.
func Summarize(raw []models.MTransaction) map[string][]models.MDateSummary {
	type key struct {
		date   string
		broker string
		symbol string
	}

	aggs := make(map[key]*models.MDateSummary)

	side := func(date, brokerID, brokerName string, t models.MTransaction) *models.MDateSummary {
		k := key{date: date, broker: brokerID, symbol: t.Symbol}
		agg, ok := aggs[k]
		if !ok {
			agg = &models.MDateSummary{
				Date:       date,
				BrokerID:   brokerID,
				BrokerName: brokerName,
				Symbol:     t.Symbol,
			}
			aggs[k] = agg
		}
		return agg
	}

	for _, t := range raw {
		buyer := side(t.Date, t.BuyerID, t.BuyerName, t)
		buyer.BuyQuantity += t.Quantity
		buyer.BuyAmount = buyer.BuyAmount.Add(t.Amount)
		buyer.TransactionCount++

		seller := side(t.Date, t.SellerID, t.SellerName, t)
		seller.SellQuantity += t.Quantity
		seller.SellAmount = seller.SellAmount.Add(t.Amount)
		if t.SellerID != t.BuyerID {
			// A self-trade counts once for the broker
			seller.TransactionCount++
		}
	}

	byDate := make(map[string][]models.MDateSummary)
	for _, agg := range aggs {
		agg.AvgBuyPrice = avgPrice(agg.BuyAmount, agg.BuyQuantity)
		agg.AvgSellPrice = avgPrice(agg.SellAmount, agg.SellQuantity)
		agg.NetQuantity = agg.BuyQuantity - agg.SellQuantity
		agg.AvgHoldingPrice = holdingPrice(agg.BuyAmount, agg.SellAmount, agg.NetQuantity)
		byDate[agg.Date] = append(byDate[agg.Date], *agg)
	}

	return byDate
}

// -----------------------------------------------------------------------------

// merge replaces every recomputed date's partition in the existing store,
// keeps untouched dates, applies retention, and returns a deterministically
// ordered dataset.
func (s *DateSummarizer) merge(computed map[string][]models.MDateSummary, cutoff string) ([]models.MDateSummary, error) {
	existing, err := s.Store.LoadDateSummaries()
	if err != nil {
		return nil, err
	}

	merged := make([]models.MDateSummary, 0, len(existing))
	purged := 0
	for _, row := range existing {
		if _, recomputed := computed[row.Date]; recomputed {
			continue
		}
		if row.Date < cutoff {
			purged++
			continue
		}
		merged = append(merged, row)
	}
	if purged > 0 {
		s.Logger.Info("Removed %d summary records older than %s", purged, cutoff)
	}

	for date, rows := range computed {
		if date < cutoff {
			continue
		}
		merged = append(merged, rows...)
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.BrokerID != b.BrokerID {
			return a.BrokerID < b.BrokerID
		}
		return a.Symbol < b.Symbol
	})

	return merged, nil
}

// -----------------------------------------------------------------------------

func countRows(byDate map[string][]models.MDateSummary) int {
	n := 0
	for _, rows := range byDate {
		n += len(rows)
	}
	return n
}
