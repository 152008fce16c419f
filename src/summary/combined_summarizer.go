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
// CombinedSummarizer reads the date-wise summary store and maintains the
// all-time summary: one row per (broker, symbol), summed across every
// retained date. The date-summary store is the single source of truth: each
// key present in the fresh computation replaces the stored row entirely, so
// re-runs with the same input are idempotent. Keys absent from the input are
// left unchanged until their last_updated falls out of the retention window.
// -----------------------------------------------------------------------------

type CombinedSummarizer struct {
	Store  interfaces.IFloorsheetStore
	Logger *logger.Logger
	Now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewCombinedSummarizer(store interfaces.IFloorsheetStore, log *logger.Logger) *CombinedSummarizer {
	return &CombinedSummarizer{
		Store:  store,
		Logger: log,
		Now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

// Run recomputes the combined summary and merges it into the store. Returns
// the number of rows written.
func (s *CombinedSummarizer) Run(retentionDays int) (int, error) {
	ok, err := s.Store.HasDateSummaries()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, helpers.NewStorageError("date-wise summary store does not exist; run the date summarizer first", nil)
	}

	dateSummaries, err := s.Store.LoadDateSummaries()
	if err != nil {
		return 0, err
	}

	computed := Aggregate(dateSummaries)
	s.Logger.Info("Aggregated %d date-summary rows into %d broker-stock combinations",
		len(dateSummaries), len(computed))

	merged, err := s.merge(computed, utils.CutoffDate(s.Now(), retentionDays))
	if err != nil {
		return 0, err
	}

	return len(merged), s.Store.ReplaceCombinedSummaries(merged)
}

// -----------------------------------------------------------------------------

// Aggregate sums date-wise rows per (broker, symbol). last_updated is the
// most recent contributing date; the broker name follows it.
func Aggregate(rows []models.MDateSummary) map[[2]string]models.MCombinedSummary {
	aggs := make(map[[2]string]*models.MCombinedSummary)

	for _, row := range rows {
		k := [2]string{row.BrokerID, row.Symbol}
		agg, ok := aggs[k]
		if !ok {
			agg = &models.MCombinedSummary{
				BrokerID:   row.BrokerID,
				BrokerName: row.BrokerName,
				Symbol:     row.Symbol,
			}
			aggs[k] = agg
		}

		agg.BuyQuantity += row.BuyQuantity
		agg.SellQuantity += row.SellQuantity
		agg.BuyAmount = agg.BuyAmount.Add(row.BuyAmount)
		agg.SellAmount = agg.SellAmount.Add(row.SellAmount)
		agg.TransactionCount += row.TransactionCount

		if row.Date > agg.LastUpdated {
			agg.LastUpdated = row.Date
			agg.BrokerName = row.BrokerName
		}
	}

	out := make(map[[2]string]models.MCombinedSummary, len(aggs))
	for k, agg := range aggs {
		agg.AvgBuyPrice = avgPrice(agg.BuyAmount, agg.BuyQuantity)
		agg.AvgSellPrice = avgPrice(agg.SellAmount, agg.SellQuantity)
		agg.NetQuantity = agg.BuyQuantity - agg.SellQuantity
		agg.AvgHoldingPrice = holdingPrice(agg.BuyAmount, agg.SellAmount, agg.NetQuantity)
		out[k] = *agg
	}

	return out
}

// -----------------------------------------------------------------------------

func (s *CombinedSummarizer) merge(computed map[[2]string]models.MCombinedSummary, cutoff string) ([]models.MCombinedSummary, error) {
	existing, err := s.Store.LoadCombinedSummaries()
	if err != nil {
		return nil, err
	}

	merged := make([]models.MCombinedSummary, 0, len(existing)+len(computed))
	purged := 0
	for _, row := range existing {
		if _, recomputed := computed[[2]string{row.BrokerID, row.Symbol}]; recomputed {
			continue
		}
		if row.LastUpdated < cutoff {
			purged++
			continue
		}
		merged = append(merged, row)
	}
	if purged > 0 {
		s.Logger.Info("Removed %d combined records not updated since %s", purged, cutoff)
	}

	for _, row := range computed {
		if row.LastUpdated < cutoff {
			continue
		}
		merged = append(merged, row)
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.BrokerID != b.BrokerID {
			return a.BrokerID < b.BrokerID
		}
		return a.Symbol < b.Symbol
	})

	return merged, nil
}
