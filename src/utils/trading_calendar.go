package utils

import (
	"log"
	"time"

	"github.com/scmhub/calendar"
)

// DateLayout is the date format used across all three stores.
const DateLayout = "2006-01-02"

// -----------------------------------------------------------------------------

// TradingCalendar calculates trading days using scmhub/calendar, with a
// NEPSE-shaped fallback (Sunday to Thursday, Kathmandu time) when the MIC is
// not covered by the library.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

func GetCalendar(mic string) *TradingCalendar {
	// scmhub/calendar.GetCalendar returns a calendar by MIC (ISO 10383)
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		log.Printf("WARNING: No calendar for MIC '%s'. Using NEPSE fallback (Sun-Thu, Asia/Kathmandu).", mic)
		loc, err := time.LoadLocation("Asia/Kathmandu")
		if err != nil {
			loc = time.UTC // Worst case
		}
		return &TradingCalendar{Fallback: true, Timezone: loc}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	// Normalize to timezone if available
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		// NEPSE trades Sunday through Thursday
		weekday := date.Weekday()
		return weekday != time.Friday && weekday != time.Saturday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// LatestTradingDay returns the most recent trading day at or before now,
// formatted as YYYY-MM-DD. Used as the downloader's default target date.
func (tc *TradingCalendar) LatestTradingDay(now time.Time) string {
	if tc.Timezone != nil {
		now = now.In(tc.Timezone)
	}

	day := now
	for i := 0; i < 14; i++ {
		if tc.IsTradingDay(day) {
			return day.Format(DateLayout)
		}
		day = day.AddDate(0, 0, -1)
	}

	// Two weeks without a trading day means the calendar data is broken;
	// fall back to today so the site decides.
	return now.Format(DateLayout)
}

// -----------------------------------------------------------------------------

// CutoffDate returns the retention boundary: rows whose governing date is
// strictly older than the returned YYYY-MM-DD value must be purged.
func CutoffDate(now time.Time, retentionDays int) string {
	return now.AddDate(0, 0, -retentionDays).Format(DateLayout)
}
