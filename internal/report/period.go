package report

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// CurrentWeek returns the Monday-based week containing now.
func CurrentWeek(now time.Time) DateRange {
	monday := startOfWeek(now)
	return rangeOf(monday, monday.AddDate(0, 0, 7))
}

// PeriodRange resolves a named reporting period relative to now.
func PeriodRange(period string, now time.Time) (DateRange, error) {
	switch strings.ToLower(period) {
	case "", "this-week", "thisweek":
		return CurrentWeek(now), nil
	case "last-week", "lastweek":
		monday := startOfWeek(now).AddDate(0, 0, -7)
		return rangeOf(monday, monday.AddDate(0, 0, 7)), nil
	case "this-month", "thismonth":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return rangeOf(first, first.AddDate(0, 1, 0)), nil
	case "last-month", "lastmonth":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return rangeOf(first.AddDate(0, -1, 0), first), nil
	default:
		return DateRange{}, fmt.Errorf("unknown period %q (valid: this-week, last-week, this-month, last-month)", period)
	}
}

// ParseRange validates an explicit start/end pair. A missing end defaults to
// one week after start.
func ParseRange(startStr, endStr string) (DateRange, error) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date format, use YYYY-MM-DD: %w", err)
	}

	end := start.AddDate(0, 0, 7)
	if endStr != "" {
		end, err = time.Parse(dateLayout, endStr)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid end date format, use YYYY-MM-DD: %w", err)
		}
	}

	if !end.After(start) {
		return DateRange{}, fmt.Errorf("end date must be after start date")
	}
	return rangeOf(start, end), nil
}

func startOfWeek(now time.Time) time.Time {
	daysSinceMonday := int(now.Weekday() - time.Monday)
	if daysSinceMonday < 0 {
		daysSinceMonday += 7
	}
	return time.Date(now.Year(), now.Month(), now.Day()-daysSinceMonday, 0, 0, 0, 0, now.Location())
}

func rangeOf(start, end time.Time) DateRange {
	return DateRange{StartDate: start.Format(dateLayout), EndDate: end.Format(dateLayout)}
}
