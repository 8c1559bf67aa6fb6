package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentWeek(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want DateRange
	}{
		{"monday", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), DateRange{"2024-01-01", "2024-01-08"}},
		{"wednesday", time.Date(2024, 1, 3, 23, 59, 0, 0, time.UTC), DateRange{"2024-01-01", "2024-01-08"}},
		{"sunday", time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC), DateRange{"2024-01-01", "2024-01-08"}},
		{"across months", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), DateRange{"2024-02-26", "2024-03-04"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentWeek(tt.now))
		})
	}
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   DateRange
	}{
		{"", DateRange{"2024-03-11", "2024-03-18"}},
		{"this-week", DateRange{"2024-03-11", "2024-03-18"}},
		{"last-week", DateRange{"2024-03-04", "2024-03-11"}},
		{"this-month", DateRange{"2024-03-01", "2024-04-01"}},
		{"LastMonth", DateRange{"2024-02-01", "2024-03-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, err := PeriodRange(tt.period, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PeriodRange("fortnight", now)
	assert.Error(t, err)
}

func TestParseRange(t *testing.T) {
	got, err := ParseRange("2024-01-01", "")
	require.NoError(t, err)
	assert.Equal(t, DateRange{"2024-01-01", "2024-01-08"}, got)

	got, err = ParseRange("2024-01-01", "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, DateRange{"2024-01-01", "2024-01-03"}, got)

	_, err = ParseRange("01/01/2024", "")
	assert.Error(t, err)

	_, err = ParseRange("2024-01-01", "tomorrow")
	assert.Error(t, err)

	_, err = ParseRange("2024-01-08", "2024-01-01")
	assert.Error(t, err)

	_, err = ParseRange("2024-01-08", "2024-01-08")
	assert.Error(t, err)
}
