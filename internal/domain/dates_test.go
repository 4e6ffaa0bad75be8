package domain_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covidnpi/stringency-etl/internal/domain"
)

func TestDateKeyRoundTrip(t *testing.T) {
	day, err := domain.ParseDate("2021-02-28")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 2, 28, 0, 0, 0, 0, time.UTC), day)
	assert.Equal(t, "2021-02-28", domain.DateKey(day))
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := domain.ParseDate("28/02/2021")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "28/02/2021")
}

func TestDateRange(t *testing.T) {
	t.Run("inclusive, crossing a month boundary", func(t *testing.T) {
		got := domain.DateRange("2021-01-30", "2021-02-02")
		assert.Equal(t, []string{"2021-01-30", "2021-01-31", "2021-02-01", "2021-02-02"}, got)
	})
	t.Run("single day", func(t *testing.T) {
		assert.Equal(t, []string{"2021-01-01"}, domain.DateRange("2021-01-01", "2021-01-01"))
	})
	t.Run("inverted bounds", func(t *testing.T) {
		assert.Nil(t, domain.DateRange("2021-01-02", "2021-01-01"))
	})
	t.Run("malformed bound", func(t *testing.T) {
		assert.Nil(t, domain.DateRange("someday", "2021-01-01"))
	})
}

func TestToday_TruncatesToMidnight(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2021, 6, 15, 23, 45, 12, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	assert.Equal(t, time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC), domain.Today())
}
