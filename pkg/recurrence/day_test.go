package recurrence

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func TestOnDay(t *testing.T) {
	nye := seedAt("nye", time.Date(2024, 12, 31, 22, 0, 0, 0, time.UTC))
	monthEnd := seedAt("rent", time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC))
	pool := append(
		Expand(nye, Rule{Pattern: Daily{}, MaxOccurrences: 3}, time.Time{}),
		Expand(monthEnd, Rule{Pattern: Daily{}, MaxOccurrences: 2}, time.Time{})...,
	)
	pool = append(pool, Event{ID: "late", Start: time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)})

	testCases := []struct {
		name string
		day  Date
		want []string
	}{
		{name: "last day of the year", day: Date{2024, time.December, 31}, want: []string{"nye"}},
		{name: "first day of the next year", day: Date{2025, time.January, 1}, want: []string{"nye_1", "late"}},
		{name: "second day of the next year", day: Date{2025, time.January, 2}, want: []string{"nye_2"}},
		{name: "last day of the month", day: Date{2024, time.January, 31}, want: []string{"rent"}},
		{name: "first day of the next month", day: Date{2024, time.February, 1}, want: []string{"rent_1"}},
		{name: "same day in another year", day: Date{2023, time.December, 31}, want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := OnDay(tc.day, pool)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestOnDay_EmptyPool(t *testing.T) {
	assert.Empty(t, OnDay(Date{2024, time.March, 1}, nil))
}

func TestOnDay_UsesEventLocation(t *testing.T) {
	warsaw := time.FixedZone("CET", 3600)
	e := Event{ID: "e", Start: time.Date(2024, 3, 2, 0, 30, 0, 0, warsaw)}

	assert.Len(t, OnDay(Date{2024, time.March, 2}, []Event{e}), 1)
	assert.Empty(t, OnDay(Date{2024, time.March, 1}, []Event{e}))
}

func TestOnDay_Concurrent(t *testing.T) {
	start := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	pool := Expand(seedAt("d", start), Rule{Pattern: Daily{}, MaxOccurrences: 31}, time.Time{})

	var wg sync.WaitGroup
	results := make([]int, 31)
	for i := range 31 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = len(OnDay(Date{2024, time.January, i + 1}, pool))
		}(i)
	}
	wg.Wait()

	for i, n := range results {
		assert.Equal(t, 1, n, "day %d", i+1)
	}
}

func TestBetween(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	pool := Expand(seedAt("d", start), Rule{Pattern: Daily{}, MaxOccurrences: 10}, time.Time{})

	got := Between(start.AddDate(0, 0, 2), start.AddDate(0, 0, 5), pool)

	assert.Equal(t, []string{"d_2", "d_3", "d_4"}, ids(got))
}

func TestMonthGrid(t *testing.T) {
	pool := []Event{
		{ID: "a", Start: time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "b", Start: time.Date(2024, 9, 30, 9, 0, 0, 0, time.UTC)},
		{ID: "c", Start: time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)},
	}

	t.Run("month starting on Sunday has no leading blanks", func(t *testing.T) {
		cells := MonthGrid(2024, time.September, pool)

		require.Len(t, cells, GridCells)
		assert.False(t, cells[0].Blank)
		assert.Equal(t, Date{2024, time.September, 1}, cells[0].Date)
		assert.Equal(t, []string{"a"}, ids(cells[0].Events))
		assert.Equal(t, []string{"b"}, ids(cells[29].Events))
		assert.True(t, cells[30].Blank)
		assert.True(t, cells[41].Blank)
	})

	t.Run("leading blanks follow the first weekday", func(t *testing.T) {
		// 1 October 2024 is a Tuesday
		cells := MonthGrid(2024, time.October, pool)

		require.Len(t, cells, GridCells)
		assert.True(t, cells[0].Blank)
		assert.True(t, cells[1].Blank)
		assert.Equal(t, Date{2024, time.October, 1}, cells[2].Date)
		assert.Equal(t, []string{"c"}, ids(cells[2].Events))
		assert.Equal(t, Date{2024, time.October, 31}, cells[32].Date)
		assert.True(t, cells[33].Blank)
	})
}
