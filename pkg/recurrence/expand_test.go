package recurrence

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAt(id string, start time.Time) Event {
	return Event{
		ID:          id,
		SeriesID:    id,
		Title:       "Standup",
		Start:       start,
		Description: "daily sync",
		Category:    "Work",
		Color:       "#3B82F6",
	}
}

func starts(events []Event) []time.Time {
	out := make([]time.Time, 0, len(events))
	for _, e := range events {
		out = append(out, e.Start)
	}
	return out
}

func TestExpand_SeedIsFirstAndUnmodified(t *testing.T) {
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	seed := seedAt("evt", start)
	seed.Recurrence = Rule{Pattern: Daily{}, MaxOccurrences: 3}

	events := Expand(seed, seed.Recurrence, start.AddDate(1, 0, 0))

	require.Len(t, events, 3)
	assert.Equal(t, seed, events[0])
	assert.Equal(t, "evt", seed.ID, "seed must not be mutated")
}

func TestExpand_StepPolicies(t *testing.T) {
	// Monday
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	horizon := start.AddDate(2, 0, 0)

	testCases := []struct {
		name string
		rule Rule
		want []time.Time
	}{
		{
			name: "daily keeps time of day",
			rule: Rule{Pattern: Daily{}, MaxOccurrences: 3},
			want: []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2)},
		},
		{
			name: "weekly without weekdays steps seven days",
			rule: Rule{Pattern: Weekly{}, MaxOccurrences: 3},
			want: []time.Time{start, start.AddDate(0, 0, 7), start.AddDate(0, 0, 14)},
		},
		{
			name: "weekly on Mon/Wed/Fri",
			rule: Rule{Pattern: Weekly{Weekdays: NewWeekdaySet(1, 3, 5)}, MaxOccurrences: 5},
			want: []time.Time{
				start,                  // Mon 1st
				start.AddDate(0, 0, 2), // Wed 3rd
				start.AddDate(0, 0, 4), // Fri 5th
				start.AddDate(0, 0, 7), // Mon 8th
				start.AddDate(0, 0, 9), // Wed 10th
			},
		},
		{
			name: "monthly",
			rule: Rule{Pattern: Monthly{}, MaxOccurrences: 3},
			want: []time.Time{start, start.AddDate(0, 1, 0), start.AddDate(0, 2, 0)},
		},
		{
			name: "custom without weekdays steps interval months",
			rule: Rule{Pattern: Custom{Interval: 3}, MaxOccurrences: 3},
			want: []time.Time{start, start.AddDate(0, 3, 0), start.AddDate(0, 6, 0)},
		},
		{
			name: "custom with weekdays scans for the next listed day",
			rule: Rule{Pattern: Custom{Interval: 2, Weekdays: NewWeekdaySet(2)}, MaxOccurrences: 3},
			want: []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 8)},
		},
		{
			name: "custom with non positive interval behaves as interval one",
			rule: Rule{Pattern: Custom{Interval: -4}, MaxOccurrences: 2},
			want: []time.Time{start, start.AddDate(0, 1, 0)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			events := Expand(seedAt("s", start), tc.rule, horizon)
			assert.Equal(t, tc.want, starts(events))
		})
	}
}

func TestExpand_WeeklyScenarioWeekdays(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rule := Rule{Pattern: Weekly{Weekdays: NewWeekdaySet(1, 3, 5)}, MaxOccurrences: 5}

	events := Expand(seedAt("s", start), rule, start.AddDate(1, 0, 0))

	var weekdays []time.Weekday
	for _, e := range events {
		weekdays = append(weekdays, e.Start.Weekday())
		assert.Equal(t, 10, e.Start.Hour())
	}
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday, time.Monday, time.Wednesday}, weekdays)
}

func TestExpand_MonthEnd(t *testing.T) {
	start := time.Date(2024, 1, 31, 9, 30, 0, 0, time.UTC)
	rule := Rule{Pattern: Monthly{}, MaxOccurrences: 3}

	t.Run("overflow rolls into the next month", func(t *testing.T) {
		events := Expander{MonthEnd: MonthEndOverflow}.Expand(seedAt("m", start), rule, start.AddDate(1, 0, 0))

		require.Len(t, events, 3)
		assert.Equal(t, time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC), events[1].Start)
		assert.Equal(t, time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC), events[2].Start)
	})

	t.Run("clamp stays on the last day of short months", func(t *testing.T) {
		events := Expander{MonthEnd: MonthEndClamp}.Expand(seedAt("m", start), rule, start.AddDate(1, 0, 0))

		require.Len(t, events, 3)
		assert.Equal(t, time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC), events[1].Start)
		assert.Equal(t, time.Date(2024, 3, 31, 9, 30, 0, 0, time.UTC), events[2].Start)
	})
}

func TestExpand_GeneratedIds(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	events := Expand(seedAt("abc", start), Rule{Pattern: Daily{}, MaxOccurrences: 4}, time.Time{})

	require.Len(t, events, 4)
	assert.Equal(t, "abc", events[0].ID)
	for i, e := range events[1:] {
		assert.Equal(t, fmt.Sprintf("abc_%d", i+1), e.ID)
		assert.Equal(t, "abc", e.SeriesID)
		assert.Equal(t, "Standup", e.Title)
		assert.Equal(t, "Work", e.Category)
	}
}

func TestExpand_Bounds(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("should default to 100 occurrences", func(t *testing.T) {
		events := Expand(seedAt("s", start), Rule{Pattern: Daily{}}, start.AddDate(5, 0, 0))
		assert.Len(t, events, DefaultMaxOccurrences)
	})

	t.Run("should use the expander's default cap", func(t *testing.T) {
		x := Expander{MaxOccurrences: 10}
		events := x.Expand(seedAt("s", start), Rule{Pattern: Daily{}}, start.AddDate(5, 0, 0))
		assert.Len(t, events, 10)
	})

	t.Run("should include an occurrence exactly on the end date", func(t *testing.T) {
		rule := Rule{Pattern: Daily{}}.Until(start.AddDate(0, 0, 3))
		events := Expand(seedAt("s", start), rule, start.AddDate(5, 0, 0))
		assert.Len(t, events, 4)
		assert.Equal(t, start.AddDate(0, 0, 3), events[3].Start)
	})

	t.Run("end date wins over horizon", func(t *testing.T) {
		rule := Rule{Pattern: Weekly{}}.Until(start.AddDate(0, 0, 20))
		events := Expand(seedAt("s", start), rule, start.AddDate(0, 0, 1))
		assert.Len(t, events, 3)
	})

	t.Run("horizon bounds rules without end date", func(t *testing.T) {
		events := Expand(seedAt("s", start), Rule{Pattern: Daily{}}, start.AddDate(0, 0, 5))
		assert.Len(t, events, 6)
	})

	t.Run("zero horizon is one year from now", func(t *testing.T) {
		x := Expander{Now: func() time.Time { return start }}
		events := x.Expand(seedAt("s", start), Rule{Pattern: Monthly{}}, time.Time{})
		// Jan 2024 .. Dec 2024, Jan 2025 lies beyond 365 days in a leap year
		assert.Len(t, events, 12)
	})

	t.Run("seed after end date yields seed only", func(t *testing.T) {
		rule := Rule{Pattern: Daily{}}.Until(start.AddDate(0, 0, -1))
		events := Expand(seedAt("s", start), rule, time.Time{})
		assert.Len(t, events, 1)
	})

	t.Run("cap of one yields seed only", func(t *testing.T) {
		events := Expand(seedAt("s", start), Rule{Pattern: Daily{}}.Limit(1), time.Time{})
		assert.Len(t, events, 1)
	})

	t.Run("non recurring rule yields seed only", func(t *testing.T) {
		events := Expand(seedAt("s", start), Rule{}, time.Time{})
		assert.Len(t, events, 1)
	})
}

func TestExpand_BoundedAndMonotonic(t *testing.T) {
	start := time.Date(2023, 12, 29, 23, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 8, 0)
	rules := []Rule{
		{Pattern: Daily{}},
		{Pattern: Weekly{}},
		{Pattern: Weekly{Weekdays: NewWeekdaySet(0, 6)}},
		{Pattern: Weekly{Weekdays: NewWeekdaySet(9)}},
		{Pattern: Monthly{}},
		{Pattern: Custom{Interval: 2}},
		{Pattern: Custom{Interval: 3, Weekdays: NewWeekdaySet(4)}},
		{Pattern: Custom{}},
	}
	for _, policy := range []MonthEndPolicy{MonthEndOverflow, MonthEndClamp} {
		for _, rule := range rules {
			rule = rule.Until(end).Limit(40)
			events := Expander{MonthEnd: policy}.Expand(seedAt("s", start), rule, time.Time{})

			assert.LessOrEqual(t, len(events), 40, "%s %v", policy, rule.Kind())
			for i := 1; i < len(events); i++ {
				assert.True(t, events[i].Start.After(events[i-1].Start), "%s %v not increasing at %d", policy, rule.Kind(), i)
				assert.False(t, events[i].Start.After(end))
			}
		}
	}
}
