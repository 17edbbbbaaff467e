package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completedRun returns n consecutive completed days ending at last.
func completedRun(last string, n int) []Record {
	end := date(last)
	out := make([]Record, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, Record{Date: end.AddDate(0, 0, -i), Value: 100})
	}
	return out
}

func TestEvaluateAchievementProgress(t *testing.T) {
	today := date("2024-02-29")

	t.Run("Returns streak, completion and milestone in order", func(t *testing.T) {
		got := EvaluateAchievementProgress("h1", "Read", nil, today)

		require.Len(t, got, 3)
		assert.Equal(t, KindStreak, got[0].Kind)
		assert.Equal(t, "Daily Streak", got[0].Name)
		assert.Equal(t, 30, got[0].RequiredProgress)
		assert.Equal(t, KindCompletion, got[1].Kind)
		assert.Equal(t, "Completion Master", got[1].Name)
		assert.Equal(t, 20, got[1].RequiredProgress)
		assert.Equal(t, KindMilestone, got[2].Kind)
		assert.Equal(t, "Progress Milestone", got[2].Name)
		assert.Equal(t, 1000, got[2].RequiredProgress)

		for _, p := range got {
			assert.Equal(t, "h1", p.HabitID)
			assert.Equal(t, "Read", p.HabitName)
			assert.Equal(t, 0, p.CurrentProgress)
			assert.False(t, p.IsCompleted)
		}
	})

	t.Run("Twenty completed days in the window complete Completion Master", func(t *testing.T) {
		var records []Record
		// Every third day of the window is left unlogged.
		for i := 0; len(records) < 20; i++ {
			if i%3 == 2 {
				continue
			}
			records = append(records, Record{Date: today.AddDate(0, 0, -i), Value: 100})
		}

		got := EvaluateAchievementProgress("h1", "Read", records, today)

		assert.Equal(t, 20, got[1].CurrentProgress)
		assert.True(t, got[1].IsCompleted)
		assert.Equal(t, 2, got[0].CurrentProgress)
		assert.Equal(t, 2000, got[2].CurrentProgress)
		assert.True(t, got[2].IsCompleted)
	})

	t.Run("Milestone sums partial values uncapped", func(t *testing.T) {
		var records []Record
		for i := 0; i < 25; i++ {
			records = append(records, Record{Date: today.AddDate(0, 0, -i), Value: 50})
		}

		got := EvaluateAchievementProgress("h1", "Read", records, today)

		assert.Equal(t, 1250, got[2].CurrentProgress)
		assert.True(t, got[2].IsCompleted)
		assert.Equal(t, 0, got[1].CurrentProgress)
	})

	t.Run("Records before the lookback window are ignored", func(t *testing.T) {
		records := completedRun("2024-01-20", 20)

		got := EvaluateAchievementProgress("h1", "Read", records, today)

		// 2024-01-30 is the first day of the window, the run ends ten days earlier.
		assert.Equal(t, 0, got[1].CurrentProgress)
		assert.Equal(t, 0, got[2].CurrentProgress)
	})

	t.Run("Window is inclusive of today minus lookback", func(t *testing.T) {
		records := []Record{{Date: LookbackStart(today), Value: 100}, {Date: LookbackStart(today).AddDate(0, 0, -1), Value: 100}}

		got := EvaluateAchievementProgress("h1", "Read", records, today)

		assert.Equal(t, 1, got[1].CurrentProgress)
	})

	t.Run("Streak progress matches the streak calculator", func(t *testing.T) {
		records := completedRun("2024-02-29", 31)

		got := EvaluateAchievementProgress("h1", "Read", records, today)
		m := Measure(records, today)

		assert.Equal(t, m.CurrentStreak, got[0].CurrentProgress)
		assert.Equal(t, ComputeStreaks(records, today).CurrentStreak, got[0].CurrentProgress)
		assert.True(t, got[0].IsCompleted)
	})
}

func TestBadges(t *testing.T) {
	tests := []struct {
		name    string
		metrics Metrics
		want    []string
	}{
		{"Nothing earned", Metrics{}, nil},
		{"Week of streak", Metrics{CurrentStreak: 7, CompletedDays: 7, TotalValue: 700}, []string{"week_warrior"}},
		{"Ten completed days", Metrics{CurrentStreak: 3, CompletedDays: 10, TotalValue: 1000}, []string{"perfect_ten", "progress_pro"}},
		{"Full month", Metrics{CurrentStreak: 30, CompletedDays: 30, TotalValue: 3000}, []string{"week_warrior", "month_master", "perfect_ten", "progress_pro"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, b := range Badges {
				if b.Satisfied(tt.metrics) {
					got = append(got, b.Type)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup(t *testing.T) {
	d, ok := Lookup("perfect_ten")
	require.True(t, ok)
	assert.Equal(t, "Perfect Ten", d.Name)

	d, ok = Lookup("daily_streak")
	require.True(t, ok)
	assert.Equal(t, KindStreak, d.Kind)

	_, ok = Lookup("unknown")
	assert.False(t, ok)
}
