package analysis

import (
	"testing"

	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(closes ...float64) []models.DailyPrice {
	out := make([]models.DailyPrice, len(closes))
	for i, c := range closes {
		out[i] = models.DailyPrice{Date: "2024-03-0" + string(rune('1'+i)), Close: c}
	}
	return out
}

func TestRebase(t *testing.T) {
	got := Rebase(series(100, 110, 95))
	require.Len(t, got, 3)
	assert.Equal(t, Point{Date: "2024-03-01", Value: 0}, got[0])
	assert.Equal(t, 10.0, got[1].Value)
	assert.Equal(t, -5.0, got[2].Value)

	assert.Empty(t, Rebase(nil))
	assert.Empty(t, Rebase(series(0, 10)))
}

func TestTrendOf(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   models.ChangeSign
	}{
		{"up", []float64{1, 3, 2}, models.ChangeUp},
		{"down", []float64{3, 4, 2}, models.ChangeDown},
		{"flat", []float64{2, 5, 2}, models.ChangeUnchanged},
		{"single", []float64{2}, models.ChangeUnchanged},
		{"empty", nil, models.ChangeUnchanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrendOf(tt.values))
		})
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage(series(10, 20, 30, 40), 2)
	require.Len(t, got, 3)
	assert.Equal(t, Point{Date: "2024-03-02", Value: 15}, got[0])
	assert.Equal(t, Point{Date: "2024-03-03", Value: 25}, got[1])
	assert.Equal(t, Point{Date: "2024-03-04", Value: 35}, got[2])

	assert.Empty(t, MovingAverage(series(10, 20), 5))
	assert.Empty(t, MovingAverage(series(10, 20), 1))
}

func TestSummarize(t *testing.T) {
	s := Summarize(series(100, 110, 99))
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 100.0, s.FirstClose)
	assert.Equal(t, 99.0, s.LastClose)
	assert.Equal(t, 99.0, s.MinClose)
	assert.Equal(t, 110.0, s.MaxClose)
	assert.Equal(t, -1.0, s.TotalReturn)
	// returns are +10% and -10%
	assert.Equal(t, 0.0, s.MeanReturn)
	assert.InDelta(t, 14.14, s.Volatility, 0.01)
	assert.Equal(t, models.ChangeDown, s.Trend)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, models.ChangeUnchanged, s.Trend)
}
