package analysis

import (
	"errors"
	"math"
	"sort"

	"github.com/markcheno/go-talib"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"gonum.org/v1/gonum/stat"
)

const (
	minCorrelationPoints = 10
	DefaultATRPeriod     = 14
)

var ErrInsufficientData = errors.New("insufficient data points")

type Correlation struct {
	Coefficient float64 `json:"coefficient"`
	Strength    string  `json:"strength"`
	Points      int     `json:"points"`
}

// Correlate computes the Pearson correlation of closes on dates both series
// share. Fewer than ten common dates is ErrInsufficientData.
func Correlate(a, b []models.DailyPrice) (Correlation, error) {
	x, y := alignByDate(a, b)
	if len(x) < minCorrelationPoints {
		return Correlation{Points: len(x)}, ErrInsufficientData
	}

	coefficient := stat.Correlation(x, y, nil)
	if math.IsNaN(coefficient) {
		// a flat series has no variance
		coefficient = 0
	}
	coefficient = math.Round(coefficient*10000) / 10000

	return Correlation{
		Coefficient: coefficient,
		Strength:    correlationStrength(coefficient),
		Points:      len(x),
	}, nil
}

func alignByDate(a, b []models.DailyPrice) ([]float64, []float64) {
	closesB := make(map[string]float64, len(b))
	for _, p := range b {
		closesB[p.Date] = p.Close
	}

	dates := make([]string, 0, len(a))
	closesA := make(map[string]float64, len(a))
	for _, p := range a {
		if _, ok := closesB[p.Date]; !ok {
			continue
		}
		if _, dup := closesA[p.Date]; !dup {
			dates = append(dates, p.Date)
		}
		closesA[p.Date] = p.Close
	}
	sort.Strings(dates)

	x := make([]float64, len(dates))
	y := make([]float64, len(dates))
	for i, d := range dates {
		x[i] = closesA[d]
		y[i] = closesB[d]
	}
	return x, y
}

func correlationStrength(correlation float64) string {
	absCorr := math.Abs(correlation)

	switch {
	case absCorr >= 0.8:
		return "very_strong"
	case absCorr >= 0.6:
		return "strong"
	case absCorr >= 0.4:
		return "moderate"
	case absCorr >= 0.2:
		return "weak"
	default:
		return "very_weak"
	}
}

// AverageTrueRange returns the latest ATR over period bars, or zero when
// there are not more than period bars.
func AverageTrueRange(prices []models.DailyPrice, period int) float64 {
	if period < 1 || len(prices) <= period {
		return 0
	}

	highs := make([]float64, len(prices))
	lows := make([]float64, len(prices))
	for i, p := range prices {
		highs[i] = p.High
		lows[i] = p.Low
	}

	atr := talib.Atr(highs, lows, closes(prices), period)
	return round2(atr[len(atr)-1])
}
