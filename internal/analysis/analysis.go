// Package analysis derives chart overlays and summary figures from daily bars.
package analysis

import (
	"math"

	"github.com/markcheno/go-talib"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// Point is a dated value on a derived series.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type Summary struct {
	Count       int               `json:"count"`
	FirstClose  float64           `json:"firstClose"`
	LastClose   float64           `json:"lastClose"`
	MinClose    float64           `json:"minClose"`
	MaxClose    float64           `json:"maxClose"`
	TotalReturn float64           `json:"totalReturn"` // percent
	MeanReturn  float64           `json:"meanReturn"`  // percent per bar
	Volatility  float64           `json:"volatility"`  // stddev of per-bar returns, percent
	ATR         float64           `json:"atr"`
	Trend       models.ChangeSign `json:"trend"`
}

// Rebase expresses each close as the percent change from the first close.
// A zero first close yields an empty series.
func Rebase(prices []models.DailyPrice) []Point {
	if len(prices) == 0 || prices[0].Close == 0 {
		return []Point{}
	}
	base := prices[0].Close
	out := make([]Point, len(prices))
	for i, p := range prices {
		out[i] = Point{Date: p.Date, Value: round2((p.Close - base) / base * 100)}
	}
	return out
}

// TrendOf compares the last value with the first.
func TrendOf(values []float64) models.ChangeSign {
	if len(values) < 2 {
		return models.ChangeUnchanged
	}
	first, last := values[0], values[len(values)-1]
	switch {
	case last > first:
		return models.ChangeUp
	case last < first:
		return models.ChangeDown
	default:
		return models.ChangeUnchanged
	}
}

// MovingAverage returns the simple moving average of closes. The first
// window-1 bars have no value and are omitted.
func MovingAverage(prices []models.DailyPrice, window int) []Point {
	if window < 2 || len(prices) < window {
		return []Point{}
	}
	sma := talib.Sma(closes(prices), window)
	out := make([]Point, 0, len(prices)-window+1)
	for i := window - 1; i < len(prices); i++ {
		out = append(out, Point{Date: prices[i].Date, Value: round2(sma[i])})
	}
	return out
}

func Summarize(prices []models.DailyPrice) Summary {
	if len(prices) == 0 {
		return Summary{Trend: models.ChangeUnchanged}
	}

	c := closes(prices)
	s := Summary{
		Count:      len(c),
		FirstClose: c[0],
		LastClose:  c[len(c)-1],
		MinClose:   c[0],
		MaxClose:   c[0],
		Trend:      TrendOf(c),
		ATR:        AverageTrueRange(prices, DefaultATRPeriod),
	}
	for _, v := range c[1:] {
		s.MinClose = math.Min(s.MinClose, v)
		s.MaxClose = math.Max(s.MaxClose, v)
	}
	if s.FirstClose != 0 {
		s.TotalReturn = round2((s.LastClose - s.FirstClose) / s.FirstClose * 100)
	}

	returns := dailyReturns(c)
	if len(returns) > 0 {
		s.MeanReturn = round2(stat.Mean(returns, nil))
	}
	if len(returns) > 1 {
		s.Volatility = round2(stat.StdDev(returns, nil))
	}
	return s
}

func closes(prices []models.DailyPrice) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.Close
	}
	return out
}

// dailyReturns skips steps whose previous close is zero.
func dailyReturns(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out = append(out, (values[i]-values[i-1])/values[i-1]*100)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
