package server

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/guregu/null/v6"
	"github.com/paaavkata/stock-dashboard/pkg/kis"
	"github.com/paaavkata/stock-dashboard/pkg/models"
)

const (
	placeholderFloor = 50000
	maxDailyMove     = 0.06
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// placeholderPrice fabricates a plausible quote for dashboards running
// without quote credentials.
func placeholderPrice(r *rand.Rand, code string, now time.Time) *models.StockPrice {
	sign := models.ChangeDown
	if r.Float64() > 0.5 {
		sign = models.ChangeUp
	}
	return &models.StockPrice{
		Code:         code,
		Name:         code,
		CurrentPrice: float64(100000 + r.IntN(10000)),
		ChangePrice:  float64(r.IntN(2000) - 1000),
		ChangeRate:   round2(r.Float64()*4 - 2),
		ChangeSign:   sign,
		Volume:       r.Int64N(1000000),
		TradeAmount:  r.Int64N(100000000000),
		Open:         float64(99000 + r.IntN(5000)),
		High:         float64(102000 + r.IntN(5000)),
		Low:          float64(97000 + r.IntN(5000)),
		PrevClose:    100000,
		MarketCap:    null.IntFrom(r.Int64N(10000000000000)),
		PER:          null.FloatFrom(round2(10 + r.Float64()*20)),
		PBR:          null.FloatFrom(round2(1 + r.Float64()*3)),
		Timestamp:    now,
	}
}

// placeholderHistory random-walks a close from start to end, oldest first.
// Daily series skip weekends; weekly and monthly series step 7 and 30 days.
func placeholderHistory(r *rand.Rand, start, end time.Time, period kis.Period) []models.DailyPrice {
	step := 1
	switch period {
	case kis.PeriodWeek:
		step = 7
	case kis.PeriodMonth:
		step = 30
	}

	out := []models.DailyPrice{}
	price := float64(100000 + r.IntN(20000))
	for day := start; !day.After(end); day = day.AddDate(0, 0, step) {
		if period == kis.PeriodDay && (day.Weekday() == time.Saturday || day.Weekday() == time.Sunday) {
			continue
		}

		change := (r.Float64() - 0.5) * maxDailyMove
		price = math.Max(placeholderFloor, price*(1+change))
		open := price * (1 + (r.Float64()-0.5)*0.02)
		high := math.Max(price, open) * (1 + r.Float64()*0.02)
		low := math.Min(price, open) * (1 - r.Float64()*0.02)

		out = append(out, models.DailyPrice{
			Date:       day.Format(time.DateOnly),
			Open:       math.Round(open),
			High:       math.Round(high),
			Low:        math.Round(low),
			Close:      math.Round(price),
			Volume:     100000 + r.Int64N(500000),
			ChangeRate: null.FloatFrom(round2(change * 100)),
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
