package models

import (
	"time"

	"github.com/guregu/null/v6"
)

type ChangeSign string

const (
	ChangeUp        ChangeSign = "up"
	ChangeDown      ChangeSign = "down"
	ChangeUnchanged ChangeSign = "unchanged"
)

// PriceRow is one cached market_data row, unique on (TickerCode, TradeDate).
type PriceRow struct {
	ID         int64      `db:"id"`
	TickerCode string     `db:"ticker_code"`
	TradeDate  string     `db:"trade_date"` // YYYY-MM-DD
	Open       float64    `db:"open_price"`
	High       float64    `db:"high_price"`
	Low        float64    `db:"low_price"`
	Close      float64    `db:"close_price"`
	Volume     int64      `db:"volume"`
	ChangeRate null.Float `db:"change_rate"`
	CreatedAt  time.Time  `db:"created_at"`
}

// DailyPrice is a normalized OHLCV bar as served to clients.
type DailyPrice struct {
	Date       string     `json:"date"` // YYYY-MM-DD
	Open       float64    `json:"open"`
	High       float64    `json:"high"`
	Low        float64    `json:"low"`
	Close      float64    `json:"close"`
	Volume     int64      `json:"volume"`
	ChangeRate null.Float `json:"changeRate"`
}

func (p DailyPrice) ToRow(tickerCode string) PriceRow {
	return PriceRow{
		TickerCode: tickerCode,
		TradeDate:  p.Date,
		Open:       p.Open,
		High:       p.High,
		Low:        p.Low,
		Close:      p.Close,
		Volume:     p.Volume,
		ChangeRate: p.ChangeRate,
	}
}

func (r PriceRow) ToDailyPrice() DailyPrice {
	return DailyPrice{
		Date:       r.TradeDate,
		Open:       r.Open,
		High:       r.High,
		Low:        r.Low,
		Close:      r.Close,
		Volume:     r.Volume,
		ChangeRate: r.ChangeRate,
	}
}

// StockPrice is a normalized current quote for an equity or index.
type StockPrice struct {
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	CurrentPrice float64    `json:"currentPrice"`
	ChangePrice  float64    `json:"changePrice"`
	ChangeRate   float64    `json:"changeRate"`
	ChangeSign   ChangeSign `json:"changeSign"`
	Volume       int64      `json:"volume"`
	TradeAmount  int64      `json:"tradeAmount"`
	Open         float64    `json:"open"`
	High         float64    `json:"high"`
	Low          float64    `json:"low"`
	PrevClose    float64    `json:"prevClose"`
	MarketCap    null.Int   `json:"marketCap"`
	PER          null.Float `json:"per"`
	PBR          null.Float `json:"pbr"`
	High52w      null.Int   `json:"high52w"`
	Low52w       null.Int   `json:"low52w"`
	Timestamp    time.Time  `json:"timestamp"`
}
