package models

import (
	"time"

	"github.com/google/uuid"
)

type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
	MarketIndex  Market = "INDEX"
	MarketETF    Market = "ETF"
)

type TickerCategory string

const (
	CategoryCosmax     TickerCategory = "COSMAX"
	CategoryCompetitor TickerCategory = "COMPETITOR"
	CategoryRising     TickerCategory = "RISING"
	CategoryIndex      TickerCategory = "INDEX"
)

type Ticker struct {
	ID           uuid.UUID      `db:"id" json:"-" yaml:"-"`
	Code         string         `db:"code" json:"code" yaml:"code"`
	Name         string         `db:"name" json:"name" yaml:"name"`
	Market       Market         `db:"market" json:"market" yaml:"market"`
	Category     TickerCategory `db:"category" json:"category" yaml:"category"`
	DisplayOrder int            `db:"display_order" json:"displayOrder" yaml:"displayOrder"`
	IsActive     bool           `db:"is_active" json:"isActive" yaml:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"-" yaml:"-"`
	UpdatedAt    time.Time      `db:"updated_at" json:"-" yaml:"-"`
}

// IsIndexOrETF reports whether the ticker is an index or an ETF.
func (t Ticker) IsIndexOrETF() bool {
	return t.Market == MarketIndex || t.Market == MarketETF
}

// UsesIndexEndpoint reports whether quotes come from the index endpoints.
func (t Ticker) UsesIndexEndpoint() bool {
	return t.Market == MarketIndex
}
