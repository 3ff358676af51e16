package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/paaavkata/stock-dashboard/pkg/kis"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/paaavkata/stock-dashboard/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRetentionDays = 365
	refreshWindowDays    = 30
)

var ErrInvalidDateRange = errors.New("invalid date range")

type PriceStore interface {
	FindByTickerAndDateRange(ctx context.Context, tickerCode, startDate, endDate string) ([]models.PriceRow, error)
	UpsertPrices(ctx context.Context, rows []models.PriceRow) (int, error)
	DeleteOlderThan(ctx context.Context, cutoffDate string) (int64, error)
}

type HistoryFetcher interface {
	GetDailyPrices(ctx context.Context, code, startDate, endDate string, period kis.Period, isIndex bool) ([]models.DailyPrice, error)
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// Service is a read-through cache of daily bars keyed by (ticker, date).
type Service struct {
	store    PriceStore
	fetcher  HistoryFetcher
	logger   *logrus.Logger
	now      func() time.Time
	location *time.Location
}

func NewService(store PriceStore, fetcher HistoryFetcher, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		fetcher:  fetcher,
		logger:   logger,
		now:      time.Now,
		location: time.FixedZone("KST", 9*60*60),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetHistory returns daily bars for [startDate, endDate] (YYYY-MM-DD), oldest
// first. Any cached row for the range counts as a hit; the range is not
// checked for gaps.
func (s *Service) GetHistory(ctx context.Context, tickerCode, startDate, endDate string, isIndex bool) ([]models.DailyPrice, error) {
	if err := validateRange(startDate, endDate); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"ticker":     tickerCode,
		"start_date": startDate,
		"end_date":   endDate,
	})

	cached, err := s.store.FindByTickerAndDateRange(ctx, tickerCode, startDate, endDate)
	if err != nil {
		log.WithError(err).Warn("Market data cache read failed, fetching from upstream")
	} else if len(cached) > 0 {
		log.WithField("rows", len(cached)).Debug("Market data cache hit")
		out := make([]models.DailyPrice, 0, len(cached))
		for _, row := range cached {
			out = append(out, row.ToDailyPrice())
		}
		return out, nil
	}

	fetched, err := s.fetcher.GetDailyPrices(ctx, tickerCode, utils.CompactDate(startDate), utils.CompactDate(endDate), kis.PeriodDay, isIndex)
	if err != nil {
		log.WithError(err).Error("Failed to fetch market data")
		return nil, err
	}

	sortAscending(fetched)

	if _, err := s.store.UpsertPrices(ctx, toRows(tickerCode, fetched)); err != nil {
		log.WithError(err).Warn("Failed to cache fetched market data")
	}

	log.WithField("rows", len(fetched)).Info("Market data cache miss served from upstream")
	return fetched, nil
}

// Refresh re-fetches the last 30 days and stores them regardless of cache state.
func (s *Service) Refresh(ctx context.Context, tickerCode string, isIndex bool) (int, error) {
	end := s.now().In(s.location)
	start := end.AddDate(0, 0, -refreshWindowDays)

	fetched, err := s.fetcher.GetDailyPrices(ctx, tickerCode, utils.ToCompactDate(start), utils.ToCompactDate(end), kis.PeriodDay, isIndex)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh %s: %w", tickerCode, err)
	}

	n, err := s.store.UpsertPrices(ctx, toRows(tickerCode, fetched))
	if err != nil {
		return 0, fmt.Errorf("failed to store refreshed %s: %w", tickerCode, err)
	}

	s.logger.WithFields(logrus.Fields{
		"ticker": tickerCode,
		"rows":   n,
	}).Info("Refreshed market data")
	return n, nil
}

// PurgeOlderThan deletes rows dated before now minus days. days <= 0 uses
// the default retention.
func (s *Service) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = DefaultRetentionDays
	}

	cutoff := utils.ToDate(s.now().In(s.location).AddDate(0, 0, -days))
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge market data: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"rows_deleted":   deleted,
		"cutoff_date":    cutoff,
		"retention_days": days,
	}).Info("Purged market data")
	return deleted, nil
}

func validateRange(startDate, endDate string) error {
	start, err := time.Parse(time.DateOnly, startDate)
	if err != nil {
		return fmt.Errorf("%w: start date %q", ErrInvalidDateRange, startDate)
	}
	end, err := time.Parse(time.DateOnly, endDate)
	if err != nil {
		return fmt.Errorf("%w: end date %q", ErrInvalidDateRange, endDate)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange, startDate, endDate)
	}
	return nil
}

func toRows(tickerCode string, bars []models.DailyPrice) []models.PriceRow {
	rows := make([]models.PriceRow, 0, len(bars))
	for _, bar := range bars {
		rows = append(rows, bar.ToRow(tickerCode))
	}
	return rows
}

func sortAscending(bars []models.DailyPrice) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date < bars[j].Date
	})
}
