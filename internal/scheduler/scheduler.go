package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/paaavkata/stock-dashboard/pkg/kis"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const warmConcurrency = 3

type MarketData interface {
	Refresh(ctx context.Context, tickerCode string, isIndex bool) (int, error)
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

type NewsPurger interface {
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

type TokenSource interface {
	GetToken(ctx context.Context, provider string) (string, error)
}

type Config struct {
	RefreshCron             string
	CleanupCron             string
	TokenWarmCron           string
	MarketDataRetentionDays int
	NewsRetentionDays       int
	// WarmTokens enables the token pre-warm job. It is off without quote
	// credentials.
	WarmTokens bool
	// WarmOnStart refreshes the catalog once when the scheduler starts.
	WarmOnStart bool
}

type Scheduler struct {
	config     Config
	tickers    []models.Ticker
	marketData MarketData
	news       NewsPurger
	tokens     TokenSource
	cron       *cron.Cron
	logger     *logrus.Logger

	warming atomic.Bool
}

func NewScheduler(config Config, tickers []models.Ticker, marketData MarketData, news NewsPurger, tokens TokenSource, location *time.Location, logger *logrus.Logger) *Scheduler {
	cronScheduler := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	return &Scheduler{
		config:     config,
		tickers:    tickers,
		marketData: marketData,
		news:       news,
		tokens:     tokens,
		cron:       cronScheduler,
		logger:     logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"refresh_cron":    s.config.RefreshCron,
		"cleanup_cron":    s.config.CleanupCron,
		"token_warm_cron": s.config.TokenWarmCron,
	}).Info("Starting market data scheduler")

	if _, err := s.cron.AddFunc(s.config.RefreshCron, func() {
		s.WarmCache(ctx)
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.config.CleanupCron, func() {
		s.Cleanup(ctx)
	}); err != nil {
		return err
	}

	if s.config.WarmTokens && s.tokens != nil {
		if _, err := s.cron.AddFunc(s.config.TokenWarmCron, func() {
			s.WarmToken(ctx)
		}); err != nil {
			return err
		}
	}

	s.cron.Start()

	if s.config.WarmOnStart {
		go s.WarmCache(ctx)
	}

	s.logger.Info("Market data scheduler started successfully")
	return nil
}

// Stop halts the schedule and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping market data scheduler")
	<-s.cron.Stop().Done()
}

// WarmCache refreshes recent bars for every active catalog ticker. A run
// that starts while another is in progress is skipped.
func (s *Scheduler) WarmCache(ctx context.Context) {
	if !s.warming.CompareAndSwap(false, true) {
		s.logger.Debug("Cache warm-up already running, skipping")
		return
	}
	defer s.warming.Store(false)

	start := time.Now()
	s.logger.Info("Starting cache warm-up cycle")

	var stored, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)

	for _, ticker := range s.tickers {
		if !ticker.IsActive {
			continue
		}
		g.Go(func() error {
			n, err := s.marketData.Refresh(gctx, ticker.Code, ticker.UsesIndexEndpoint())
			if err != nil {
				failed.Add(1)
				s.logger.WithError(err).WithField("ticker", ticker.Code).Warn("Failed to refresh ticker")
				return nil
			}
			stored.Add(int64(n))
			return nil
		})
	}
	_ = g.Wait()

	s.logger.WithFields(logrus.Fields{
		"duration_ms": time.Since(start).Milliseconds(),
		"rows_stored": stored.Load(),
		"failed":      failed.Load(),
	}).Info("Cache warm-up cycle completed")
}

func (s *Scheduler) Cleanup(ctx context.Context) {
	s.logger.Info("Starting data cleanup cycle")

	if _, err := s.marketData.PurgeOlderThan(ctx, s.config.MarketDataRetentionDays); err != nil {
		s.logger.WithError(err).Error("Failed to cleanup old market data")
	}

	if s.news != nil {
		if _, err := s.news.PurgeOlderThan(ctx, s.config.NewsRetentionDays); err != nil {
			s.logger.WithError(err).Error("Failed to cleanup old news")
		}
	}

	s.logger.Info("Data cleanup cycle completed")
}

// WarmToken obtains the quote token right after the daily cutoff so the
// first request of the day does not pay for issuance.
func (s *Scheduler) WarmToken(ctx context.Context) {
	if _, err := s.tokens.GetToken(ctx, kis.Provider); err != nil {
		s.logger.WithError(err).Error("Failed to pre-warm access token")
		return
	}
	s.logger.Info("Access token pre-warmed")
}
