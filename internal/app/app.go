// Package app assembles the dashboard's services from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/paaavkata/stock-dashboard/internal/catalog"
	"github.com/paaavkata/stock-dashboard/internal/config"
	dashboardDB "github.com/paaavkata/stock-dashboard/internal/database"
	"github.com/paaavkata/stock-dashboard/internal/marketdata"
	"github.com/paaavkata/stock-dashboard/internal/news"
	"github.com/paaavkata/stock-dashboard/internal/quote"
	"github.com/paaavkata/stock-dashboard/internal/token"
	"github.com/paaavkata/stock-dashboard/pkg/database"
	"github.com/paaavkata/stock-dashboard/pkg/kis"
	"github.com/paaavkata/stock-dashboard/pkg/naver"
	"github.com/sirupsen/logrus"
)

type App struct {
	Config  *config.Config
	Logger  *logrus.Logger
	DB      *database.DB
	Catalog *catalog.Catalog

	KIS   *kis.Client
	Naver *naver.Client

	Tickers    *dashboardDB.TickerRepository
	Tokens     *token.Manager
	Quotes     *quote.Fetcher
	MarketData *marketdata.Service
	News       *news.Service
}

// New connects to the database, applies the schema and wires every service.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(cfg.Database.DbUri, logger)
	if err != nil {
		return nil, err
	}

	if err := dashboardDB.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	location := cfg.Location()

	kisClient := kis.NewClient(cfg.KIS, logger)
	naverClient := naver.NewClient(cfg.Naver, logger)

	tokens := token.NewManager(
		token.NewMemoryCache(),
		dashboardDB.NewTokenRepository(db, logger),
		logger,
		token.WithRefreshCutoff(location, cfg.TokenRefreshHour),
	)
	tokens.Register(kis.Provider, quote.NewTokenIssuer(kisClient, location))

	fetcher := quote.NewFetcher(kisClient, tokens, cat.Names(), logger)

	a := &App{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Catalog: cat,
		KIS:     kisClient,
		Naver:   naverClient,
		Tickers: dashboardDB.NewTickerRepository(db, logger),
		Tokens:  tokens,
		Quotes:  fetcher,
		MarketData: marketdata.NewService(
			dashboardDB.NewMarketDataRepository(db, logger),
			fetcher,
			logger,
			marketdata.WithLocation(location),
		),
		News: news.NewService(naverClient, dashboardDB.NewNewsRepository(db, logger), cat, logger),
	}
	return a, nil
}

// SeedCatalog stores the catalog tickers so the database mirrors the
// configured watch list.
func (a *App) SeedCatalog(ctx context.Context) error {
	if err := a.Tickers.Upsert(ctx, a.Catalog.Tickers); err != nil {
		return fmt.Errorf("failed to seed tickers: %w", err)
	}
	a.Logger.WithField("tickers", len(a.Catalog.Tickers)).Info("Ticker catalog seeded")
	return nil
}

func (a *App) Close() {
	a.KIS.Close()
	if err := a.DB.Close(); err != nil {
		a.Logger.WithError(err).Warn("Failed to close database")
	}
}
