package database

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/joho/godotenv"
	"github.com/paaavkata/stock-dashboard/pkg/database"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getConnection(t *testing.T) *database.DB {
	t.Helper()

	_ = godotenv.Load("../../.env")
	uri := os.Getenv("TEST_DB_URI")
	if uri == "" {
		t.Skip("TEST_DB_URI not set")
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := database.NewConnection(uri, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestTokenRepository_SaveReplaces(t *testing.T) {
	db := getConnection(t)
	ctx := context.Background()
	repo := NewTokenRepository(db, logrus.New())
	provider := "_test_provider"
	defer repo.Delete(ctx, provider)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Save(ctx, &models.TokenRecord{Provider: provider, AccessToken: "a", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Save(ctx, &models.TokenRecord{Provider: provider, AccessToken: "b", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}))

	got, err := repo.FindByProvider(ctx, provider)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "b", got.AccessToken)

	require.NoError(t, repo.Delete(ctx, provider))
	got, err = repo.FindByProvider(ctx, provider)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMarketDataRepository_UpsertAndPurge(t *testing.T) {
	db := getConnection(t)
	ctx := context.Background()
	repo := NewMarketDataRepository(db, logrus.New())
	ticker := "_TEST"
	defer db.ExecContext(ctx, `DELETE FROM market_data WHERE ticker_code = $1`, ticker)

	rows := []models.PriceRow{
		{TickerCode: ticker, TradeDate: "2020-01-02", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{TickerCode: ticker, TradeDate: "2020-01-03", Open: 1.5, High: 2, Low: 1, Close: 1.8, Volume: 11, ChangeRate: null.FloatFrom(20)},
	}
	n, err := repo.UpsertPrices(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows[1].Close = 1.9
	_, err = repo.UpsertPrices(ctx, rows[1:])
	require.NoError(t, err)

	got, err := repo.FindByTickerAndDateRange(ctx, ticker, "2020-01-01", "2020-01-31")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2020-01-02", got[0].TradeDate)
	assert.InDelta(t, 1.9, got[1].Close, 1e-9)
	assert.True(t, got[1].ChangeRate.Valid)

	oldest, newest, ok, err := repo.GetCachedDateRange(ctx, ticker)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2020-01-02", oldest)
	assert.Equal(t, "2020-01-03", newest)

	_, err = repo.DeleteOlderThan(ctx, "2020-01-03")
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, ticker, "2020-01-02")
	require.NoError(t, err)
	assert.False(t, exists)

	latest, err := repo.FindLatestByTicker(ctx, ticker)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2020-01-03", latest.TradeDate)
}

func TestNewsRepository_SaveArticlesSkipsDuplicates(t *testing.T) {
	db := getConnection(t)
	ctx := context.Background()
	repo := NewNewsRepository(db, logrus.New())
	defer db.ExecContext(ctx, `DELETE FROM news_articles WHERE source = '_test'`)

	article := models.NewsArticle{
		Title:       "테스트 기사",
		Link:        "https://example.com/_test",
		Source:      "_test",
		Category:    models.NewsCosmax,
		PublishedAt: time.Now(),
	}

	n, err := repo.SaveArticles(ctx, []models.NewsArticle{article, article})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	found, err := repo.Search(ctx, "테스트 기사", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, found)
}

func TestTickerRepository_UpsertAndDeactivate(t *testing.T) {
	db := getConnection(t)
	ctx := context.Background()
	repo := NewTickerRepository(db, logrus.New())
	const code = "_T0001"
	defer db.ExecContext(ctx, `DELETE FROM tickers WHERE code = $1`, code)

	ticker := models.Ticker{
		Code:         code,
		Name:         "Test Ticker",
		Market:       models.MarketKOSPI,
		Category:     models.CategoryCompetitor,
		DisplayOrder: 999,
	}
	require.NoError(t, repo.Upsert(ctx, []models.Ticker{ticker}))

	ticker.Name = "Renamed"
	require.NoError(t, repo.Upsert(ctx, []models.Ticker{ticker}))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	var found *models.Ticker
	for i := range all {
		if all[i].Code == code {
			found = &all[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "Renamed", found.Name)

	require.NoError(t, repo.Deactivate(ctx, code))
	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	for _, tk := range all {
		assert.NotEqual(t, code, tk.Code)
	}

	assert.Error(t, repo.Deactivate(ctx, "_MISSING"))
}
