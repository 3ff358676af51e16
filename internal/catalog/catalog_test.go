package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	c := Default()
	require.Len(t, c.Tickers, 12)
	assert.Equal(t, "192820", c.Tickers[0].Code)
	assert.Equal(t, 1, c.Tickers[0].DisplayOrder)

	kospi, ok := c.Ticker("0001")
	require.True(t, ok)
	assert.True(t, kospi.IsIndexOrETF())
	assert.True(t, kospi.UsesIndexEndpoint())

	etf, ok := c.Ticker("228790")
	require.True(t, ok)
	assert.True(t, etf.IsIndexOrETF())
	assert.False(t, etf.UsesIndexEndpoint())

	assert.Len(t, c.TickersByCategory(models.CategoryRising), 3)
	assert.Equal(t, "코스맥스", c.Names()["192820"])
	assert.Equal(t, []models.NewsCategory{models.NewsCosmax, models.NewsCompetitors, models.NewsKBeauty}, c.Categories())
}

func TestSearchQuery(t *testing.T) {
	t.Parallel()

	c := Default()
	section, ok := c.Section(models.NewsKBeauty)
	require.True(t, ok)
	assert.Equal(t, "K뷰티 OR K-뷰티 OR K뷰티 수출", SearchQuery(section))

	assert.Equal(t, "a OR b", SearchQuery(models.NewsSection{Keywords: []string{"a", "b"}}))
}

func TestDateRange(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	start, end := DateRange("1m", now)
	assert.True(t, end.Equal(now))
	assert.Equal(t, "2024-03-01", start.Format(time.DateOnly))

	start, _ = DateRange("3y", now)
	assert.Equal(t, "2021-04-01", start.Format(time.DateOnly))

	start, end = DateRange(CustomTimeRange, now)
	assert.True(t, start.Equal(end))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `
tickers:
  - code: "005930"
    name: 삼성전자
    market: KOSPI
    category: COMPETITOR
  - code: "0001"
    name: 코스피
    market: INDEX
    category: INDEX
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	require.Len(t, c.Tickers, 2)
	assert.Equal(t, "삼성전자", c.Tickers[0].Name)
	assert.Equal(t, 2, c.Tickers[1].DisplayOrder)
	assert.True(t, c.Tickers[1].IsActive)
	assert.Len(t, c.Sections, 3, "sections keep their defaults")

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("tickers:\n  - code: \"1\"\n  - code: \"1\"\n"), 0o600))
	_, err = Load(dup)
	assert.Error(t, err)

	c, err = Load("")
	require.NoError(t, err)
	assert.Len(t, c.Tickers, 12)
}
