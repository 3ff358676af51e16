// Package catalog holds the watched tickers, news sections and chart ranges.
package catalog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/paaavkata/stock-dashboard/pkg/models"
	"gopkg.in/yaml.v3"
)

type Catalog struct {
	Tickers  []models.Ticker      `yaml:"tickers"`
	Sections []models.NewsSection `yaml:"sections"`
}

func Default() *Catalog {
	return &Catalog{
		Tickers:  defaultTickers(),
		Sections: defaultSections(),
	}
}

func defaultTickers() []models.Ticker {
	tickers := []models.Ticker{
		{Code: "192820", Name: "코스맥스", Market: models.MarketKOSDAQ, Category: models.CategoryCosmax},
		{Code: "044820", Name: "코스맥스비티아이", Market: models.MarketKOSDAQ, Category: models.CategoryCosmax},
		{Code: "222040", Name: "코스맥스엔비티", Market: models.MarketKOSDAQ, Category: models.CategoryCosmax},
		{Code: "161890", Name: "한국콜마", Market: models.MarketKOSPI, Category: models.CategoryCompetitor},
		{Code: "241710", Name: "코스메카코리아", Market: models.MarketKOSDAQ, Category: models.CategoryCompetitor},
		{Code: "090430", Name: "아모레퍼시픽", Market: models.MarketKOSPI, Category: models.CategoryCompetitor},
		{Code: "278470", Name: "에이피알", Market: models.MarketKOSDAQ, Category: models.CategoryRising},
		{Code: "526970", Name: "달바글로벌", Market: models.MarketKOSDAQ, Category: models.CategoryRising},
		{Code: "018290", Name: "브이티", Market: models.MarketKOSDAQ, Category: models.CategoryRising},
		{Code: "0001", Name: "코스피", Market: models.MarketIndex, Category: models.CategoryIndex},
		{Code: "1001", Name: "코스닥", Market: models.MarketIndex, Category: models.CategoryIndex},
		{Code: "228790", Name: "TIGER 화장품", Market: models.MarketETF, Category: models.CategoryIndex},
	}
	for i := range tickers {
		tickers[i].DisplayOrder = i + 1
		tickers[i].IsActive = true
	}
	return tickers
}

func defaultSections() []models.NewsSection {
	return []models.NewsSection{
		{
			Category: models.NewsCosmax,
			Title:    "코스맥스",
			Keywords: []string{"코스맥스", "이경수 코스맥스", "코스맥스비티아이", "코스맥스엔비티", "COSMAX"},
		},
		{
			Category: models.NewsCompetitors,
			Title:    "경쟁사/ODM",
			Keywords: []string{"한국콜마", "코스메카코리아", "화장품 ODM", "화장품 OEM", "인터코스", "콜마"},
		},
		{
			Category: models.NewsKBeauty,
			Title:    "K-뷰티",
			Keywords: []string{"K뷰티", "K-뷰티", "K뷰티 수출", "한국 화장품", "올리브영", "뷰티 트렌드", "화장품 수출"},
		},
	}
}

// Load reads a YAML catalog. An empty path yields the built-in catalog;
// sections or tickers missing from the file keep their defaults.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var file Catalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if len(file.Tickers) > 0 {
		for i := range file.Tickers {
			file.Tickers[i].IsActive = true
			if file.Tickers[i].DisplayOrder == 0 {
				file.Tickers[i].DisplayOrder = i + 1
			}
		}
		c.Tickers = file.Tickers
	}
	if len(file.Sections) > 0 {
		c.Sections = file.Sections
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool, len(c.Tickers))
	for _, t := range c.Tickers {
		if t.Code == "" {
			return fmt.Errorf("catalog ticker without code")
		}
		if seen[t.Code] {
			return fmt.Errorf("duplicate catalog ticker %s", t.Code)
		}
		seen[t.Code] = true
	}
	for _, s := range c.Sections {
		if s.Category == "" || len(s.Keywords) == 0 {
			return fmt.Errorf("catalog section %q needs an id and keywords", s.Title)
		}
	}
	return nil
}

func (c *Catalog) Ticker(code string) (models.Ticker, bool) {
	for _, t := range c.Tickers {
		if t.Code == code {
			return t, true
		}
	}
	return models.Ticker{}, false
}

func (c *Catalog) TickersByCategory(category models.TickerCategory) []models.Ticker {
	var out []models.Ticker
	for _, t := range c.Tickers {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) Names() map[string]string {
	names := make(map[string]string, len(c.Tickers))
	for _, t := range c.Tickers {
		names[t.Code] = t.Name
	}
	return names
}

func (c *Catalog) Section(category models.NewsCategory) (models.NewsSection, bool) {
	for _, s := range c.Sections {
		if s.Category == category {
			return s, true
		}
	}
	return models.NewsSection{}, false
}

func (c *Catalog) Categories() []models.NewsCategory {
	out := make([]models.NewsCategory, 0, len(c.Sections))
	for _, s := range c.Sections {
		out = append(out, s.Category)
	}
	return out
}

// SearchQuery joins the first three keywords with OR.
func SearchQuery(section models.NewsSection) string {
	keywords := section.Keywords
	if len(keywords) > 3 {
		keywords = keywords[:3]
	}
	return strings.Join(keywords, " OR ")
}

// TimeRange is a chart period choice. Days is zero for custom.
type TimeRange struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Days  int    `json:"days,omitempty"`
}

const (
	DefaultTimeRange = "1m"
	CustomTimeRange  = "custom"
)

var TimeRanges = []TimeRange{
	{Label: "3일", Value: "3d", Days: 3},
	{Label: "1개월", Value: "1m", Days: 30},
	{Label: "3개월", Value: "3m", Days: 90},
	{Label: "1년", Value: "1y", Days: 365},
	{Label: "3년", Value: "3y", Days: 365 * 3},
	{Label: "10년", Value: "10y", Days: 365 * 10},
	{Label: "직접설정", Value: CustomTimeRange},
}

func TimeRangeByValue(value string) (TimeRange, bool) {
	for _, tr := range TimeRanges {
		if tr.Value == value {
			return tr, true
		}
	}
	return TimeRange{}, false
}

// DateRange resolves a named range ending at now. Custom and unknown ranges
// return now for both ends.
func DateRange(value string, now time.Time) (start, end time.Time) {
	end = now
	start = now
	if tr, ok := TimeRangeByValue(value); ok && tr.Days > 0 {
		start = now.AddDate(0, 0, -tr.Days)
	}
	return start, end
}
