package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paaavkata/stock-dashboard/internal/catalog"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/paaavkata/stock-dashboard/pkg/naver"
	"github.com/sirupsen/logrus"
)

const (
	DefaultLimit         = 5
	MaxLimit             = 100
	DefaultRetentionDays = 30

	titleKeyLength = 30
)

var ErrUnknownCategory = errors.New("unknown news category")

type Searcher interface {
	SearchNews(ctx context.Context, opts naver.SearchOptions) (*naver.NewsResponse, error)
}

type ArticleStore interface {
	SaveArticles(ctx context.Context, articles []models.NewsArticle) (int, error)
	FindByCategory(ctx context.Context, category models.NewsCategory, limit, offset int) ([]models.NewsArticle, error)
	Search(ctx context.Context, keyword string, limit int) ([]models.NewsArticle, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type Service struct {
	searcher Searcher
	store    ArticleStore
	catalog  *catalog.Catalog
	logger   *logrus.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the news service. store may be nil, in which case
// nothing is persisted and the cached lookups return empty results.
func NewService(searcher Searcher, store ArticleStore, cat *catalog.Catalog, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		searcher: searcher,
		store:    store,
		catalog:  cat,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sections lists the configured news sections in display order.
func (s *Service) Sections() []models.NewsSection {
	return s.catalog.Sections
}

// GetCategoryNews searches the live provider for one section page.
func (s *Service) GetCategoryNews(ctx context.Context, category models.NewsCategory, page, limit int) (*models.NewsPage, error) {
	section, ok := s.catalog.Section(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownCategory, category, s.validCategories())
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	start := (page-1)*limit + 1

	resp, err := s.searcher.SearchNews(ctx, naver.SearchOptions{
		Query:   catalog.SearchQuery(section),
		Display: limit,
		Start:   start,
		Sort:    "date",
	})
	if err != nil {
		s.logger.WithError(err).WithField("category", category).Error("Failed to search news")
		return nil, err
	}

	now := s.now()
	items := make([]models.NewsItem, 0, len(resp.Items))
	for _, raw := range resp.Items {
		items = append(items, naver.ProcessItem(raw, now))
	}
	items = dedupeByTitle(items)

	s.persist(ctx, category, items)

	return &models.NewsPage{
		Category: category,
		Title:    section.Title,
		Items:    items,
		Pagination: models.Pagination{
			Page:    page,
			Limit:   limit,
			Total:   resp.Total,
			HasMore: start+resp.Display < resp.Total,
		},
	}, nil
}

// GetCachedNews reads previously seen articles of a category, newest first.
func (s *Service) GetCachedNews(ctx context.Context, category models.NewsCategory, limit, offset int) ([]models.NewsArticle, error) {
	if _, ok := s.catalog.Section(category); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if s.store == nil {
		return []models.NewsArticle{}, nil
	}
	return s.store.FindByCategory(ctx, category, clampLimit(limit), max(offset, 0))
}

func (s *Service) SearchCached(ctx context.Context, keyword string, limit int) ([]models.NewsArticle, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || s.store == nil {
		return []models.NewsArticle{}, nil
	}
	return s.store.Search(ctx, keyword, clampLimit(limit))
}

// PurgeOlderThan deletes articles published more than days ago. days <= 0
// uses the default retention.
func (s *Service) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if s.store == nil {
		return 0, nil
	}
	if days <= 0 {
		days = DefaultRetentionDays
	}
	cutoff := s.now().AddDate(0, 0, -days)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge news: %w", err)
	}
	return deleted, nil
}

func (s *Service) persist(ctx context.Context, category models.NewsCategory, items []models.NewsItem) {
	if s.store == nil || len(items) == 0 {
		return
	}

	articles := make([]models.NewsArticle, 0, len(items))
	for _, item := range items {
		published := item.PubDate
		if published.IsZero() {
			published = s.now()
		}
		articles = append(articles, models.NewsArticle{
			Title:        item.Title,
			Link:         item.Link,
			OriginalLink: item.OriginalLink,
			Description:  item.Description,
			Source:       item.Source,
			Category:     category,
			PublishedAt:  published,
		})
	}

	inserted, err := s.store.SaveArticles(ctx, articles)
	if err != nil {
		s.logger.WithError(err).WithField("category", category).Warn("Failed to store news articles")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"category": category,
		"inserted": inserted,
	}).Debug("Stored news articles")
}

func (s *Service) validCategories() string {
	names := make([]string, 0, len(s.catalog.Sections))
	for _, c := range s.catalog.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

// dedupeByTitle keeps the first item for each lowercased 30-rune title prefix.
func dedupeByTitle(items []models.NewsItem) []models.NewsItem {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		key := titleKey(item.Title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func titleKey(title string) string {
	runes := []rune(title)
	if len(runes) > titleKeyLength {
		runes = runes[:titleKeyLength]
	}
	return strings.ToLower(string(runes))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}
