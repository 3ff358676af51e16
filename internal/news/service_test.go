package news

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/paaavkata/stock-dashboard/internal/catalog"
	"github.com/paaavkata/stock-dashboard/pkg/apperrors"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/paaavkata/stock-dashboard/pkg/naver"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) SearchNews(ctx context.Context, opts naver.SearchOptions) (*naver.NewsResponse, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*naver.NewsResponse), args.Error(1)
}

type MockArticleStore struct {
	mock.Mock
}

func (m *MockArticleStore) SaveArticles(ctx context.Context, articles []models.NewsArticle) (int, error) {
	args := m.Called(ctx, articles)
	return args.Int(0), args.Error(1)
}

func (m *MockArticleStore) FindByCategory(ctx context.Context, category models.NewsCategory, limit, offset int) ([]models.NewsArticle, error) {
	args := m.Called(ctx, category, limit, offset)
	return args.Get(0).([]models.NewsArticle), args.Error(1)
}

func (m *MockArticleStore) Search(ctx context.Context, keyword string, limit int) ([]models.NewsArticle, error) {
	args := m.Called(ctx, keyword, limit)
	return args.Get(0).([]models.NewsArticle), args.Error(1)
}

func (m *MockArticleStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.FixedZone("KST", 9*60*60))

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newService(searcher Searcher, store ArticleStore) *Service {
	return NewService(searcher, store, catalog.Default(), newTestLogger(),
		WithClock(func() time.Time { return now }))
}

func rawItem(title, link string) naver.NewsItem {
	return naver.NewsItem{
		Title:        title,
		Link:         link,
		OriginalLink: "https://www.hankyung.com/article/1",
		Description:  "<b>코스맥스</b> 실적",
		PubDate:      now.Add(-2 * time.Hour).Format(time.RFC1123Z),
	}
}

func TestService_GetCategoryNews(t *testing.T) {
	searcher := new(MockSearcher)
	section, ok := catalog.Default().Section(models.NewsCosmax)
	require.True(t, ok)

	searcher.On("SearchNews", mock.Anything, naver.SearchOptions{
		Query:   catalog.SearchQuery(section),
		Display: 10,
		Start:   11,
		Sort:    "date",
	}).Return(&naver.NewsResponse{
		Total:   45,
		Start:   11,
		Display: 10,
		Items: []naver.NewsItem{
			rawItem("<b>코스맥스</b> 1분기 실적 발표", "https://n.news.naver.com/1"),
			rawItem("코스맥스 1분기 실적 발표", "https://n.news.naver.com/2"),
			rawItem("코스맥스, 신규 공장 착공", "https://n.news.naver.com/3"),
		},
	}, nil)

	svc := newService(searcher, nil)
	page, err := svc.GetCategoryNews(context.Background(), models.NewsCosmax, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, models.NewsCosmax, page.Category)
	assert.Equal(t, section.Title, page.Title)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "코스맥스 1분기 실적 발표", page.Items[0].Title)
	assert.Equal(t, "https://n.news.naver.com/1", page.Items[0].Link)
	assert.Equal(t, "2시간 전", page.Items[0].RelativeTime)
	assert.Equal(t, models.Pagination{Page: 2, Limit: 10, Total: 45, HasMore: true}, page.Pagination)
	searcher.AssertExpectations(t)
}

func TestService_GetCategoryNews_Defaults(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("SearchNews", mock.Anything, mock.MatchedBy(func(opts naver.SearchOptions) bool {
		return opts.Display == DefaultLimit && opts.Start == 1
	})).Return(&naver.NewsResponse{Total: 5, Start: 1, Display: 5}, nil)

	svc := newService(searcher, nil)
	page, err := svc.GetCategoryNews(context.Background(), models.NewsKBeauty, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, DefaultLimit, page.Pagination.Limit)
	assert.False(t, page.Pagination.HasMore)
	assert.Empty(t, page.Items)
}

func TestService_GetCategoryNews_UnknownCategory(t *testing.T) {
	searcher := new(MockSearcher)
	svc := newService(searcher, nil)

	_, err := svc.GetCategoryNews(context.Background(), "sports", 1, 5)
	assert.ErrorIs(t, err, ErrUnknownCategory)
	searcher.AssertNotCalled(t, "SearchNews", mock.Anything, mock.Anything)
}

func TestService_GetCategoryNews_UpstreamError(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("SearchNews", mock.Anything, mock.Anything).
		Return(nil, &apperrors.UpstreamNewsError{Provider: naver.Provider, StatusCode: 401, Code: "024"})

	svc := newService(searcher, nil)
	_, err := svc.GetCategoryNews(context.Background(), models.NewsCompetitors, 1, 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
}

func TestService_GetCategoryNews_PersistsBestEffort(t *testing.T) {
	searcher := new(MockSearcher)
	searcher.On("SearchNews", mock.Anything, mock.Anything).Return(&naver.NewsResponse{
		Total: 1, Start: 1, Display: 1,
		Items: []naver.NewsItem{rawItem("코스맥스 신제품", "https://n.news.naver.com/9")},
	}, nil)

	store := new(MockArticleStore)
	store.On("SaveArticles", mock.Anything, mock.MatchedBy(func(articles []models.NewsArticle) bool {
		return len(articles) == 1 &&
			articles[0].Category == models.NewsCosmax &&
			articles[0].Source == "한국경제" &&
			!articles[0].PublishedAt.IsZero()
	})).Return(0, errors.New("connection reset"))

	svc := newService(searcher, store)
	page, err := svc.GetCategoryNews(context.Background(), models.NewsCosmax, 1, 5)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	store.AssertExpectations(t)
}

func TestService_GetCachedNews(t *testing.T) {
	store := new(MockArticleStore)
	store.On("FindByCategory", mock.Anything, models.NewsCosmax, MaxLimit, 0).
		Return([]models.NewsArticle{{Title: "a"}}, nil)

	svc := newService(new(MockSearcher), store)
	articles, err := svc.GetCachedNews(context.Background(), models.NewsCosmax, 500, -3)
	require.NoError(t, err)
	assert.Len(t, articles, 1)

	_, err = svc.GetCachedNews(context.Background(), "unknown", 5, 0)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestService_SearchCached_BlankKeyword(t *testing.T) {
	store := new(MockArticleStore)
	svc := newService(new(MockSearcher), store)

	articles, err := svc.SearchCached(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, articles)
	store.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_PurgeOlderThan(t *testing.T) {
	store := new(MockArticleStore)
	store.On("DeleteOlderThan", mock.Anything, now.AddDate(0, 0, -DefaultRetentionDays)).Return(int64(7), nil)

	svc := newService(new(MockSearcher), store)
	deleted, err := svc.PurgeOlderThan(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
}

func TestTitleKey(t *testing.T) {
	assert.Equal(t, "abc", titleKey("ABC"))
	long := "가나다라마바사아자차카타파하가나다라마바사아자차카타파하가나다라"
	assert.Equal(t, []rune(long)[:30], []rune(titleKey(long)))
}
