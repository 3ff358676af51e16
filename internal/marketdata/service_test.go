package marketdata

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/paaavkata/stock-dashboard/pkg/apperrors"
	"github.com/paaavkata/stock-dashboard/pkg/kis"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var kst = time.FixedZone("KST", 9*60*60)

// memoryStore mirrors the repository's replace-by-key semantics in memory.
type memoryStore struct {
	mu       sync.Mutex
	rows     map[string]models.PriceRow
	readErr  error
	writeErr error
	cutoff   string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[string]models.PriceRow)}
}

func (s *memoryStore) FindByTickerAndDateRange(ctx context.Context, tickerCode, startDate, endDate string) ([]models.PriceRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []models.PriceRow
	for _, row := range s.rows {
		if row.TickerCode == tickerCode && row.TradeDate >= startDate && row.TradeDate <= endDate {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TradeDate < out[j].TradeDate })
	return out, nil
}

func (s *memoryStore) UpsertPrices(ctx context.Context, rows []models.PriceRow) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	for _, row := range rows {
		s.rows[row.TickerCode+"|"+row.TradeDate] = row
	}
	return len(rows), nil
}

func (s *memoryStore) DeleteOlderThan(ctx context.Context, cutoffDate string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoff = cutoffDate
	var n int64
	for key, row := range s.rows {
		if row.TradeDate < cutoffDate {
			delete(s.rows, key)
			n++
		}
	}
	return n, nil
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) GetDailyPrices(ctx context.Context, code, startDate, endDate string, period kis.Period, isIndex bool) ([]models.DailyPrice, error) {
	args := m.Called(ctx, code, startDate, endDate, period, isIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DailyPrice), args.Error(1)
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newService(store PriceStore, fetcher HistoryFetcher) *Service {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, kst)
	return NewService(store, fetcher, newTestLogger(),
		WithClock(func() time.Time { return now }),
		WithLocation(kst),
	)
}

func bar(date string, closePrice float64) models.DailyPrice {
	return models.DailyPrice{
		Date:       date,
		Open:       closePrice - 100,
		High:       closePrice + 200,
		Low:        closePrice - 300,
		Close:      closePrice,
		Volume:     1000,
		ChangeRate: null.FloatFrom(1.25),
	}
}

func TestService_GetHistory_MissThenHit(t *testing.T) {
	store := newMemoryStore()
	fetcher := new(MockFetcher)
	fetcher.On("GetDailyPrices", mock.Anything, "192820", "20240301", "20240305", kis.PeriodDay, false).
		Return([]models.DailyPrice{bar("2024-03-05", 150000), bar("2024-03-04", 149000)}, nil).Once()

	svc := newService(store, fetcher)
	ctx := context.Background()

	first, err := svc.GetHistory(ctx, "192820", "2024-03-01", "2024-03-05", false)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "2024-03-04", first[0].Date)
	assert.Equal(t, "2024-03-05", first[1].Date)

	second, err := svc.GetHistory(ctx, "192820", "2024-03-01", "2024-03-05", false)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	fetcher.AssertNumberOfCalls(t, "GetDailyPrices", 1)
}

func TestService_GetHistory_PartialRangeIsTreatedAsComplete(t *testing.T) {
	store := newMemoryStore()
	_, err := store.UpsertPrices(context.Background(), []models.PriceRow{bar("2024-03-04", 149000).ToRow("192820")})
	require.NoError(t, err)

	fetcher := new(MockFetcher)
	svc := newService(store, fetcher)

	got, err := svc.GetHistory(context.Background(), "192820", "2024-01-01", "2024-03-05", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-04", got[0].Date)
	fetcher.AssertNotCalled(t, "GetDailyPrices", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_GetHistory_WriteFailureStillReturnsData(t *testing.T) {
	store := newMemoryStore()
	store.writeErr = errors.New("disk full")

	fetcher := new(MockFetcher)
	fetcher.On("GetDailyPrices", mock.Anything, "0001", "20240301", "20240305", kis.PeriodDay, true).
		Return([]models.DailyPrice{bar("2024-03-05", 2650.5)}, nil)

	svc := newService(store, fetcher)
	got, err := svc.GetHistory(context.Background(), "0001", "2024-03-01", "2024-03-05", true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2650.5, got[0].Close)
	fetcher.AssertExpectations(t)
}

func TestService_GetHistory_ReadFailureFallsBackToUpstream(t *testing.T) {
	store := newMemoryStore()
	store.readErr = errors.New("connection refused")

	fetcher := new(MockFetcher)
	fetcher.On("GetDailyPrices", mock.Anything, "192820", "20240301", "20240305", kis.PeriodDay, false).
		Return([]models.DailyPrice{bar("2024-03-05", 150000)}, nil)

	svc := newService(store, fetcher)
	got, err := svc.GetHistory(context.Background(), "192820", "2024-03-01", "2024-03-05", false)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	fetcher.AssertExpectations(t)
}

func TestService_GetHistory_UpstreamErrorPropagates(t *testing.T) {
	upstream := &apperrors.UpstreamQuoteError{Provider: kis.Provider, Code: "EGW00201", Message: "rate limited"}
	fetcher := new(MockFetcher)
	fetcher.On("GetDailyPrices", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, upstream)

	svc := newService(newMemoryStore(), fetcher)
	_, err := svc.GetHistory(context.Background(), "192820", "2024-03-01", "2024-03-05", false)
	require.Error(t, err)

	var quoteErr *apperrors.UpstreamQuoteError
	assert.True(t, errors.As(err, &quoteErr))
}

func TestService_GetHistory_InvalidRange(t *testing.T) {
	fetcher := new(MockFetcher)
	svc := newService(newMemoryStore(), fetcher)

	tests := []struct {
		name, start, end string
	}{
		{"bad start", "2024/03/01", "2024-03-05"},
		{"bad end", "2024-03-01", "20240305"},
		{"reversed", "2024-03-05", "2024-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetHistory(context.Background(), "192820", tt.start, tt.end, false)
			assert.ErrorIs(t, err, ErrInvalidDateRange)
		})
	}
	fetcher.AssertNotCalled(t, "GetDailyPrices", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Refresh(t *testing.T) {
	store := newMemoryStore()
	fetcher := new(MockFetcher)
	fetcher.On("GetDailyPrices", mock.Anything, "192820", "20240214", "20240315", kis.PeriodDay, false).
		Return([]models.DailyPrice{bar("2024-03-14", 151000), bar("2024-03-15", 152000)}, nil)

	svc := newService(store, fetcher)
	n, err := svc.Refresh(context.Background(), "192820", false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.rows, 2)
	fetcher.AssertExpectations(t)
}

func TestService_PurgeOlderThan(t *testing.T) {
	store := newMemoryStore()
	_, err := store.UpsertPrices(context.Background(), []models.PriceRow{
		bar("2024-03-04", 1).ToRow("A"),
		bar("2024-03-05", 1).ToRow("A"),
		bar("2024-03-06", 1).ToRow("A"),
	})
	require.NoError(t, err)

	// now is 2024-03-15, so the cutoff is 2024-03-05 and that row survives.
	svc := newService(store, new(MockFetcher))
	deleted, err := svc.PurgeOlderThan(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, "2024-03-05", store.cutoff)
	assert.Len(t, store.rows, 2)
}

func TestService_PurgeOlderThan_DefaultRetention(t *testing.T) {
	store := newMemoryStore()
	svc := newService(store, new(MockFetcher))

	_, err := svc.PurgeOlderThan(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "2023-03-16", store.cutoff)
}
