package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/paaavkata/stock-dashboard/pkg/apperrors"
	"github.com/paaavkata/stock-dashboard/pkg/kis"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

type TokenProvider interface {
	GetToken(ctx context.Context, provider string) (string, error)
}

// Fetcher calls the KIS quotation endpoints and normalizes their output.
type Fetcher struct {
	client *kis.Client
	tokens TokenProvider
	names  map[string]string
	now    func() time.Time
	logger *logrus.Logger
}

// NewFetcher builds a Fetcher. names maps ticker codes to display names
// and may be nil.
func NewFetcher(client *kis.Client, tokens TokenProvider, names map[string]string, logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		tokens: tokens,
		names:  names,
		now:    time.Now,
		logger: logger,
	}
}

func (f *Fetcher) GetPrice(ctx context.Context, code string, isIndex bool) (*models.StockPrice, error) {
	accessToken, err := f.tokens.GetToken(ctx, kis.Provider)
	if err != nil {
		return nil, err
	}

	if isIndex {
		resp, err := f.client.InquireIndexPrice(ctx, accessToken, code)
		if err != nil {
			return nil, err
		}
		price, err := normalizeIndexPrice(code, f.names[code], resp.Output, f.now())
		if err != nil {
			return nil, malformed("inquire index price", err)
		}
		return price, nil
	}

	resp, err := f.client.InquirePrice(ctx, accessToken, code)
	if err != nil {
		return nil, err
	}
	price, err := normalizeStockPrice(code, f.names[code], resp.Output, f.now())
	if err != nil {
		return nil, malformed("inquire price", err)
	}
	return price, nil
}

// GetDailyPrices returns bars between two YYYYMMDD dates in provider order
// (newest first). Rows that fail to parse are skipped.
func (f *Fetcher) GetDailyPrices(ctx context.Context, code, startDate, endDate string, period kis.Period, isIndex bool) ([]models.DailyPrice, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("invalid period %q", period)
	}

	accessToken, err := f.tokens.GetToken(ctx, kis.Provider)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		bars        []models.DailyPrice
		total       int
		parseErrors int
	)

	if isIndex {
		resp, err := f.client.InquireIndexDailyPrice(ctx, accessToken, code, startDate, endDate, period)
		if err != nil {
			return nil, err
		}
		total = len(resp.Output2)
		bars = make([]models.DailyPrice, 0, total)
		for _, item := range resp.Output2 {
			if item.StckBsopDate == "" {
				continue
			}
			bar, err := normalizeIndexDailyItem(item)
			if err != nil {
				f.logSkipped(code, item.StckBsopDate, err)
				parseErrors++
				continue
			}
			bars = append(bars, bar)
		}
	} else {
		resp, err := f.client.InquireDailyChartPrice(ctx, accessToken, code, startDate, endDate, period)
		if err != nil {
			return nil, err
		}
		total = len(resp.Output2)
		bars = make([]models.DailyPrice, 0, total)
		for _, item := range resp.Output2 {
			if item.StckBsopDate == "" {
				continue
			}
			bar, err := normalizeDailyItem(item)
			if err != nil {
				f.logSkipped(code, item.StckBsopDate, err)
				parseErrors++
				continue
			}
			bars = append(bars, bar)
		}
	}

	f.logger.WithFields(logrus.Fields{
		"code":         code,
		"is_index":     isIndex,
		"period":       period,
		"total_rows":   total,
		"valid_rows":   len(bars),
		"parse_errors": parseErrors,
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Debug("Fetched daily prices")

	return bars, nil
}

func (f *Fetcher) logSkipped(code, date string, err error) {
	f.logger.WithFields(logrus.Fields{
		"code":  code,
		"date":  date,
		"error": err.Error(),
	}).Debug("Failed to parse daily price row")
}

func malformed(op string, err error) error {
	var quoteErr *apperrors.UpstreamQuoteError
	if errors.As(err, &quoteErr) {
		return err
	}
	return &apperrors.UpstreamQuoteError{
		Provider:  kis.Provider,
		Operation: op,
		Message:   "malformed response",
		Err:       err,
	}
}
