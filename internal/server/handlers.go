package server

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paaavkata/stock-dashboard/internal/analysis"
	"github.com/paaavkata/stock-dashboard/internal/catalog"
	"github.com/paaavkata/stock-dashboard/pkg/kis"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/paaavkata/stock-dashboard/pkg/utils"
	"golang.org/x/sync/errgroup"
)

const (
	defaultHistoryDays = 90
	batchConcurrency   = 4
	maxBatchCodes      = 50
)

type analysisOverlay struct {
	Rebased       []analysis.Point `json:"rebased,omitempty"`
	MovingAverage []analysis.Point `json:"movingAverage,omitempty"`
	Summary       analysis.Summary `json:"summary"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		s.writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	isIndex := s.isIndex(code, r.URL.Query().Get("isIndex"))

	if s.dummyQuotes {
		s.writeData(w, placeholderPrice(newRand(), code, s.now()), true)
		return
	}

	price, err := s.quotes.GetPrice(r.Context(), code, isIndex)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeData(w, price, false)
}

// handlePrices quotes several codes at once. Codes that fail are left out.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	codes := splitCodes(r.URL.Query().Get("codes"))
	if len(codes) == 0 {
		s.writeError(w, http.StatusBadRequest, "codes is required")
		return
	}
	if len(codes) > maxBatchCodes {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d codes per request", maxBatchCodes))
		return
	}

	if s.dummyQuotes {
		rnd := newRand()
		prices := make([]*models.StockPrice, 0, len(codes))
		for _, code := range codes {
			prices = append(prices, placeholderPrice(rnd, code, s.now()))
		}
		s.writeData(w, prices, true)
		return
	}

	results := make([]*models.StockPrice, len(codes))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(batchConcurrency)
	for i, code := range codes {
		g.Go(func() error {
			price, err := s.quotes.GetPrice(ctx, code, s.isIndex(code, ""))
			if err != nil {
				s.logger.WithError(err).WithField("code", code).Warn("Failed to fetch quote in batch")
				return nil
			}
			results[i] = price
			return nil
		})
	}
	_ = g.Wait()

	prices := make([]*models.StockPrice, 0, len(results))
	for _, p := range results {
		if p != nil {
			prices = append(prices, p)
		}
	}
	s.writeData(w, prices, false)
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		s.writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	period := kis.Period(strings.ToUpper(q.Get("period")))
	if period == "" {
		period = kis.PeriodDay
	}
	if !period.Valid() {
		s.writeError(w, http.StatusBadRequest, "period must be D, W or M")
		return
	}

	start, end, err := s.historyRange(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	isIndex := s.isIndex(code, q.Get("isIndex"))

	var (
		bars  []models.DailyPrice
		dummy bool
	)
	switch {
	case s.dummyQuotes:
		bars, dummy = placeholderHistory(newRand(), start, end, period), true
	case period == kis.PeriodDay:
		bars, err = s.history.GetHistory(r.Context(), code, utils.ToDate(start), utils.ToDate(end), isIndex)
	default:
		bars, err = s.quotes.GetDailyPrices(r.Context(), code, utils.ToCompactDate(start), utils.ToCompactDate(end), period, isIndex)
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	}
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	resp := response{Success: true, Data: bars, IsDummy: dummy}
	if overlay, ok, err := buildOverlay(bars, q.Get("rebase"), q.Get("sma")); err != nil {
		s.writeFailure(w, err)
		return
	} else if ok {
		resp.Analysis = overlay
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// historyRange parses YYYY-MM-DD bounds in the market timezone. The
// default window is the 90 days ending today.
func (s *Server) historyRange(startParam, endParam string) (time.Time, time.Time, error) {
	end := s.now().In(s.location)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, s.location)
	if endParam != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, endParam, s.location)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: endDate must be YYYY-MM-DD", errBadRequest)
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -defaultHistoryDays)
	if startParam != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, startParam, s.location)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: startDate must be YYYY-MM-DD", errBadRequest)
		}
		start = parsed
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: startDate is after endDate", errBadRequest)
	}
	return start, end, nil
}

func buildOverlay(bars []models.DailyPrice, rebaseParam, smaParam string) (*analysisOverlay, bool, error) {
	rebase, _ := strconv.ParseBool(rebaseParam)
	window := 0
	if smaParam != "" {
		n, err := strconv.Atoi(smaParam)
		if err != nil || n < 2 {
			return nil, false, fmt.Errorf("%w: sma must be an integer of at least 2", errBadRequest)
		}
		window = n
	}
	if !rebase && window == 0 {
		return nil, false, nil
	}

	overlay := &analysisOverlay{Summary: analysis.Summarize(bars)}
	if rebase {
		overlay.Rebased = analysis.Rebase(bars)
	}
	if window > 0 {
		overlay.MovingAverage = analysis.MovingAverage(bars, window)
	}
	return overlay, true, nil
}

// handleCorrelation compares the daily closes of two codes over a range.
func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	codes := splitCodes(q.Get("codes"))
	if len(codes) != 2 {
		s.writeError(w, http.StatusBadRequest, "codes must name exactly two tickers")
		return
	}

	start, end, err := s.historyRange(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	series := make([][]models.DailyPrice, len(codes))
	if s.dummyQuotes {
		rnd := newRand()
		for i := range codes {
			series[i] = placeholderHistory(rnd, start, end, kis.PeriodDay)
		}
	} else {
		g, ctx := errgroup.WithContext(r.Context())
		for i, code := range codes {
			g.Go(func() error {
				bars, err := s.history.GetHistory(ctx, code, utils.ToDate(start), utils.ToDate(end), s.isIndex(code, ""))
				series[i] = bars
				return err
			})
		}
		if err := g.Wait(); err != nil {
			s.writeFailure(w, err)
			return
		}
	}

	result, err := analysis.Correlate(series[0], series[1])
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeData(w, result, s.dummyQuotes)
}

func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	category := models.TickerCategory(r.URL.Query().Get("category"))
	if category != "" {
		s.writeData(w, s.catalog.TickersByCategory(category), false)
		return
	}
	s.writeData(w, s.catalog.Tickers, false)
}

func (s *Server) handleTimeRanges(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, catalog.TimeRanges, false)
}

func (s *Server) handleNewsSections(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, s.news.Sections(), false)
}

func (s *Server) handleCategoryNews(w http.ResponseWriter, r *http.Request) {
	category := models.NewsCategory(chi.URLParam(r, "category"))
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 0)

	result, err := s.news.GetCategoryNews(r.Context(), category, page, limit)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeData(w, result, false)
}

func (s *Server) handleNewsSearch(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("q"))
	if keyword == "" {
		s.writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	articles, err := s.news.SearchCached(r.Context(), keyword, queryInt(r, "limit", 0))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeData(w, articles, false)
}

var tokenProviders = []string{kis.Provider}

func (s *Server) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	info := make(map[string]interface{}, len(tokenProviders)+1)
	for _, provider := range tokenProviders {
		info[provider] = s.tokens.TokenInfo(provider)
	}
	info["durability"] = s.tokens.DurabilityStatus()
	s.writeData(w, info, false)
}

// isIndex honours an explicit query flag and otherwise asks the catalog.
func (s *Server) isIndex(code, param string) bool {
	if v, err := strconv.ParseBool(param); err == nil {
		return v
	}
	if s.catalog != nil {
		if t, ok := s.catalog.Ticker(code); ok {
			return t.UsesIndexEndpoint()
		}
	}
	return false
}

func splitCodes(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return fallback
}
