package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/paaavkata/stock-dashboard/internal/catalog"
	"github.com/paaavkata/stock-dashboard/internal/token"
	"github.com/paaavkata/stock-dashboard/pkg/kis"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

type QuoteSource interface {
	GetPrice(ctx context.Context, code string, isIndex bool) (*models.StockPrice, error)
	GetDailyPrices(ctx context.Context, code, startDate, endDate string, period kis.Period, isIndex bool) ([]models.DailyPrice, error)
}

type HistorySource interface {
	GetHistory(ctx context.Context, tickerCode, startDate, endDate string, isIndex bool) ([]models.DailyPrice, error)
}

type NewsSource interface {
	Sections() []models.NewsSection
	GetCategoryNews(ctx context.Context, category models.NewsCategory, page, limit int) (*models.NewsPage, error)
	SearchCached(ctx context.Context, keyword string, limit int) ([]models.NewsArticle, error)
}

type TokenInspector interface {
	TokenInfo(provider string) models.TokenInfo
	DurabilityStatus() token.DurabilityStatus
}

type Config struct {
	Port           string
	AllowedOrigins []string
	Location       *time.Location
	// DummyQuotes serves synthetic stock data when quote credentials are
	// not configured.
	DummyQuotes bool

	Catalog *catalog.Catalog
	Quotes  QuoteSource
	History HistorySource
	News    NewsSource
	Tokens  TokenInspector
	Health  http.HandlerFunc
}

type Server struct {
	router *chi.Mux
	server *http.Server
	logger *logrus.Logger

	catalog     *catalog.Catalog
	quotes      QuoteSource
	history     HistorySource
	news        NewsSource
	tokens      TokenInspector
	health      http.HandlerFunc
	location    *time.Location
	dummyQuotes bool

	now func() time.Time
}

func New(cfg Config, logger *logrus.Logger) *Server {
	location := cfg.Location
	if location == nil {
		location = time.FixedZone("KST", 9*60*60)
	}

	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		catalog:     cfg.Catalog,
		quotes:      cfg.Quotes,
		history:     cfg.History,
		news:        cfg.News,
		tokens:      cfg.Tokens,
		health:      cfg.Health,
		location:    location,
		dummyQuotes: cfg.DummyQuotes,
		now:         time.Now,
	}

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(allowedOrigins []string) {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	if s.health != nil {
		s.router.Get("/health", s.health)
		s.router.Get("/ready", s.health)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/stocks", func(r chi.Router) {
			r.Get("/price", s.handlePrice)
			r.Get("/prices", s.handlePrices)
			r.Get("/historical", s.handleHistorical)
			r.Get("/correlation", s.handleCorrelation)
		})

		r.Get("/tickers", s.handleTickers)
		r.Get("/time-ranges", s.handleTimeRanges)

		r.Route("/news", func(r chi.Router) {
			r.Get("/", s.handleNewsSections)
			r.Get("/search", s.handleNewsSearch)
			r.Get("/{category}", s.handleCategoryNews)
		})

		r.Get("/token/info", s.handleTokenInfo)
	})
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.WithField("addr", s.server.Addr).Info("Starting HTTP server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Info("HTTP request")
	})
}
