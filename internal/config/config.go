package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/paaavkata/stock-dashboard/pkg/database"
	"github.com/paaavkata/stock-dashboard/pkg/kis"
	"github.com/paaavkata/stock-dashboard/pkg/naver"
)

type Config struct {
	Database database.Config
	KIS      kis.Config
	Naver    naver.Config

	Port               string
	CORSAllowedOrigins []string

	MarketTimezone   string
	TokenRefreshHour int

	MarketDataRetentionDays int
	NewsRetentionDays       int

	SchedulerEnabled bool
	RefreshCron      string
	CleanupCron      string
	TokenWarmCron    string

	CatalogFile string
}

// Load reads configuration from the environment. Values in a local .env file
// are used when present and do not override variables already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: database.Config{
			DbUri: getEnv("DB_URI", "postgres://localhost:5432/stock_dashboard?sslmode=disable"),
		},
		KIS: kis.Config{
			AppKey:            getEnv("KIS_APP_KEY", ""),
			AppSecret:         getEnv("KIS_APP_SECRET", ""),
			BaseURL:           getEnv("KIS_BASE_URL", kis.DefaultBaseURL),
			RequestsPerSecond: getEnvInt("KIS_REQUESTS_PER_SECOND", 15),
			RetryCount:        getEnvInt("KIS_HTTP_RETRIES", 1),
		},
		Naver: naver.Config{
			ClientID:     getEnv("NAVER_CLIENT_ID", ""),
			ClientSecret: getEnv("NAVER_CLIENT_SECRET", ""),
			BaseURL:      getEnv("NAVER_BASE_URL", naver.DefaultBaseURL),
		},
		Port:                    getEnv("PORT", "8080"),
		CORSAllowedOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MarketTimezone:          getEnv("MARKET_TIMEZONE", "Asia/Seoul"),
		TokenRefreshHour:        getEnvInt("TOKEN_REFRESH_HOUR", 4),
		MarketDataRetentionDays: getEnvInt("MARKET_DATA_RETENTION_DAYS", 365),
		NewsRetentionDays:       getEnvInt("NEWS_RETENTION_DAYS", 30),
		SchedulerEnabled:        getEnvBool("SCHEDULER_ENABLED", true),
		RefreshCron:             getEnv("REFRESH_CRON", "0 0 16 * * MON-FRI"),
		CleanupCron:             getEnv("CLEANUP_CRON", "0 0 2 * * *"),
		TokenWarmCron:           getEnv("TOKEN_WARM_CRON", "0 5 4 * * *"),
		CatalogFile:             getEnv("CATALOG_FILE", ""),
	}
}

// HasQuoteCredentials reports whether live quotes can be requested.
func (c *Config) HasQuoteCredentials() bool {
	return c.KIS.AppKey != "" && c.KIS.AppSecret != ""
}

// Location resolves the market timezone. Hosts without tzdata get a fixed
// UTC+9 zone.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.MarketTimezone); err == nil {
		return loc
	}
	return time.FixedZone("KST", 9*60*60)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
