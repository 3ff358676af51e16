package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paaavkata/stock-dashboard/internal/token"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) HealthCheck(ctx context.Context) error { return p.err }

type fakeTokens struct {
	info       models.TokenInfo
	durability token.DurabilityStatus
}

func (f fakeTokens) TokenInfo(provider string) models.TokenInfo { return f.info }
func (f fakeTokens) DurabilityStatus() token.DurabilityStatus { return f.durability }

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		tokens     TokenInspector
		wantStatus string
		wantCode   int
	}{
		{
			name:       "healthy",
			db:         fakePinger{},
			tokens:     fakeTokens{info: models.TokenInfo{HasToken: true}},
			wantStatus: statusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name:       "database down",
			db:         fakePinger{err: errors.New("connection refused")},
			tokens:     fakeTokens{},
			wantStatus: statusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name:       "token store failing",
			db:         fakePinger{},
			tokens:     fakeTokens{durability: token.DurabilityStatus{Failures: 2, LastError: "timeout"}},
			wantStatus: statusDegraded,
			wantCode:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker(tt.db, tt.tokens, newTestLogger())

			rec := httptest.NewRecorder()
			checker.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var status HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			assert.Equal(t, tt.wantStatus, status.Status)
		})
	}
}

func TestCheckHealth_ReportsTokenState(t *testing.T) {
	checker := NewHealthChecker(fakePinger{}, fakeTokens{
		durability: token.DurabilityStatus{Failures: 1, LastError: "disk full"},
	}, newTestLogger())

	status := checker.CheckHealth(context.Background())
	assert.Equal(t, "absent", status.Services["kis_token"])
	assert.Equal(t, "1", status.Services["token_store_failures"])
	assert.Equal(t, "disk full", status.Services["token_store_last_error"])
}
