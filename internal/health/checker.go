package health

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/paaavkata/stock-dashboard/internal/token"
	"github.com/paaavkata/stock-dashboard/pkg/kis"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
)

type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type TokenInspector interface {
	TokenInfo(provider string) models.TokenInfo
	DurabilityStatus() token.DurabilityStatus
}

type HealthChecker struct {
	db     Pinger
	tokens TokenInspector
	logger *logrus.Logger
	now    func() time.Time
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func NewHealthChecker(db Pinger, tokens TokenInspector, logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{
		db:     db,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

func (h *HealthChecker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := h.CheckHealth(ctx)

		w.Header().Set("Content-Type", "application/json")
		if status.Status == statusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		json.NewEncoder(w).Encode(status)
	}
}

// CheckHealth is unhealthy only when the database is unreachable. Durable
// token store failures mark the service degraded.
func (h *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	services := make(map[string]string)
	overallStatus := statusHealthy

	if h.db == nil {
		services["database"] = "disabled"
	} else if err := h.db.HealthCheck(ctx); err != nil {
		services["database"] = "unhealthy: " + err.Error()
		overallStatus = statusUnhealthy
		h.logger.WithError(err).Error("Database health check failed")
	} else {
		services["database"] = statusHealthy
	}

	if h.tokens != nil {
		info := h.tokens.TokenInfo(kis.Provider)
		if info.HasToken {
			services["kis_token"] = "cached"
		} else {
			services["kis_token"] = "absent"
		}

		durability := h.tokens.DurabilityStatus()
		services["token_store_failures"] = strconv.FormatInt(durability.Failures, 10)
		if durability.Failures > 0 {
			services["token_store_last_error"] = durability.LastError
			if overallStatus == statusHealthy {
				overallStatus = statusDegraded
			}
		}
	}

	return HealthStatus{
		Status:    overallStatus,
		Timestamp: h.now(),
		Services:  services,
	}
}
