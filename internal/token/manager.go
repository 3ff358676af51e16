package token

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/paaavkata/stock-dashboard/pkg/apperrors"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

// Store is the durable record of one token per provider.
type Store interface {
	// FindByProvider returns nil, nil when no record exists.
	FindByProvider(ctx context.Context, provider string) (*models.TokenRecord, error)
	// Save inserts or replaces the record keyed by provider.
	Save(ctx context.Context, record *models.TokenRecord) error
	Delete(ctx context.Context, provider string) error
}

// Issued is a freshly issued token as reported by the provider.
type Issued struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Issuer obtains new tokens from a provider's auth endpoint.
type Issuer interface {
	// Validate reports a *apperrors.ConfigurationError without network I/O.
	Validate() error
	Issue(ctx context.Context) (*Issued, error)
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithRefreshCutoff(loc *time.Location, hour int) Option {
	return func(m *Manager) {
		if loc != nil {
			m.location = loc
		}
		m.cutoffHour = hour
	}
}

// DurabilityStatus summarizes token store failures that were absorbed.
type DurabilityStatus struct {
	Failures  int64     `json:"failures"`
	LastError string    `json:"lastError,omitempty"`
	LastAt    time.Time `json:"lastAt,omitempty"`
}

type Manager struct {
	cache      Cache
	store      Store
	logger     *logrus.Logger
	now        func() time.Time
	location   *time.Location
	cutoffHour int

	mu      sync.RWMutex
	issuers map[string]Issuer

	durabilityFailures atomic.Int64
	lastDurability     atomic.Pointer[DurabilityStatus]
}

// NewManager builds a Manager. store may be nil for memory-only operation.
func NewManager(cache Cache, store Store, logger *logrus.Logger, opts ...Option) *Manager {
	if cache == nil {
		cache = NewMemoryCache()
	}

	m := &Manager{
		cache:      cache,
		store:      store,
		logger:     logger,
		now:        time.Now,
		location:   time.FixedZone("KST", 9*60*60),
		cutoffHour: DefaultCutoffHour,
		issuers:    make(map[string]Issuer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Register(provider string, issuer Issuer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issuers[provider] = issuer
}

func (m *Manager) issuer(provider string) (Issuer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	issuer, ok := m.issuers[provider]
	if !ok {
		return nil, &apperrors.ConfigurationError{Provider: provider, Missing: []string{"token issuer"}}
	}
	return issuer, nil
}

// GetToken returns a token valid for the current refresh window, consulting
// memory, then the durable store, then the provider.
func (m *Manager) GetToken(ctx context.Context, provider string) (string, error) {
	issuer, err := m.issuer(provider)
	if err != nil {
		return "", err
	}
	if err := issuer.Validate(); err != nil {
		return "", err
	}

	now := m.now()
	log := m.logger.WithField("provider", provider)

	if record, ok := m.cache.Get(provider); ok && m.valid(record, now) {
		return record.AccessToken, nil
	}

	if m.store != nil {
		record, err := m.store.FindByProvider(ctx, provider)
		switch {
		case err != nil:
			m.recordDurabilityFailure(provider, "read", err)
		case record != nil && m.valid(record, now):
			m.cache.Set(provider, record)
			log.WithField("issued_at", record.IssuedAt).Debug("Loaded token from store")
			return record.AccessToken, nil
		}
	}

	issued, err := issuer.Issue(ctx)
	if err != nil {
		var authErr *apperrors.UpstreamAuthError
		var cfgErr *apperrors.ConfigurationError
		if !errors.As(err, &authErr) && !errors.As(err, &cfgErr) {
			err = &apperrors.UpstreamAuthError{Provider: provider, Err: err}
		}
		log.WithError(err).Error("Failed to issue token")
		return "", err
	}

	record := &models.TokenRecord{
		ID:          uuid.New(),
		Provider:    provider,
		AccessToken: issued.AccessToken,
		IssuedAt:    now,
		ExpiresAt:   issued.ExpiresAt,
		CreatedAt:   now,
	}
	m.cache.Set(provider, record)

	if m.store != nil {
		if err := m.store.Save(ctx, record); err != nil {
			m.recordDurabilityFailure(provider, "write", err)
		}
	}

	log.WithFields(logrus.Fields{
		"issued_at":  record.IssuedAt,
		"expires_at": record.ExpiresAt,
	}).Info("Issued new token")

	return record.AccessToken, nil
}

// ClearToken drops the cached and stored token. Store failures are logged only.
func (m *Manager) ClearToken(ctx context.Context, provider string) {
	m.cache.Clear(provider)

	if m.store != nil {
		if err := m.store.Delete(ctx, provider); err != nil {
			m.recordDurabilityFailure(provider, "delete", err)
		}
	}

	m.logger.WithField("provider", provider).Info("Token cleared")
}

// TokenInfo reports the in-memory token state only.
func (m *Manager) TokenInfo(provider string) models.TokenInfo {
	record, ok := m.cache.Get(provider)
	if !ok || record == nil {
		return models.TokenInfo{HasToken: false}
	}

	expiresAt := record.ExpiresAt
	issuedAt := record.IssuedAt
	return models.TokenInfo{
		HasToken:  true,
		ExpiresAt: &expiresAt,
		IssuedAt:  &issuedAt,
	}
}

func (m *Manager) DurabilityStatus() DurabilityStatus {
	status := DurabilityStatus{Failures: m.durabilityFailures.Load()}
	if last := m.lastDurability.Load(); last != nil {
		status.LastError = last.LastError
		status.LastAt = last.LastAt
	}
	return status
}

func (m *Manager) valid(record *models.TokenRecord, now time.Time) bool {
	if record == nil || record.AccessToken == "" {
		return false
	}
	return ValidInWindow(record.IssuedAt, now, m.location, m.cutoffHour)
}

func (m *Manager) recordDurabilityFailure(provider, op string, err error) {
	m.durabilityFailures.Add(1)
	m.lastDurability.Store(&DurabilityStatus{LastError: op + ": " + err.Error(), LastAt: m.now()})

	m.logger.WithError(err).WithFields(logrus.Fields{
		"provider":  provider,
		"operation": op,
	}).Warn("Token store unavailable, continuing with in-memory token")
}
