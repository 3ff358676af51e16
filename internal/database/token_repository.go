package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/paaavkata/stock-dashboard/pkg/database"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

type TokenRepository struct {
	db     *database.DB
	logger *logrus.Logger
}

func NewTokenRepository(db *database.DB, logger *logrus.Logger) *TokenRepository {
	return &TokenRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TokenRepository) FindByProvider(ctx context.Context, provider string) (*models.TokenRecord, error) {
	query := `
        SELECT id, provider, access_token, issued_at, expires_at, created_at
        FROM api_tokens
        WHERE provider = $1
        ORDER BY issued_at DESC
        LIMIT 1
    `

	var record models.TokenRecord
	err := r.db.QueryRowContext(ctx, query, provider).Scan(
		&record.ID, &record.Provider, &record.AccessToken,
		&record.IssuedAt, &record.ExpiresAt, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	return &record, nil
}

// Save replaces the provider's token row.
func (r *TokenRepository) Save(ctx context.Context, record *models.TokenRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM api_tokens WHERE provider = $1`, record.Provider); err != nil {
			return fmt.Errorf("failed to delete previous token: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
            INSERT INTO api_tokens (id, provider, access_token, issued_at, expires_at)
            VALUES ($1, $2, $3, $4, $5)`,
			record.ID, record.Provider, record.AccessToken, record.IssuedAt, record.ExpiresAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert token: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.WithField("provider", record.Provider).Debug("Saved token")
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, provider string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM api_tokens WHERE provider = $1`, provider); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
