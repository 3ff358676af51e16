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

type TickerRepository struct {
	db     *database.DB
	logger *logrus.Logger
}

func NewTickerRepository(db *database.DB, logger *logrus.Logger) *TickerRepository {
	return &TickerRepository{
		db:     db,
		logger: logger,
	}
}

const tickerColumns = `id, code, name, market, category, display_order, is_active, created_at, updated_at`

// FindAll returns active tickers in display order.
func (r *TickerRepository) FindAll(ctx context.Context) ([]models.Ticker, error) {
	return r.query(ctx, `SELECT `+tickerColumns+`
        FROM tickers
        WHERE is_active = TRUE
        ORDER BY display_order ASC, code ASC`)
}

// Upsert inserts tickers or updates them in place by code.
func (r *TickerRepository) Upsert(ctx context.Context, tickers []models.Ticker) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tickers {
			var id uuid.UUID
			err := tx.QueryRowContext(ctx, `SELECT id FROM tickers WHERE code = $1`, t.Code).Scan(&id)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				_, err = tx.ExecContext(ctx, `
                    INSERT INTO tickers (id, code, name, market, category, display_order, is_active)
                    VALUES ($1, $2, $3, $4, $5, $6, TRUE)`,
					uuid.New(), t.Code, t.Name, string(t.Market), string(t.Category), t.DisplayOrder)
				if err != nil {
					return fmt.Errorf("failed to insert ticker %s: %w", t.Code, err)
				}
			case err != nil:
				return fmt.Errorf("failed to look up ticker %s: %w", t.Code, err)
			default:
				_, err = tx.ExecContext(ctx, `
                    UPDATE tickers
                    SET name = $2, market = $3, category = $4, display_order = $5, is_active = TRUE, updated_at = NOW()
                    WHERE id = $1`,
					id, t.Name, string(t.Market), string(t.Category), t.DisplayOrder)
				if err != nil {
					return fmt.Errorf("failed to update ticker %s: %w", t.Code, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.WithField("tickers_count", len(tickers)).Info("Upserted tickers")
	return nil
}

func (r *TickerRepository) Deactivate(ctx context.Context, code string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tickers SET is_active = FALSE, updated_at = NOW() WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to deactivate ticker: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("ticker %s not found", code)
	}
	return nil
}

func (r *TickerRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Ticker, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []models.Ticker
	for rows.Next() {
		var (
			t                models.Ticker
			market, category string
		)
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &market, &category,
			&t.DisplayOrder, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		t.Market = models.Market(market)
		t.Category = models.TickerCategory(category)
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickers: %w", err)
	}
	return tickers, nil
}
