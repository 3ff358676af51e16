package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/paaavkata/stock-dashboard/pkg/database"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

const upsertChunkSize = 500

type MarketDataRepository struct {
	db     *database.DB
	logger *logrus.Logger
}

func NewMarketDataRepository(db *database.DB, logger *logrus.Logger) *MarketDataRepository {
	return &MarketDataRepository{
		db:     db,
		logger: logger,
	}
}

const priceColumns = `id, ticker_code, trade_date, open_price, high_price, low_price, close_price, volume, change_rate, created_at`

// FindByTickerAndDateRange returns rows with startDate <= trade_date <= endDate,
// oldest first. Dates are YYYY-MM-DD.
func (r *MarketDataRepository) FindByTickerAndDateRange(ctx context.Context, tickerCode, startDate, endDate string) ([]models.PriceRow, error) {
	query := `SELECT ` + priceColumns + `
        FROM market_data
        WHERE ticker_code = $1 AND trade_date >= $2 AND trade_date <= $3
        ORDER BY trade_date ASC`

	rows, err := r.db.QueryContext(ctx, query, tickerCode, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query market data: %w", err)
	}
	defer rows.Close()

	var result []models.PriceRow
	for rows.Next() {
		row, err := scanPriceRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate market data: %w", err)
	}

	return result, nil
}

func (r *MarketDataRepository) FindLatestByTicker(ctx context.Context, tickerCode string) (*models.PriceRow, error) {
	query := `SELECT ` + priceColumns + `
        FROM market_data
        WHERE ticker_code = $1
        ORDER BY trade_date DESC
        LIMIT 1`

	row, err := scanPriceRow(r.db.QueryRowContext(ctx, query, tickerCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *MarketDataRepository) Exists(ctx context.Context, tickerCode, tradeDate string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM market_data WHERE ticker_code = $1 AND trade_date = $2)`,
		tickerCode, tradeDate,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check market data: %w", err)
	}
	return exists, nil
}

// GetCachedDateRange reports the oldest and newest cached dates of a ticker.
// ok is false when nothing is cached.
func (r *MarketDataRepository) GetCachedDateRange(ctx context.Context, tickerCode string) (oldest, newest string, ok bool, err error) {
	var minDate, maxDate sql.NullTime
	err = r.db.QueryRowContext(ctx,
		`SELECT MIN(trade_date), MAX(trade_date) FROM market_data WHERE ticker_code = $1`,
		tickerCode,
	).Scan(&minDate, &maxDate)
	if err != nil {
		return "", "", false, fmt.Errorf("failed to get cached date range: %w", err)
	}
	if !minDate.Valid || !maxDate.Valid {
		return "", "", false, nil
	}
	return minDate.Time.Format(time.DateOnly), maxDate.Time.Format(time.DateOnly), true, nil
}

// UpsertPrices inserts or replaces rows keyed by (ticker_code, trade_date).
// Later duplicates in the batch win. Returns the number of rows written.
func (r *MarketDataRepository) UpsertPrices(ctx context.Context, data []models.PriceRow) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	start := time.Now()
	rows := dedupePriceRows(data)

	byTicker := make(map[string][]models.PriceRow)
	for _, row := range rows {
		byTicker[row.TickerCode] = append(byTicker[row.TickerCode], row)
	}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for ticker, tickerRows := range byTicker {
			for i := 0; i < len(tickerRows); i += upsertChunkSize {
				end := i + upsertChunkSize
				if end > len(tickerRows) {
					end = len(tickerRows)
				}
				if err := replaceChunk(ctx, tx, ticker, tickerRows[i:end]); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to upsert market data")
		return 0, err
	}

	r.logger.WithFields(logrus.Fields{
		"records_count": len(rows),
		"tickers":       len(byTicker),
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("Upserted market data")

	return len(rows), nil
}

func replaceChunk(ctx context.Context, tx *sql.Tx, ticker string, rows []models.PriceRow) error {
	placeholders := make([]string, 0, len(rows))
	deleteArgs := make([]interface{}, 0, len(rows)+1)
	deleteArgs = append(deleteArgs, ticker)
	for i, row := range rows {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		deleteArgs = append(deleteArgs, row.TradeDate)
	}

	deleteQuery := `DELETE FROM market_data WHERE ticker_code = $1 AND trade_date IN (` + strings.Join(placeholders, ", ") + `)`
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("failed to delete replaced market data: %w", err)
	}

	query := `
        INSERT INTO market_data (ticker_code, trade_date, open_price, high_price, low_price, close_price, volume, change_rate)
        VALUES `

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*8)
	for i, row := range rows {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			i*8+1, i*8+2, i*8+3, i*8+4, i*8+5, i*8+6, i*8+7, i*8+8))

		args = append(args, row.TickerCode, row.TradeDate,
			database.NewDecimal(row.Open), database.NewDecimal(row.High),
			database.NewDecimal(row.Low), database.NewDecimal(row.Close),
			row.Volume, row.ChangeRate)
	}

	if _, err := tx.ExecContext(ctx, query+strings.Join(values, ", "), args...); err != nil {
		return fmt.Errorf("failed to insert market data: %w", err)
	}
	return nil
}

// DeleteOlderThan removes rows whose trade_date is strictly before cutoffDate.
func (r *MarketDataRepository) DeleteOlderThan(ctx context.Context, cutoffDate string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM market_data WHERE trade_date < $1`, cutoffDate)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup market data: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithFields(logrus.Fields{
		"rows_deleted": rowsAffected,
		"cutoff_date":  cutoffDate,
	}).Info("Cleaned up old market data")

	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPriceRow(s rowScanner) (models.PriceRow, error) {
	var (
		row                    models.PriceRow
		tradeDate              time.Time
		open, high, low, closePrice database.Decimal
	)

	err := s.Scan(&row.ID, &row.TickerCode, &tradeDate, &open, &high, &low, &closePrice,
		&row.Volume, &row.ChangeRate, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return row, err
		}
		return row, fmt.Errorf("failed to scan market data: %w", err)
	}

	row.TradeDate = tradeDate.Format(time.DateOnly)
	row.Open = open.Float64()
	row.High = high.Float64()
	row.Low = low.Float64()
	row.Close = closePrice.Float64()
	return row, nil
}

func dedupePriceRows(data []models.PriceRow) []models.PriceRow {
	type key struct{ ticker, date string }

	latest := make(map[key]int, len(data))
	for i, row := range data {
		latest[key{row.TickerCode, row.TradeDate}] = i
	}

	out := make([]models.PriceRow, 0, len(latest))
	for i, row := range data {
		if latest[key{row.TickerCode, row.TradeDate}] == i {
			out = append(out, row)
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].TickerCode != out[b].TickerCode {
			return out[a].TickerCode < out[b].TickerCode
		}
		return out[a].TradeDate < out[b].TradeDate
	})
	return out
}
