package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/paaavkata/stock-dashboard/pkg/database"
	"github.com/paaavkata/stock-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

type NewsRepository struct {
	db     *database.DB
	logger *logrus.Logger
}

func NewNewsRepository(db *database.DB, logger *logrus.Logger) *NewsRepository {
	return &NewsRepository{
		db:     db,
		logger: logger,
	}
}

// ContentHash identifies an article by title and link.
func ContentHash(title, link string) string {
	sum := sha256.Sum256([]byte(title + ":" + link))
	return hex.EncodeToString(sum[:])
}

const newsColumns = `id, title, link, original_link, description, source, category, published_at, content_hash, created_at`

// SaveArticles inserts articles whose content hash is not stored yet and
// returns how many were inserted.
func (r *NewsRepository) SaveArticles(ctx context.Context, articles []models.NewsArticle) (int, error) {
	inserted := 0
	for i := range articles {
		a := &articles[i]
		if a.ContentHash == "" {
			a.ContentHash = ContentHash(a.Title, a.Link)
		}
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}

		exists, err := r.ExistsByHash(ctx, a.ContentHash)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}

		_, err = r.db.ExecContext(ctx, `
            INSERT INTO news_articles (id, title, link, original_link, description, source, category, published_at, content_hash)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.ID, a.Title, a.Link, a.OriginalLink, a.Description, a.Source, string(a.Category), a.PublishedAt, a.ContentHash,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				continue
			}
			return inserted, fmt.Errorf("failed to insert news article: %w", err)
		}
		inserted++
	}

	r.logger.WithFields(logrus.Fields{
		"received": len(articles),
		"inserted": inserted,
	}).Debug("Saved news articles")

	return inserted, nil
}

func (r *NewsRepository) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM news_articles WHERE content_hash = $1)`, hash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check news article: %w", err)
	}
	return exists, nil
}

func (r *NewsRepository) FindByCategory(ctx context.Context, category models.NewsCategory, limit, offset int) ([]models.NewsArticle, error) {
	return r.query(ctx, `SELECT `+newsColumns+`
        FROM news_articles
        WHERE category = $1
        ORDER BY published_at DESC
        LIMIT $2 OFFSET $3`, string(category), limit, offset)
}

// Search matches keyword against titles and descriptions, newest first.
func (r *NewsRepository) Search(ctx context.Context, keyword string, limit int) ([]models.NewsArticle, error) {
	pattern := "%" + keyword + "%"
	return r.query(ctx, `SELECT `+newsColumns+`
        FROM news_articles
        WHERE title ILIKE $1 OR description ILIKE $1
        ORDER BY published_at DESC
        LIMIT $2`, pattern, limit)
}

// DeleteOlderThan removes articles published before cutoff.
func (r *NewsRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news_articles WHERE published_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup news articles: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithFields(logrus.Fields{
		"rows_deleted": rowsAffected,
		"cutoff_time":  cutoff,
	}).Info("Cleaned up old news articles")

	return rowsAffected, nil
}

func (r *NewsRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.NewsArticle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query news articles: %w", err)
	}
	defer rows.Close()

	var articles []models.NewsArticle
	for rows.Next() {
		var (
			a                                 models.NewsArticle
			category                          string
			originalLink, description, source sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Link, &originalLink, &description, &source,
			&category, &a.PublishedAt, &a.ContentHash, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan news article: %w", err)
		}
		a.Category = models.NewsCategory(category)
		a.OriginalLink = originalLink.String
		a.Description = description.String
		a.Source = source.String
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate news articles: %w", err)
	}
	return articles, nil
}
