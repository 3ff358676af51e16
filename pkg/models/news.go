package models

import (
	"time"

	"github.com/google/uuid"
)

type NewsCategory string

const (
	NewsCosmax      NewsCategory = "cosmax"
	NewsCompetitors NewsCategory = "competitors"
	NewsKBeauty     NewsCategory = "kbeauty"
)

// NewsArticle is one news_articles row, unique on ContentHash.
type NewsArticle struct {
	ID           uuid.UUID    `db:"id"`
	Title        string       `db:"title"`
	Link         string       `db:"link"`
	OriginalLink string       `db:"original_link"`
	Description  string       `db:"description"`
	Source       string       `db:"source"`
	Category     NewsCategory `db:"category"`
	PublishedAt  time.Time    `db:"published_at"`
	ContentHash  string       `db:"content_hash"`
	CreatedAt    time.Time    `db:"created_at"`
}

// NewsItem is a cleaned search result as served to clients.
type NewsItem struct {
	Title        string    `json:"title"`
	Link         string    `json:"link"`
	OriginalLink string    `json:"originalLink"`
	Description  string    `json:"description"`
	Source       string    `json:"source"`
	PubDate      time.Time `json:"pubDate"`
	RelativeTime string    `json:"relativeTime"`
}

type NewsSection struct {
	Category NewsCategory `json:"id" yaml:"id"`
	Title    string       `json:"title" yaml:"title"`
	Keywords []string     `json:"keywords" yaml:"keywords"`
}

type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

type NewsPage struct {
	Category   NewsCategory `json:"category"`
	Title      string       `json:"title"`
	Items      []NewsItem   `json:"items"`
	Pagination Pagination   `json:"pagination"`
}
