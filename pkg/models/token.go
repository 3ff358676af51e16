package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenRecord is the single live bearer token of a provider.
type TokenRecord struct {
	ID          uuid.UUID `db:"id"`
	Provider    string    `db:"provider"`
	AccessToken string    `db:"access_token"`
	IssuedAt    time.Time `db:"issued_at"`
	ExpiresAt   time.Time `db:"expires_at"`
	CreatedAt   time.Time `db:"created_at"`
}

type TokenInfo struct {
	HasToken  bool       `json:"hasToken"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	IssuedAt  *time.Time `json:"issuedAt,omitempty"`
}
