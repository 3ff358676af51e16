package quote

import (
	"context"
	"time"

	"github.com/paaavkata/stock-dashboard/internal/token"
	"github.com/paaavkata/stock-dashboard/pkg/kis"
)

// TokenIssuer lets the token manager issue KIS access tokens.
type TokenIssuer struct {
	client   *kis.Client
	location *time.Location
	now      func() time.Time
}

func NewTokenIssuer(client *kis.Client, location *time.Location) *TokenIssuer {
	return &TokenIssuer{
		client:   client,
		location: location,
		now:      time.Now,
	}
}

func (i *TokenIssuer) Validate() error {
	return i.client.Validate()
}

func (i *TokenIssuer) Issue(ctx context.Context) (*token.Issued, error) {
	resp, err := i.client.IssueToken(ctx)
	if err != nil {
		return nil, err
	}
	return &token.Issued{
		AccessToken: resp.AccessToken,
		ExpiresAt:   resp.ExpiresAt(i.location, i.now()),
	}, nil
}
