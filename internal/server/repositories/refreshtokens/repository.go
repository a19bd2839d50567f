// Package refreshtokens declares the server-side repository contract for
// opaque refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notesync/internal/server/models"
)

// Repository issues and rotates refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID that expires at expires.
	Create(ctx context.Context, userID string, token string, expires time.Time) error

	// Consume deletes token and returns what it held, so a token can be
	// traded in exactly once. An unknown token yields common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteExpired removes the tokens of userID that expired before now.
	DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error)
}
