package client

import (
	"context"

	"github.com/dmitrijs2005/notesync/internal/client/models"
)

// TokenPair is what the auth endpoints hand out.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Client is the auth and health surface of the server.
type Client interface {
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) (TokenPair, error)
	// Refresh rotates the token pair with the refresh token.
	Refresh(ctx context.Context) (TokenPair, error)
	Ping(ctx context.Context) error
	SetTokens(tokens TokenPair)
	Tokens() TokenPair
}

// Resource is one remote collection of records, e.g. /api/notes/.
type Resource[F any] interface {
	List(ctx context.Context) ([]models.Remote[F], error)
	Create(ctx context.Context, p models.Payload[F]) (*models.Remote[F], error)
	Update(ctx context.Context, serverID int64, p models.Payload[F]) (*models.Remote[F], error)
	Delete(ctx context.Context, serverID int64) error
}
