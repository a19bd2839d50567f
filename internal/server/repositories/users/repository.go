// Package users stores accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/notesync/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills ID and CreatedAt. A taken username
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
