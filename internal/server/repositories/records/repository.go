// Package records stores the owner-scoped notes and tasks collections.
package records

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/notesync/internal/server/models"
)

// Repository is one collection table. Every call is scoped to an owner;
// rows of other owners behave as missing.
type Repository interface {
	List(ctx context.Context, ownerID string) ([]models.Record, error)

	// Create inserts rec unless the owner already has a record with the
	// same non-empty client_id. In that case the stored record is
	// returned and created is false.
	Create(ctx context.Context, rec models.Record) (out *models.Record, created bool, err error)

	GetByClientID(ctx context.Context, ownerID, clientID string) (*models.Record, error)

	// Update replaces the domain fields and bumps updated_at.
	Update(ctx context.Context, ownerID string, id int64, data json.RawMessage) (*models.Record, error)

	Delete(ctx context.Context, ownerID string, id int64) error
}
