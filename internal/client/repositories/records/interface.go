package records

import (
	"context"

	"github.com/dmitrijs2005/notesync/internal/client/models"
)

// Outcome tells Update what to do with the row after the callback ran.
type Outcome int

const (
	// Save writes the modified record back.
	Save Outcome = iota
	// Remove deletes the row.
	Remove
	// Leave keeps the row as it was.
	Leave
)

// Repository stores the records of one entity kind.
type Repository[F any] interface {
	// GetAllByOwner returns every row of owner, tombstones included.
	GetAllByOwner(ctx context.Context, ownerID string) ([]models.Record[F], error)
	// GetPending returns the owner's rows that are not synced.
	GetPending(ctx context.Context, ownerID string) ([]models.Record[F], error)
	// GetByLocalID returns common.ErrorNotFound when the row does not exist.
	GetByLocalID(ctx context.Context, localID string) (*models.Record[F], error)
	// ReplaceAllForOwner atomically replaces the owner's partition.
	ReplaceAllForOwner(ctx context.Context, ownerID string, recs []models.Record[F]) error
	// Swap reads the owner's partition and replaces it with fn's result
	// in one transaction.
	Swap(ctx context.Context, ownerID string, fn func(current []models.Record[F]) ([]models.Record[F], error)) error
	Upsert(ctx context.Context, recs ...models.Record[F]) error
	// Update loads one row, lets fn change it and applies fn's Outcome, all
	// in one transaction. Returns common.ErrorNotFound when the row is gone.
	Update(ctx context.Context, localID string, fn func(rec *models.Record[F]) (Outcome, error)) error
	Delete(ctx context.Context, localID string) error
}
