// Package records is the local record store of the sync client.
//
// Each entity kind lives in its own SQLite table ("notes", "tasks") with
// the same layout: identity and sync bookkeeping in columns, the domain
// fields as one JSON document. Rows are partitioned by owner.
//
// Swap and Update run their read and write inside one transaction, which
// is what the merge and the flush rely on to avoid losing a concurrent
// local edit.
//
//	repo := records.NewNotesRepository(db)
//	pending, _ := repo.GetPending(ctx, owner)
//	_ = repo.Swap(ctx, owner, func(cur []models.Note) ([]models.Note, error) {
//	    return merged(cur), nil
//	})
package records
