package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/dbx"
)

// Table names a record table created by the client migrations.
type Table string

const (
	TableNotes Table = "notes"
	TableTasks Table = "tasks"
)

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const columns = `local_id, server_id, client_id, owner_id, fields, created_at, updated_at,
	sync_status, pending_action, attempts, last_error, next_attempt_at`

// SQLiteRepository implements Repository over one record table.
type SQLiteRepository[F any] struct {
	db    *sql.DB
	table Table
}

func NewSQLiteRepository[F any](db *sql.DB, table Table) *SQLiteRepository[F] {
	return &SQLiteRepository[F]{db: db, table: table}
}

func NewNotesRepository(db *sql.DB) *SQLiteRepository[models.NoteFields] {
	return NewSQLiteRepository[models.NoteFields](db, TableNotes)
}

func NewTasksRepository(db *sql.DB) *SQLiteRepository[models.TaskFields] {
	return NewSQLiteRepository[models.TaskFields](db, TableTasks)
}

func (r *SQLiteRepository[F]) GetAllByOwner(ctx context.Context, ownerID string) ([]models.Record[F], error) {
	recs, err := r.selectByOwner(ctx, r.db, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", r.table, err)
	}
	return recs, nil
}

func (r *SQLiteRepository[F]) GetPending(ctx context.Context, ownerID string) ([]models.Record[F], error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE owner_id = ? AND sync_status != ? ORDER BY updated_at`, columns, r.table)

	recs, err := dbx.QueryAll(ctx, r.db, scanRecord[F], query, ownerID, models.SyncStatusSynced)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending %s: %w", r.table, err)
	}
	return recs, nil
}

func (r *SQLiteRepository[F]) GetByLocalID(ctx context.Context, localID string) (*models.Record[F], error) {
	return r.getByLocalID(ctx, r.db, localID)
}

func (r *SQLiteRepository[F]) ReplaceAllForOwner(ctx context.Context, ownerID string, recs []models.Record[F]) error {
	return r.Swap(ctx, ownerID, func([]models.Record[F]) ([]models.Record[F], error) {
		return recs, nil
	})
}

func (r *SQLiteRepository[F]) Swap(ctx context.Context, ownerID string, fn func(current []models.Record[F]) ([]models.Record[F], error)) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, err := r.selectByOwner(ctx, tx, ownerID)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE owner_id = ?`, r.table), ownerID); err != nil {
			return err
		}

		for _, rec := range next {
			if rec.OwnerID != ownerID {
				return fmt.Errorf("record %s belongs to %q, not %q", rec.LocalID, rec.OwnerID, ownerID)
			}
			if err := r.upsert(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace %s of %s: %w", r.table, ownerID, err)
	}
	return nil
}

func (r *SQLiteRepository[F]) Upsert(ctx context.Context, recs ...models.Record[F]) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, rec := range recs {
			if err := r.upsert(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", r.table, err)
	}
	return nil
}

func (r *SQLiteRepository[F]) Update(ctx context.Context, localID string, fn func(rec *models.Record[F]) (Outcome, error)) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rec, err := r.getByLocalID(ctx, tx, localID)
		if err != nil {
			return err
		}

		outcome, err := fn(rec)
		if err != nil {
			return err
		}

		switch outcome {
		case Save:
			if rec.LocalID != localID {
				return fmt.Errorf("local id of %s cannot change", localID)
			}
			return r.upsert(ctx, tx, *rec)
		case Remove:
			return r.delete(ctx, tx, localID)
		default:
			return nil
		}
	})
}

func (r *SQLiteRepository[F]) Delete(ctx context.Context, localID string) error {
	if err := r.delete(ctx, r.db, localID); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", r.table, localID, err)
	}
	return nil
}

func (r *SQLiteRepository[F]) selectByOwner(ctx context.Context, q dbx.DBTX, ownerID string) ([]models.Record[F], error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE owner_id = ?`, columns, r.table)
	return dbx.QueryAll(ctx, q, scanRecord[F], query, ownerID)
}

func (r *SQLiteRepository[F]) getByLocalID(ctx context.Context, q dbx.DBTX, localID string) (*models.Record[F], error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE local_id = ?`, columns, r.table)

	rec, err := scanRecord[F](q.QueryRowContext(ctx, query, localID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return &rec, nil
}

func (r *SQLiteRepository[F]) upsert(ctx context.Context, q dbx.DBTX, rec models.Record[F]) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("encode fields of %s: %w", rec.LocalID, err)
	}

	serverID := sql.NullInt64{Int64: rec.ServerID, Valid: rec.ServerID != 0}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(local_id) DO UPDATE SET
			server_id = excluded.server_id,
			client_id = excluded.client_id,
			owner_id = excluded.owner_id,
			fields = excluded.fields,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status,
			pending_action = excluded.pending_action,
			attempts = excluded.attempts,
			last_error = excluded.last_error,
			next_attempt_at = excluded.next_attempt_at`, r.table, columns)

	_, err = q.ExecContext(ctx, query,
		rec.LocalID, serverID, rec.ClientID, rec.OwnerID, string(fields),
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
		string(rec.SyncStatus), string(rec.PendingAction),
		rec.Attempts, rec.LastError, formatTime(rec.NextAttemptAt))
	if err != nil {
		return fmt.Errorf("write %s: %w", rec.LocalID, err)
	}
	return nil
}

func (r *SQLiteRepository[F]) delete(ctx context.Context, q dbx.DBTX, localID string) error {
	_, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE local_id = ?`, r.table), localID)
	return err
}

func scanRecord[F any](s dbx.RowScanner) (models.Record[F], error) {
	var (
		rec                           models.Record[F]
		serverID                      sql.NullInt64
		fields                        string
		created, updated, nextAttempt string
		status, action                string
	)

	err := s.Scan(&rec.LocalID, &serverID, &rec.ClientID, &rec.OwnerID, &fields,
		&created, &updated, &status, &action, &rec.Attempts, &rec.LastError, &nextAttempt)
	if err != nil {
		return rec, err
	}

	if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return rec, fmt.Errorf("decode fields of %s: %w", rec.LocalID, err)
	}

	rec.ServerID = serverID.Int64
	rec.SyncStatus = models.SyncStatus(status)
	rec.PendingAction = models.PendingAction(action)

	if rec.CreatedAt, err = parseTime(created); err != nil {
		return rec, err
	}
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return rec, err
	}
	if rec.NextAttemptAt, err = parseTime(nextAttempt); err != nil {
		return rec, err
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
