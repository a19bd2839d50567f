package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/dbx"
	"github.com/dmitrijs2005/notesync/internal/server/models"
)

const columns = "id, owner_id, client_id, data, created_at, updated_at"

// PostgresRepository implements Repository for one table. The table name
// is never taken from user input; see models.Collections.
type PostgresRepository struct {
	db    dbx.DBTX
	table string
}

func NewPostgresRepository(db dbx.DBTX, table string) *PostgresRepository {
	return &PostgresRepository{db: db, table: table}
}

func scanRecord(row dbx.RowScanner) (models.Record, error) {
	var (
		r    models.Record
		data []byte
	)
	if err := row.Scan(&r.ID, &r.OwnerID, &r.ClientID, &data, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return models.Record{}, err
	}
	r.Data = json.RawMessage(data)
	return r, nil
}

func (r *PostgresRepository) List(ctx context.Context, ownerID string) ([]models.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE owner_id = $1 ORDER BY id`, columns, r.table)

	out, err := dbx.QueryAll(ctx, r.db, scanRecord, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Create(ctx context.Context, rec models.Record) (*models.Record, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, client_id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, client_id) WHERE client_id <> '' DO NOTHING
		RETURNING %s`, r.table, columns)

	out, err := scanRecord(r.db.QueryRowContext(ctx, query, rec.OwnerID, rec.ClientID, string(rec.Data)))
	switch {
	case err == nil:
		return &out, true, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, fmt.Errorf("db error: %w", err)
	}

	// the conflict clause swallowed the insert: hand back the original
	existing, err := r.GetByClientID(ctx, rec.OwnerID, rec.ClientID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PostgresRepository) GetByClientID(ctx context.Context, ownerID, clientID string) (*models.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE owner_id = $1 AND client_id = $2`, columns, r.table)

	out, err := scanRecord(r.db.QueryRowContext(ctx, query, ownerID, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, ownerID string, id int64, data json.RawMessage) (*models.Record, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET data = $3, updated_at = now()
		WHERE owner_id = $1 AND id = $2
		RETURNING %s`, r.table, columns)

	out, err := scanRecord(r.db.QueryRowContext(ctx, query, ownerID, id, string(data)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE owner_id = $1 AND id = $2`, r.table)

	res, err := r.db.ExecContext(ctx, query, ownerID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
