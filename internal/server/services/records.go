package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/server/models"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/records"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/repomanager"
)

// RecordService serves the notes and tasks collections. An unknown
// collection behaves like a missing record.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager) *RecordService {
	return &RecordService{db: db, repomanager: m}
}

func (s *RecordService) repo(collection string) (records.Repository, error) {
	if !models.IsCollection(collection) {
		return nil, fmt.Errorf("collection %q: %w", collection, common.ErrorNotFound)
	}
	return s.repomanager.Records(s.db, collection), nil
}

func (s *RecordService) List(ctx context.Context, collection, ownerID string) ([]models.Record, error) {
	repo, err := s.repo(collection)
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, ownerID)
}

// Create stores body as a new record. Repeating a create with the same
// client_id returns the first record and created == false.
func (s *RecordService) Create(ctx context.Context, collection, ownerID string, body []byte) (*models.Record, bool, error) {
	repo, err := s.repo(collection)
	if err != nil {
		return nil, false, err
	}

	clientID, data, err := models.ParseBody(body)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}

	return repo.Create(ctx, models.Record{OwnerID: ownerID, ClientID: clientID, Data: data})
}

// Update replaces the fields of record id. The client_id of a stored
// record never changes.
func (s *RecordService) Update(ctx context.Context, collection, ownerID string, id int64, body []byte) (*models.Record, error) {
	repo, err := s.repo(collection)
	if err != nil {
		return nil, err
	}

	_, data, err := models.ParseBody(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}

	return repo.Update(ctx, ownerID, id, data)
}

func (s *RecordService) Delete(ctx context.Context, collection, ownerID string, id int64) error {
	repo, err := s.repo(collection)
	if err != nil {
		return err
	}
	return repo.Delete(ctx, ownerID, id)
}
