package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/cryptox"
	"github.com/dmitrijs2005/notesync/internal/dbx"
	"github.com/dmitrijs2005/notesync/internal/server/config"
	"github.com/dmitrijs2005/notesync/internal/server/models"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/records"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/users"
)

var (
	cheapParams = cryptox.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}
	fixedNow    = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newUserService(t *testing.T, db *sql.DB, rm *fakeRepoManager) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	s := NewUserService(db, rm, cfg)
	s.hashParams = cheapParams
	s.now = func() time.Time { return fixedNow }
	return s
}

type fakeUsersRepo struct {
	created   []*models.User
	createErr error

	byName map[string]*models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "u-new"
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeRefreshRepo struct {
	mu        sync.Mutex
	tokens    map[string]models.RefreshToken
	createErr error
	expiredOf []string
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID, token string, expires time.Time) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = models.RefreshToken{UserID: userID, Token: token, Expires: expires}
	return nil
}

func (f *fakeRefreshRepo) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.tokens, token)
	return &rt, nil
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiredOf = append(f.expiredOf, userID)
	return 0, nil
}

type fakeRecordsRepo struct {
	collection string
	rows       []models.Record
	nextID     int64
}

func (f *fakeRecordsRepo) List(ctx context.Context, ownerID string) ([]models.Record, error) {
	out := []models.Record{}
	for _, r := range f.rows {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordsRepo) Create(ctx context.Context, rec models.Record) (*models.Record, bool, error) {
	if rec.ClientID != "" {
		if existing, err := f.GetByClientID(ctx, rec.OwnerID, rec.ClientID); err == nil {
			return existing, false, nil
		}
	}
	f.nextID++
	rec.ID = f.nextID
	rec.CreatedAt, rec.UpdatedAt = fixedNow, fixedNow
	f.rows = append(f.rows, rec)
	return &rec, true, nil
}

func (f *fakeRecordsRepo) GetByClientID(ctx context.Context, ownerID, clientID string) (*models.Record, error) {
	for _, r := range f.rows {
		if r.OwnerID == ownerID && r.ClientID == clientID {
			return &r, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRecordsRepo) Update(ctx context.Context, ownerID string, id int64, data json.RawMessage) (*models.Record, error) {
	for i, r := range f.rows {
		if r.OwnerID == ownerID && r.ID == id {
			f.rows[i].Data = data
			f.rows[i].UpdatedAt = fixedNow.Add(time.Hour)
			out := f.rows[i]
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRecordsRepo) Delete(ctx context.Context, ownerID string, id int64) error {
	for i, r := range f.rows {
		if r.OwnerID == ownerID && r.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

type fakeRepoManager struct {
	u       *fakeUsersRepo
	r       *fakeRefreshRepo
	records map[string]*fakeRecordsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u: &fakeUsersRepo{byName: map[string]*models.User{}},
		r: newFakeRefreshRepo(),
		records: map[string]*fakeRecordsRepo{
			"notes": {collection: "notes"},
			"tasks": {collection: "tasks"},
		},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Records(db dbx.DBTX, collection string) records.Repository {
	return m.records[collection]
}
