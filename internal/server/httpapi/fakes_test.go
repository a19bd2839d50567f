package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/server/auth"
	"github.com/dmitrijs2005/notesync/internal/server/models"
	"github.com/dmitrijs2005/notesync/internal/server/services"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func accessToken(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return tok
}

// fakeUsers knows alice/correct horse and the refresh token "r-alice".
type fakeUsers struct {
	t          *testing.T
	registered []string
}

func (f *fakeUsers) Register(ctx context.Context, username string, password []byte) (*models.User, error) {
	switch {
	case username == "":
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	case username == "alice":
		return nil, common.ErrorAlreadyExists
	case username == "crash":
		return nil, fmt.Errorf("db down")
	}
	f.registered = append(f.registered, username)
	return &models.User{ID: "u-" + username, UserName: username}, nil
}

func (f *fakeUsers) Login(ctx context.Context, username string, password []byte) (*services.TokenPair, error) {
	if username != "alice" || string(password) != "correct horse" {
		return nil, common.ErrorUnauthorized
	}
	return &services.TokenPair{AccessToken: accessToken(f.t, "u-alice"), RefreshToken: "r-alice"}, nil
}

func (f *fakeUsers) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	switch refreshToken {
	case "r-alice":
		return &services.TokenPair{AccessToken: accessToken(f.t, "u-alice"), RefreshToken: "r-alice-2"}, nil
	case "r-old":
		return nil, common.ErrRefreshTokenExpired
	}
	return nil, common.ErrorUnauthorized
}

// memRecords is an in-memory RecordService with the same create
// semantics as the real one.
type memRecords struct {
	mu     sync.Mutex
	rows   map[string][]models.Record
	nextID int64
}

func newMemRecords() *memRecords {
	return &memRecords{rows: map[string][]models.Record{}}
}

func (m *memRecords) List(ctx context.Context, collection, ownerID string) ([]models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Record
	for _, r := range m.rows[collection] {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecords) Create(ctx context.Context, collection, ownerID string, body []byte) (*models.Record, bool, error) {
	clientID, data, err := models.ParseBody(body)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[collection] {
		if clientID != "" && r.OwnerID == ownerID && r.ClientID == clientID {
			return &r, false, nil
		}
	}
	m.nextID++
	rec := models.Record{ID: m.nextID, OwnerID: ownerID, ClientID: clientID, Data: data, CreatedAt: t0, UpdatedAt: t0}
	m.rows[collection] = append(m.rows[collection], rec)
	return &rec, true, nil
}

func (m *memRecords) Update(ctx context.Context, collection, ownerID string, id int64, body []byte) (*models.Record, error) {
	_, data, err := models.ParseBody(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows[collection] {
		if r.OwnerID == ownerID && r.ID == id {
			m.rows[collection][i].Data = json.RawMessage(data)
			m.rows[collection][i].UpdatedAt = t0.Add(time.Hour)
			out := m.rows[collection][i]
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memRecords) Delete(ctx context.Context, collection, ownerID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[collection]
	for i, r := range rows {
		if r.OwnerID == ownerID && r.ID == id {
			m.rows[collection] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

type fixture struct {
	ts      *httptest.Server
	users   *fakeUsers
	records *memRecords
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	if opts.SecretKey == "" {
		opts.SecretKey = testSecret
	}

	f := &fixture{users: &fakeUsers{t: t}, records: newMemRecords()}
	s := NewServer("127.0.0.1:0", logging.Discard(), f.users, f.records, opts)
	f.ts = httptest.NewServer(s.Handler())
	t.Cleanup(f.ts.Close)
	return f
}
