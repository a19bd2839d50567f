package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/notesync/internal/client/client"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func accessToken(t *testing.T, userID any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

// fakeClient implements client.Client for the session tests.
type fakeClient struct {
	mu     sync.Mutex
	tokens client.TokenPair

	RegisterErr error
	LoginRet    client.TokenPair
	LoginErr    error
	RefreshRet  client.TokenPair
	RefreshErr  error
	PingErr     error

	LastRegisterUser string
	LastLoginUser    string
	LastLoginPass    []byte
}

func (f *fakeClient) Register(ctx context.Context, username string, password []byte) error {
	f.LastRegisterUser = username
	return f.RegisterErr
}

func (f *fakeClient) Login(ctx context.Context, username string, password []byte) (client.TokenPair, error) {
	f.LastLoginUser = username
	f.LastLoginPass = append([]byte(nil), password...)
	if f.LoginErr != nil {
		return client.TokenPair{}, f.LoginErr
	}
	f.SetTokens(f.LoginRet)
	return f.LoginRet, nil
}

func (f *fakeClient) Refresh(ctx context.Context) (client.TokenPair, error) {
	if f.RefreshErr != nil {
		return client.TokenPair{}, f.RefreshErr
	}
	f.SetTokens(f.RefreshRet)
	return f.RefreshRet, nil
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.PingErr }

func (f *fakeClient) SetTokens(p client.TokenPair) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = p
}

func (f *fakeClient) Tokens() client.TokenPair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens
}
