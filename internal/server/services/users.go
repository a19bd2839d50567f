// Package services holds the business logic of the server: accounts and
// tokens, and the owner-scoped record collections.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/cryptox"
	"github.com/dmitrijs2005/notesync/internal/dbx"
	"github.com/dmitrijs2005/notesync/internal/server/auth"
	"github.com/dmitrijs2005/notesync/internal/server/config"
	"github.com/dmitrijs2005/notesync/internal/server/models"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/repomanager"
)

const (
	MaxUsernameLength = 150
	MinPasswordLength = 8
)

// TokenPair is what login and refresh hand out.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	hashParams                   cryptox.HashParams
	now                          func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		hashParams:                   cryptox.DefaultHashParams(),
		now:                          time.Now,
	}
}

// Register creates an account. A taken username yields
// common.ErrorAlreadyExists, bad input common.ErrorValidation.
func (s *UserService) Register(ctx context.Context, username string, password []byte) (*models.User, error) {
	username = strings.TrimSpace(username)

	switch {
	case username == "":
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	case len(username) > MaxUsernameLength:
		return nil, fmt.Errorf("%w: username is longer than %d characters", common.ErrorValidation, MaxUsernameLength)
	case len(password) < MinPasswordLength:
		return nil, fmt.Errorf("%w: password must have at least %d characters", common.ErrorValidation, MinPasswordLength)
	}

	user := &models.User{
		UserName:     username,
		PasswordHash: cryptox.HashPassword(password, s.hashParams),
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login checks the password and issues a token pair. Unknown users and
// wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, userName string, password []byte) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, strings.TrimSpace(userName))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	ok, err := cryptox.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.RefreshTokens(tx).DeleteExpired(ctx, user.ID, s.now()); err != nil {
			return err
		}
		pair, err = s.generateTokenPair(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, common.ErrorInternal
	}

	return pair, nil
}

// RefreshToken trades a refresh token for a new pair. The old token is
// consumed whether or not it is still valid.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var (
		pair    *TokenPair
		expired bool
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			return err
		}
		// commit the delete of an expired token, just issue nothing
		if token.Expires.Before(s.now()) {
			expired = true
			return nil
		}

		pair, err = s.generateTokenPair(ctx, tx, token.UserID)
		return err
	})

	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrorUnauthorized
	case err != nil:
		return nil, common.ErrorInternal
	case expired:
		return nil, common.ErrRefreshTokenExpired
	}

	return pair, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, tx dbx.DBTX, userID string) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	expires := s.now().Add(s.refreshTokenValidityDuration)
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, refreshToken, expires); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
