// Package services contains the application services behind the task CLI.
// This file defines the authentication service: online/offline login,
// register, session restore and housekeeping of local auth metadata.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskjournal/internal/client/client"
	"github.com/dmitrijs2005/taskjournal/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/cryptox"
	"github.com/dmitrijs2005/taskjournal/internal/dbx"
)

// AuthClient is the part of the transport used for authentication.
type AuthClient interface {
	Register(ctx context.Context, username string, salt []byte, verifier []byte) error
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifier []byte) error
	Ping(ctx context.Context) error
	Close() error
	SetTokens(accessToken, refreshToken string)
	Tokens() (string, string)
}

// AuthService defines authentication operations for the CLI.
type AuthService interface {
	OfflineLogin(ctx context.Context, username string, password []byte) ([]byte, error)
	OnlineLogin(ctx context.Context, username string, password []byte) ([]byte, error)
	Register(ctx context.Context, username string, password []byte) error
	RestoreSession(ctx context.Context) (string, error)
	SaveTokens(ctx context.Context, accessToken, refreshToken string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	ClearOfflineData(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote client
// and a local SQL database for offline metadata.
type authService struct {
	client AuthClient
	db     *sql.DB
}

func NewAuthService(client AuthClient, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) getMetadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func localValue(ctx context.Context, repo metadata.Repository, key string) ([]byte, error) {
	v, err := repo.Get(ctx, key)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, client.ErrLocalDataNotAvailable
	}
	return v, err
}

// OfflineLogin derives a master key from (password,salt) stored locally
// and verifies it against the locally cached verifier. Returns the master key
// on success. If local data is missing, returns client.ErrLocalDataNotAvailable;
// if verification fails, returns client.ErrUnauthorized.
func (a *authService) OfflineLogin(ctx context.Context, username string, password []byte) ([]byte, error) {
	metadataRepo := a.getMetadataRepo(a.db)

	savedUsername, err := localValue(ctx, metadataRepo, metadata.KeyUsername)
	if err != nil {
		return nil, err
	}
	if string(savedUsername) != username {
		return nil, client.ErrUnauthorized
	}

	savedSalt, err := localValue(ctx, metadataRepo, metadata.KeySalt)
	if err != nil {
		return nil, err
	}
	savedVerifier, err := localValue(ctx, metadataRepo, metadata.KeyVerifier)
	if err != nil {
		return nil, err
	}

	masterKeyCandidate := cryptox.DeriveMasterKey(password, savedSalt)
	verifierCandidate := cryptox.MakeVerifier(masterKeyCandidate)

	if subtle.ConstantTimeCompare(savedVerifier, verifierCandidate) == 0 {
		return nil, client.ErrUnauthorized
	}
	return masterKeyCandidate, nil
}

// OnlineLogin authenticates against the server, saves offline metadata
// (username, salt, verifier, tokens), and returns the derived master key.
func (a *authService) OnlineLogin(ctx context.Context, userName string, password []byte) ([]byte, error) {
	salt, err := a.client.GetSalt(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("get salt error: %w", err)
	}

	masterKeyCandidate := cryptox.DeriveMasterKey(password, salt)
	verifierCandidate := cryptox.MakeVerifier(masterKeyCandidate)

	if err := a.client.Login(ctx, userName, verifierCandidate); err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := a.saveOfflineData(ctx, userName, salt, verifierCandidate); err != nil {
		return nil, fmt.Errorf("offline data saving error: %w", err)
	}
	return masterKeyCandidate, nil
}

// saveOfflineData persists the auth metadata of a fresh online login in a
// single transaction. Data of a previous account is dropped first.
func (a *authService) saveOfflineData(ctx context.Context, userName string, salt []byte, verifier []byte) error {
	access, refresh := a.client.Tokens()

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		metadataRepo := a.getMetadataRepo(tx)

		previous, err := metadataRepo.Get(ctx, metadata.KeyUsername)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if err == nil && string(previous) != userName {
			if err := metadataRepo.Clear(ctx); err != nil {
				return err
			}
		}

		return metadataRepo.SetMany(ctx, map[string][]byte{
			metadata.KeyUsername:     []byte(userName),
			metadata.KeySalt:         salt,
			metadata.KeyVerifier:     verifier,
			metadata.KeyAccessToken:  []byte(access),
			metadata.KeyRefreshToken: []byte(refresh),
		})
	})
}

// Register creates a new account on the server. It generates a random salt,
// derives a master key from the provided password, computes a verifier,
// and sends salt/verifier to the server.
func (a *authService) Register(ctx context.Context, username string, password []byte) error {
	if username == "" || len(password) == 0 {
		return fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	salt := common.GenerateRandByteArray(32)
	key := cryptox.DeriveMasterKey(password, salt)
	defer common.WipeByteArray(key)
	verifier := cryptox.MakeVerifier(key)

	if err := a.client.Register(ctx, username, salt, verifier); err != nil {
		return err
	}
	return nil
}

// RestoreSession loads the tokens of the last online login into the client
// and returns the username they belong to.
func (a *authService) RestoreSession(ctx context.Context) (string, error) {
	values, err := a.getMetadataRepo(a.db).List(ctx)
	if err != nil {
		return "", err
	}

	username := string(values[metadata.KeyUsername])
	refresh := string(values[metadata.KeyRefreshToken])
	if username == "" || refresh == "" {
		return "", client.ErrLocalDataNotAvailable
	}

	a.client.SetTokens(string(values[metadata.KeyAccessToken]), refresh)
	return username, nil
}

// SaveTokens persists a refreshed token pair.
func (a *authService) SaveTokens(ctx context.Context, accessToken, refreshToken string) error {
	return a.getMetadataRepo(a.db).SetMany(ctx, map[string][]byte{
		metadata.KeyAccessToken:  []byte(accessToken),
		metadata.KeyRefreshToken: []byte(refreshToken),
	})
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

// ClearOfflineData wipes locally cached auth metadata (e.g., on logout).
func (a *authService) ClearOfflineData(ctx context.Context) error {
	return a.getMetadataRepo(a.db).Clear(ctx)
}
