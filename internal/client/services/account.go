package services

import (
	"context"
	"errors"
	"fmt"

	"filippo.io/age"
	"github.com/dmitrijs2005/taskjournal/internal/client/syncer"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/cryptox"
	"github.com/dmitrijs2005/taskjournal/internal/logging"
)

// ErrWrongEncryptionPassword means the account's identity could not be
// opened with the derived secret.
var ErrWrongEncryptionPassword = errors.New("wrong encryption password")

type UserInfoClient interface {
	GetUserInfo(ctx context.Context, username string) (*cryptox.UserInfo, error)
	PutUserInfo(ctx context.Context, info *cryptox.UserInfo) error
}

// AccountService turns an encryption password into the key material a sync
// pass needs.
type AccountService struct {
	client UserInfoClient
	logger logging.Logger
}

func NewAccountService(c UserInfoClient, l logging.Logger) *AccountService {
	return &AccountService{client: c, logger: l.With("module", "account")}
}

// Unlock derives the encryption secret of username and opens the account
// identity, creating it on first use.
func (s *AccountService) Unlock(ctx context.Context, username string, encryptionPassword []byte) (syncer.Account, error) {
	if username == "" {
		return syncer.Account{}, syncer.ErrUsernameRequired
	}
	if len(encryptionPassword) == 0 {
		return syncer.Account{}, syncer.ErrEncryptionPasswordRequired
	}

	secret := cryptox.DeriveEncryptionSecret(encryptionPassword, username)

	identity, err := s.EnsureUserInfo(ctx, username, secret)
	if err != nil {
		common.WipeByteArray(secret)
		return syncer.Account{}, err
	}

	return syncer.Account{Username: username, Secret: secret, Identity: identity}, nil
}

// EnsureUserInfo returns the account identity stored on the server, or
// generates and uploads one when the account has none yet.
func (s *AccountService) EnsureUserInfo(ctx context.Context, username string, secret []byte) (*age.X25519Identity, error) {
	info, err := s.client.GetUserInfo(ctx, username)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		info, identity, err := cryptox.NewUserInfo(cryptox.CurrentVersion, secret)
		if err != nil {
			return nil, fmt.Errorf("create user info: %w", err)
		}
		if err := s.client.PutUserInfo(ctx, info); err != nil {
			return nil, fmt.Errorf("upload user info: %w", err)
		}
		s.logger.Info(ctx, "created user info", "username", username)
		return identity, nil

	case err != nil:
		return nil, fmt.Errorf("get user info: %w", err)
	}

	identity, err := info.Identity(secret)
	if errors.Is(err, cryptox.ErrIntegrity) {
		return nil, ErrWrongEncryptionPassword
	}
	if err != nil {
		return nil, fmt.Errorf("open user info: %w", err)
	}
	return identity, nil
}
