package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskjournal/internal/client/models"
	"github.com/dmitrijs2005/taskjournal/internal/client/syncer"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/cryptox"
	"github.com/dmitrijs2005/taskjournal/internal/journal"
	"github.com/dmitrijs2005/taskjournal/internal/logging"
	"github.com/google/uuid"
)

type CollectionClient interface {
	FetchJournal(ctx context.Context, uid string) (journal.Journal, error)
	CreateJournal(ctx context.Context, j journal.Journal) error
	UpdateJournal(ctx context.Context, uid string, info journal.Entry) error
	DeleteJournal(ctx context.Context, uid string) error
	GetUserInfo(ctx context.Context, username string) (*cryptox.UserInfo, error)
	AddMember(ctx context.Context, uid, username string, wrappedKey []byte) error
}

type CollectionStore interface {
	Collections(ctx context.Context) ([]models.LocalCollection, error)
	Collection(ctx context.Context, uid string) (*models.LocalCollection, error)
	UpsertCollection(ctx context.Context, c models.LocalCollection) error
	DeleteCollection(ctx context.Context, uid string) error
}

// CollectionService manages task lists. Every change goes to the server
// first and is mirrored locally once accepted.
type CollectionService struct {
	client CollectionClient
	store  CollectionStore
	logger logging.Logger
}

func NewCollectionService(c CollectionClient, s CollectionStore, l logging.Logger) *CollectionService {
	return &CollectionService{client: c, store: s, logger: l.With("module", "collections")}
}

func (s *CollectionService) List(ctx context.Context) ([]models.LocalCollection, error) {
	return s.store.Collections(ctx)
}

// Create makes a new personal task list.
func (s *CollectionService) Create(ctx context.Context, acc syncer.Account, name, color string) (models.LocalCollection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.LocalCollection{}, fmt.Errorf("%w: list name is required", common.ErrorValidation)
	}

	uid := uuid.NewString()
	m, err := cryptox.Derive(cryptox.CurrentVersion, acc.Secret, uid)
	if err != nil {
		return models.LocalCollection{}, err
	}

	info, err := journal.SealInfo(journal.CollectionInfo{
		UID:         uid,
		Type:        common.CollectionTypeTasks,
		DisplayName: name,
		Color:       color,
	}, m)
	if err != nil {
		return models.LocalCollection{}, err
	}

	j := journal.Journal{
		UID:     uid,
		Version: cryptox.CurrentVersion,
		Owner:   acc.Username,
		Info:    info,
		Access:  journal.PersonalAccess{},
	}
	if err := s.client.CreateJournal(ctx, j); err != nil {
		return models.LocalCollection{}, fmt.Errorf("create journal: %w", err)
	}

	c := models.LocalCollection{UID: uid, Name: name, Color: color, Version: cryptox.CurrentVersion}
	if err := s.store.UpsertCollection(ctx, c); err != nil {
		return models.LocalCollection{}, err
	}

	s.logger.Info(ctx, "collection created", "collection", uid)
	return c, nil
}

// Rename replaces the display name, and the color when color is not empty.
func (s *CollectionService) Rename(ctx context.Context, acc syncer.Account, uid, name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: list name is required", common.ErrorValidation)
	}

	j, m, info, err := s.open(ctx, acc, uid)
	if err != nil {
		return err
	}

	info.DisplayName = name
	if color != "" {
		info.Color = color
	}

	sealed, err := journal.SealInfo(info, m)
	if err != nil {
		return err
	}
	if err := s.client.UpdateJournal(ctx, uid, sealed); err != nil {
		return fmt.Errorf("update journal: %w", err)
	}

	return s.store.UpsertCollection(ctx, models.LocalCollection{
		UID:     uid,
		Name:    info.DisplayName,
		Color:   info.Color,
		Version: j.Version,
		Shared:  j.Shared(),
	})
}

// Delete removes the list on the server and locally.
func (s *CollectionService) Delete(ctx context.Context, uid string) error {
	if err := s.client.DeleteJournal(ctx, uid); err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}
	if err := s.store.DeleteCollection(ctx, uid); err != nil {
		return err
	}
	s.logger.Info(ctx, "collection deleted", "collection", uid)
	return nil
}

// Share gives username access by wrapping the list key to their public key.
func (s *CollectionService) Share(ctx context.Context, acc syncer.Account, uid, username string) error {
	if username == "" || username == acc.Username {
		return fmt.Errorf("%w: share with another user", common.ErrorValidation)
	}

	_, m, _, err := s.open(ctx, acc, uid)
	if err != nil {
		return err
	}

	member, err := s.client.GetUserInfo(ctx, username)
	if err != nil {
		return fmt.Errorf("get user info of %s: %w", username, err)
	}
	recipient, err := member.Recipient()
	if err != nil {
		return err
	}

	wrapped, err := cryptox.Wrap(recipient, m.Key())
	if err != nil {
		return fmt.Errorf("wrap collection key: %w", err)
	}

	if err := s.client.AddMember(ctx, uid, username, wrapped); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	s.logger.Info(ctx, "collection shared", "collection", uid, "member", username)
	return nil
}

func (s *CollectionService) open(ctx context.Context, acc syncer.Account, uid string) (journal.Journal, *cryptox.Manager, journal.CollectionInfo, error) {
	j, err := s.client.FetchJournal(ctx, uid)
	if err != nil {
		return journal.Journal{}, nil, journal.CollectionInfo{}, fmt.Errorf("fetch journal: %w", err)
	}
	m, err := j.Crypto(acc.Secret, acc.Identity)
	if err != nil {
		return journal.Journal{}, nil, journal.CollectionInfo{}, err
	}
	info, err := journal.OpenInfo(uid, j.Info, m)
	if err != nil {
		return journal.Journal{}, nil, journal.CollectionInfo{}, err
	}
	return j, m, info, nil
}
