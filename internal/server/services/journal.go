package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/dbx"
	"github.com/dmitrijs2005/taskjournal/internal/logging"
	"github.com/dmitrijs2005/taskjournal/internal/server/config"
	"github.com/dmitrijs2005/taskjournal/internal/server/models"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/repomanager"
)

// Archiver keeps a copy of a journal's chain before it is deleted.
type Archiver interface {
	Archive(ctx context.Context, j *models.Journal, entries []models.Entry) error
}

// JournalService stores journals and their entry chains. It never sees
// plaintext: entries are opaque ciphertext linked by client-computed UIDs.
// The one thing it enforces is that pushes extend the head the client
// expects.
type JournalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	archiver    Archiver
	maxFetch    int
	logger      logging.Logger
}

// NewJournalService builds the service. archiver may be nil.
func NewJournalService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, archiver Archiver, l logging.Logger) *JournalService {
	return &JournalService{
		db:          db,
		repomanager: m,
		archiver:    archiver,
		maxFetch:    cfg.MaxFetchLimit,
		logger:      l.With("module", "journals"),
	}
}

func (s *JournalService) List(ctx context.Context, userID string) ([]*models.Journal, error) {
	return s.repomanager.Journals(s.db).ListForUser(ctx, userID)
}

func (s *JournalService) Get(ctx context.Context, userID, uid string) (*models.Journal, error) {
	return s.repomanager.Journals(s.db).GetForUser(ctx, uid, userID)
}

// Create registers a new journal owned by userID.
func (s *JournalService) Create(ctx context.Context, userID string, j *models.Journal) error {
	if j.UID == "" || j.InfoUID == "" || len(j.InfoContent) == 0 || j.Version <= 0 {
		return fmt.Errorf("%w: journal uid, version and info are required", common.ErrorValidation)
	}
	j.OwnerID = userID
	j.Head = ""
	if err := s.repomanager.Journals(s.db).Create(ctx, j); err != nil {
		return fmt.Errorf("create journal %s: %w", j.UID, err)
	}
	s.logger.Info(ctx, "journal created", "journal", j.UID, "user", userID)
	return nil
}

// UpdateInfo replaces the encrypted collection info. Owner only.
func (s *JournalService) UpdateInfo(ctx context.Context, userID, uid, infoUID string, content, tag []byte) error {
	if infoUID == "" || len(content) == 0 {
		return fmt.Errorf("%w: info is required", common.ErrorValidation)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Journals(tx)
		if err := s.requireOwner(ctx, repo.LockHead, uid, userID); err != nil {
			return err
		}
		return repo.UpdateInfo(ctx, uid, infoUID, content, tag)
	})
}

// Delete removes a journal and its entries. Owner only. When archiving is
// configured the chain is archived first and a failed archive aborts the
// delete.
func (s *JournalService) Delete(ctx context.Context, userID, uid string) error {
	j, err := s.repomanager.Journals(s.db).GetForUser(ctx, uid, userID)
	if err != nil {
		return err
	}
	if j.OwnerID != userID {
		return common.ErrorForbidden
	}

	if s.archiver != nil {
		entries, err := s.repomanager.Entries(s.db).ListAfter(ctx, uid, 0, 0)
		if err != nil {
			return fmt.Errorf("load entries for archive: %w", err)
		}
		if err := s.archiver.Archive(ctx, j, entries); err != nil {
			return fmt.Errorf("archive journal %s: %w", uid, err)
		}
		s.logger.Info(ctx, "journal archived", "journal", uid, "entries", len(entries))
	}

	if err := s.repomanager.Journals(s.db).Delete(ctx, uid); err != nil {
		return fmt.Errorf("delete journal %s: %w", uid, err)
	}
	s.logger.Info(ctx, "journal deleted", "journal", uid, "user", userID)
	return nil
}

// FetchEntries returns up to limit entries strictly after afterUID, oldest
// first. A page shorter than limit is the end of the chain, so a limit
// outside 1..MaxFetchLimit is rejected rather than reduced.
func (s *JournalService) FetchEntries(ctx context.Context, userID, uid, afterUID string, limit int) ([]models.Entry, error) {
	if limit <= 0 || limit > s.maxFetch {
		return nil, fmt.Errorf("%w: fetch limit %d outside 1..%d", common.ErrorValidation, limit, s.maxFetch)
	}
	if _, err := s.repomanager.Journals(s.db).GetForUser(ctx, uid, userID); err != nil {
		return nil, err
	}

	entries := s.repomanager.Entries(s.db)
	var afterSeq int64
	if afterUID != "" {
		seq, err := entries.SeqOf(ctx, uid, afterUID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, fmt.Errorf("entry %s in journal %s: %w", afterUID, uid, common.ErrorNotFound)
			}
			return nil, err
		}
		afterSeq = seq
	}
	return entries.ListAfter(ctx, uid, afterSeq, limit)
}

// PushEntries appends entries if the journal head still equals
// expectedHead, otherwise returns common.ErrHeadConflict and stores nothing.
// The check and the append happen under a row lock on the journal.
func (s *JournalService) PushEntries(ctx context.Context, userID, uid, expectedHead string, batch []models.Entry) (string, error) {
	if len(batch) == 0 {
		return "", fmt.Errorf("%w: no entries", common.ErrorValidation)
	}

	var newHead string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		journals := s.repomanager.Journals(tx)
		if _, err := journals.GetForUser(ctx, uid, userID); err != nil {
			return err
		}

		_, head, err := journals.LockHead(ctx, uid)
		if err != nil {
			return err
		}
		if head != expectedHead {
			return fmt.Errorf("%w: journal %s head is %q, client expected %q", common.ErrHeadConflict, uid, head, expectedHead)
		}

		entries := s.repomanager.Entries(tx)
		lastSeq, err := entries.LastSeq(ctx, uid)
		if err != nil {
			return err
		}
		if err := entries.Append(ctx, uid, lastSeq, batch); err != nil {
			return err
		}

		newHead = batch[len(batch)-1].UID
		return journals.SetHead(ctx, uid, newHead)
	})
	if err != nil {
		return "", err
	}

	s.logger.Debug(ctx, "entries pushed", "journal", uid, "count", len(batch), "head", newHead)
	return newHead, nil
}

// AddMember shares a journal with username. Owner only. wrappedKey is the
// journal key sealed to the member's public key by the owner's client.
func (s *JournalService) AddMember(ctx context.Context, userID, uid, username string, wrappedKey []byte) error {
	if username == "" || len(wrappedKey) == 0 {
		return fmt.Errorf("%w: username and wrapped key are required", common.ErrorValidation)
	}

	member, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		return fmt.Errorf("member %s: %w", username, err)
	}
	if member.ID == userID {
		return fmt.Errorf("%w: cannot share a journal with its owner", common.ErrorValidation)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.requireOwner(ctx, s.repomanager.Journals(tx).LockHead, uid, userID); err != nil {
			return err
		}
		return s.repomanager.Members(tx).Add(ctx, models.Member{JournalUID: uid, UserID: member.ID, WrappedKey: wrappedKey})
	})
}

func (s *JournalService) requireOwner(ctx context.Context, lock func(context.Context, string) (string, string, error), uid, userID string) error {
	ownerID, _, err := lock(ctx, uid)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return common.ErrorForbidden
	}
	return nil
}
