// Package store is the local task database as seen by the sync engine and
// the CLI. Every change received from a journal is written together with
// the collection checkpoint in one transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskjournal/internal/client/models"
	"github.com/dmitrijs2005/taskjournal/internal/client/repositories/collections"
	"github.com/dmitrijs2005/taskjournal/internal/client/repositories/tasks"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/dbx"
	"github.com/dmitrijs2005/taskjournal/internal/journal"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) collections(db dbx.DBTX) collections.Repository {
	return collections.NewSQLiteRepository(db)
}

func (s *Store) tasks(db dbx.DBTX) tasks.Repository {
	return tasks.NewSQLiteRepository(db)
}

func (s *Store) Collections(ctx context.Context) ([]models.LocalCollection, error) {
	return s.collections(s.db).List(ctx)
}

func (s *Store) Collection(ctx context.Context, uid string) (*models.LocalCollection, error) {
	return s.collections(s.db).Get(ctx, uid)
}

func (s *Store) UpsertCollection(ctx context.Context, c models.LocalCollection) error {
	return s.collections(s.db).Upsert(ctx, c)
}

func (s *Store) DeleteCollection(ctx context.Context, uid string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.collections(tx).Delete(ctx, uid)
	})
}

// Checkpoint returns the UID of the last entry applied to the collection.
func (s *Store) Checkpoint(ctx context.Context, uid string) (string, error) {
	c, err := s.collections(s.db).Get(ctx, uid)
	if err != nil {
		return "", err
	}
	return c.Ctag, nil
}

func (s *Store) TasksPendingPush(ctx context.Context, uid string) ([]models.PendingTask, error) {
	rows, err := s.tasks(s.db).Pending(ctx, uid)
	if err != nil {
		return nil, err
	}
	pending := make([]models.PendingTask, 0, len(rows))
	for _, t := range rows {
		pending = append(pending, models.PendingTask{Task: t, RemoteState: t.HasRemoteState()})
	}
	return pending, nil
}

func (s *Store) AssignRemoteID(ctx context.Context, taskID int64, remoteID string) error {
	return s.tasks(s.db).SetRemoteID(ctx, taskID, remoteID)
}

// PurgeTask removes a task the server never saw.
func (s *Store) PurgeTask(ctx context.Context, taskID int64) error {
	return s.tasks(s.db).Delete(ctx, taskID)
}

// Apply writes one remote change and moves the checkpoint to c.EntryUID.
// Applying the same change twice leaves the visible state unchanged.
func (s *Store) Apply(ctx context.Context, uid string, c models.Change) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.tasks(tx)

		switch c.Action {
		case journal.ActionAdd, journal.ActionChange:
			if c.Task == nil {
				return fmt.Errorf("%s %s: no task", c.Action, c.RemoteID)
			}
			t := *c.Task
			t.CollectionUID, t.RemoteID = uid, c.RemoteID
			if err := repo.StoreRemote(ctx, &t, c.Payload, s.now()); err != nil {
				return err
			}

		case journal.ActionDelete:
			t, err := repo.GetByRemoteID(ctx, uid, c.RemoteID)
			switch {
			case errors.Is(err, common.ErrorNotFound):
			case err != nil:
				return err
			case t.Deleted:
				if err := repo.DeleteByRemoteID(ctx, uid, c.RemoteID); err != nil {
					return err
				}
			default:
				if err := repo.MarkRemoteDeleted(ctx, uid, c.RemoteID); err != nil {
					return err
				}
			}

		default:
			return fmt.Errorf("apply: unknown action %d", c.Action)
		}

		return s.collections(tx).SetCtag(ctx, uid, c.EntryUID)
	})
}

// KeepLocal records the server's copy of a task that has a queued local
// edit, leaving the edit in place, and moves the checkpoint.
func (s *Store) KeepLocal(ctx context.Context, uid, remoteID, payload, entryUID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.tasks(tx).SetPayload(ctx, uid, remoteID, payload); err != nil {
			return err
		}
		return s.collections(tx).SetCtag(ctx, uid, entryUID)
	})
}

// AddTask stores a new local task, dirty and without a remote id.
func (s *Store) AddTask(ctx context.Context, t *models.Task) error {
	if _, err := s.collections(s.db).Get(ctx, t.CollectionUID); err != nil {
		return err
	}
	t.Dirty, t.Deleted, t.RemoteID, t.Payload = true, false, "", ""
	return s.tasks(s.db).Insert(ctx, t)
}

// UpdateTask saves local edits and marks the task dirty.
func (s *Store) UpdateTask(ctx context.Context, t *models.Task) error {
	t.Dirty = true
	return s.tasks(s.db).Update(ctx, t)
}

func (s *Store) Task(ctx context.Context, id int64) (*models.Task, error) {
	return s.tasks(s.db).Get(ctx, id)
}

func (s *Store) Tasks(ctx context.Context, uid string) ([]models.Task, error) {
	return s.tasks(s.db).List(ctx, uid)
}
