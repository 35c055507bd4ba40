// Package syncer reconciles local task lists with their encrypted journals
// on the server.
//
// A sync pass lists the account's journals, mirrors the set of task lists
// locally, then processes each list on its own: pull the entries after the
// local checkpoint, then push the queued local edits as a chain extension.
// A failure stops only the list it happened in and is reported in that
// list's SyncResult.
package syncer

import (
	"context"
	"errors"
	"fmt"

	"filippo.io/age"
	"github.com/dmitrijs2005/taskjournal/internal/client/models"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/cryptox"
	"github.com/dmitrijs2005/taskjournal/internal/journal"
	"github.com/dmitrijs2005/taskjournal/internal/logging"
)

var (
	ErrUsernameRequired           = errors.New("username required")
	ErrEncryptionPasswordRequired = errors.New("encryption password required")
)

const (
	DefaultPageSize           = 50
	DefaultPushBatchSize      = 30
	DefaultMaxConflictRetries = 2
)

// Transport is the part of the journal server the engine talks to.
type Transport interface {
	ListJournals(ctx context.Context) ([]journal.Journal, error)
	FetchEntries(ctx context.Context, uid, afterUID string, limit int) ([]journal.Entry, error)
	PushEntries(ctx context.Context, uid string, entries []journal.Entry, expectedHead string) error
}

// Store is the local task database as seen by the engine.
type Store interface {
	Collections(ctx context.Context) ([]models.LocalCollection, error)
	UpsertCollection(ctx context.Context, c models.LocalCollection) error
	DeleteCollection(ctx context.Context, uid string) error
	Checkpoint(ctx context.Context, uid string) (string, error)
	TasksPendingPush(ctx context.Context, uid string) ([]models.PendingTask, error)
	AssignRemoteID(ctx context.Context, taskID int64, remoteID string) error
	Apply(ctx context.Context, uid string, c models.Change) error
	KeepLocal(ctx context.Context, uid, remoteID, payload, entryUID string) error
	PurgeTask(ctx context.Context, taskID int64) error
}

// Codec turns tasks into the payload carried by journal entries.
type Codec interface {
	Encode(t models.Task) (string, error)
	Decode(payload string) (models.Task, error)
	RemoteID(payload string) (string, error)
}

// Account carries what a pass needs to open the user's journals. Identity
// may be nil when the account has no shared lists.
type Account struct {
	Username string
	Secret   []byte
	Identity *age.X25519Identity
}

func (a Account) validate() error {
	if a.Username == "" {
		return ErrUsernameRequired
	}
	if len(a.Secret) == 0 {
		return ErrEncryptionPasswordRequired
	}
	return nil
}

type Options struct {
	PageSize           int
	PushBatchSize      int
	MaxConflictRetries int
}

type Synchronizer struct {
	transport Transport
	store     Store
	codec     Codec
	opts      Options
	logger    logging.Logger
}

func New(t Transport, s Store, c Codec, opts Options, l logging.Logger) *Synchronizer {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PushBatchSize <= 0 {
		opts.PushBatchSize = DefaultPushBatchSize
	}
	if opts.MaxConflictRetries < 0 {
		opts.MaxConflictRetries = 0
	}
	if l == nil {
		l = logging.Nop{}
	}
	return &Synchronizer{
		transport: t,
		store:     s,
		codec:     c,
		opts:      opts,
		logger:    l.With("module", "syncer"),
	}
}

// remoteCollection is a listed journal whose info opened cleanly.
type remoteCollection struct {
	journal journal.Journal
	info    journal.CollectionInfo
	cipher  *cryptox.Manager
}

// Sync runs one pass over every task list of the account. The error is
// non-nil only when the pass could not start or was cancelled; per-list
// failures are reported in the results.
func (s *Synchronizer) Sync(ctx context.Context, acc Account) ([]SyncResult, error) {
	if err := acc.validate(); err != nil {
		return nil, err
	}

	journals, err := s.transport.ListJournals(ctx)
	if err != nil {
		return nil, transportError("list journals", err)
	}

	var (
		results []SyncResult
		ready   []remoteCollection
		listed  = make(map[string]bool, len(journals))
	)

	for _, j := range journals {
		m, err := j.Crypto(acc.Secret, acc.Identity)
		if err == nil {
			var info journal.CollectionInfo
			info, err = journal.OpenInfo(j.UID, j.Info, m)
			if err == nil {
				if info.Type != common.CollectionTypeTasks {
					s.logger.Debug(ctx, "skipping journal", "journal", j.UID, "type", info.Type)
					continue
				}
				listed[j.UID] = true
				ready = append(ready, remoteCollection{journal: j, info: info, cipher: m})
				continue
			}
		}

		// a list whose info cannot be opened is kept locally until it can
		listed[j.UID] = true
		s.logger.Warn(ctx, "cannot open journal info", "journal", j.UID, "error", err)
		results = append(results, SyncResult{
			CollectionUID: j.UID,
			Name:          j.UID,
			Kind:          classify(err),
			Err:           fmt.Errorf("open collection %s: %w", j.UID, err),
		})
	}

	if err := s.mirrorCollections(ctx, listed, ready); err != nil {
		return results, err
	}

	for _, rc := range ready {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, s.syncCollection(ctx, rc))
	}

	return results, ctx.Err()
}

// mirrorCollections drops local lists the server no longer lists and
// creates or updates the rest.
func (s *Synchronizer) mirrorCollections(ctx context.Context, listed map[string]bool, ready []remoteCollection) error {
	locals, err := s.store.Collections(ctx)
	if err != nil {
		return fmt.Errorf("list local collections: %w", err)
	}

	for _, c := range locals {
		if listed[c.UID] {
			continue
		}
		if err := s.store.DeleteCollection(ctx, c.UID); err != nil {
			return fmt.Errorf("delete collection %s: %w", c.UID, err)
		}
		s.logger.Info(ctx, "collection removed remotely", "collection", c.UID, "name", c.Name)
	}

	for _, rc := range ready {
		c := models.LocalCollection{
			UID:     rc.journal.UID,
			Name:    rc.info.DisplayName,
			Color:   rc.info.Color,
			Version: rc.journal.Version,
			Shared:  rc.journal.Shared(),
		}
		if err := s.store.UpsertCollection(ctx, c); err != nil {
			return fmt.Errorf("store collection %s: %w", c.UID, err)
		}
	}

	return nil
}
