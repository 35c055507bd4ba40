package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskjournal/internal/client/models"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/journal"
	"github.com/google/uuid"
)

type state string

const (
	stateIdle        state = "idle"
	statePulling     state = "pulling"
	stateReconciling state = "reconciling"
	statePushing     state = "pushing"
	stateApplied     state = "applied"
	statePullError   state = "pull error"
	statePushError   state = "push error"
)

// pass is the per-collection state of one sync pass.
type pass struct {
	uid    string
	head   string
	cipher journal.Cipher

	// pending is the dirty set, in the order the store returned it.
	pending []*models.PendingTask

	// byRemoteID indexes pending tasks that already have a remote id.
	byRemoteID map[string]*models.PendingTask

	// dropped holds remote ids removed from the dirty set by a remote DELETE.
	dropped map[string]bool

	pulled int
	pushed int
}

func (s *Synchronizer) enter(ctx context.Context, p *pass, st state, args ...any) {
	s.logger.Debug(ctx, "sync state", append([]any{"collection", p.uid, "state", string(st)}, args...)...)
}

func (s *Synchronizer) syncCollection(ctx context.Context, rc remoteCollection) SyncResult {
	res := SyncResult{CollectionUID: rc.journal.UID, Name: rc.info.DisplayName}

	p := &pass{uid: rc.journal.UID, head: rc.journal.Head, cipher: rc.cipher}
	s.enter(ctx, p, stateIdle)

	for attempt := 0; ; attempt++ {
		if err := s.snapshot(ctx, p); err != nil {
			return s.fail(ctx, p, res, statePullError, err)
		}

		s.enter(ctx, p, statePulling, "attempt", attempt)
		// after a conflict the listed head is stale, so always fetch
		if err := s.pull(ctx, p, attempt > 0); err != nil {
			return s.fail(ctx, p, res, statePullError, err)
		}

		s.enter(ctx, p, stateReconciling)
		changes, err := s.reconcile(ctx, p)
		if err != nil {
			return s.fail(ctx, p, res, statePushError, err)
		}

		s.enter(ctx, p, statePushing, "changes", len(changes))
		err = s.push(ctx, p, changes)
		if errors.Is(err, common.ErrHeadConflict) && attempt < s.opts.MaxConflictRetries {
			s.logger.Info(ctx, "head moved during push, pulling again", "collection", p.uid, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return s.fail(ctx, p, res, statePushError, err)
		}
		break
	}

	s.enter(ctx, p, stateApplied, "pulled", p.pulled, "pushed", p.pushed)
	res.Pulled, res.Pushed = p.pulled, p.pushed
	s.enter(ctx, p, stateIdle)
	return res
}

func (s *Synchronizer) fail(ctx context.Context, p *pass, res SyncResult, st state, err error) SyncResult {
	s.enter(ctx, p, st)
	res.Kind = classify(err)
	res.Err = err
	res.Pulled, res.Pushed = p.pulled, p.pushed
	s.logger.Error(ctx, "collection sync failed", "collection", p.uid, "kind", res.Kind.String(), "error", err)
	return res
}

// snapshot loads the dirty set for this attempt.
func (s *Synchronizer) snapshot(ctx context.Context, p *pass) error {
	rows, err := s.store.TasksPendingPush(ctx, p.uid)
	if err != nil {
		return fmt.Errorf("load pending tasks: %w", err)
	}

	p.pending = make([]*models.PendingTask, 0, len(rows))
	p.byRemoteID = make(map[string]*models.PendingTask, len(rows))
	p.dropped = make(map[string]bool)
	for i := range rows {
		t := &rows[i]
		p.pending = append(p.pending, t)
		if t.RemoteID != "" {
			p.byRemoteID[t.RemoteID] = t
		}
	}
	return nil
}

// pull applies every remote entry after the checkpoint. The checkpoint moves
// with each entry, so an error leaves it at the last applied one.
func (s *Synchronizer) pull(ctx context.Context, p *pass, force bool) error {
	checkpoint, err := s.store.Checkpoint(ctx, p.uid)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if !force && checkpoint == p.head {
		return nil
	}

	chain := journal.NewChain(checkpoint, p.cipher)
	for page, err := range s.Pages(ctx, p.uid, checkpoint, s.opts.PageSize) {
		if err != nil {
			return err
		}
		for _, e := range page {
			se, err := chain.Next(e)
			if err != nil {
				return fmt.Errorf("entry %s: %w", e.UID, err)
			}
			if err := s.applyRemote(ctx, p, e.UID, se); err != nil {
				return fmt.Errorf("apply entry %s: %w", e.UID, err)
			}
			p.pulled++
		}
	}

	p.head = chain.Head()
	return nil
}

func (s *Synchronizer) applyRemote(ctx context.Context, p *pass, entryUID string, se journal.SyncEntry) error {
	remoteID, err := s.codec.RemoteID(se.Content)
	if err != nil {
		return err
	}

	switch se.Action {
	case journal.ActionAdd, journal.ActionChange:
		if t, ok := p.byRemoteID[remoteID]; ok && !p.dropped[remoteID] {
			// queued local edit wins; remember what the server holds
			if err := s.store.KeepLocal(ctx, p.uid, remoteID, se.Content, entryUID); err != nil {
				return err
			}
			t.Payload = se.Content
			t.RemoteState = true
			s.logger.Debug(ctx, "kept local edit over remote", "collection", p.uid, "task", remoteID)
			return nil
		}

		task, err := s.codec.Decode(se.Content)
		if err != nil {
			return err
		}
		return s.store.Apply(ctx, p.uid, models.Change{
			Action:   se.Action,
			RemoteID: remoteID,
			Payload:  se.Content,
			Task:     &task,
			EntryUID: entryUID,
		})

	case journal.ActionDelete:
		p.dropped[remoteID] = true
		return s.store.Apply(ctx, p.uid, models.Change{
			Action:   journal.ActionDelete,
			RemoteID: remoteID,
			Payload:  se.Content,
			EntryUID: entryUID,
		})

	default:
		return fmt.Errorf("unknown action %v", se.Action)
	}
}

// reconcile turns the pull-adjusted dirty set into changes to push.
// Deleted tasks the server never saw are purged here.
func (s *Synchronizer) reconcile(ctx context.Context, p *pass) ([]models.Change, error) {
	changes := make([]models.Change, 0, len(p.pending))

	for _, t := range p.pending {
		if t.RemoteID != "" && p.dropped[t.RemoteID] {
			continue
		}

		if t.Deleted {
			if !t.RemoteState {
				if err := s.store.PurgeTask(ctx, t.ID); err != nil {
					return nil, fmt.Errorf("purge task %d: %w", t.ID, err)
				}
				continue
			}
			changes = append(changes, models.Change{
				Action:   journal.ActionDelete,
				RemoteID: t.RemoteID,
				Payload:  t.Payload,
			})
			continue
		}

		if t.RemoteID == "" {
			id := uuid.NewString()
			if err := s.store.AssignRemoteID(ctx, t.ID, id); err != nil {
				return nil, fmt.Errorf("assign remote id to task %d: %w", t.ID, err)
			}
			t.RemoteID = id
			p.byRemoteID[id] = t
		}

		action := journal.ActionAdd
		if t.RemoteState {
			action = journal.ActionChange
		}

		task := t.Task
		payload, err := s.codec.Encode(task)
		if err != nil {
			return nil, fmt.Errorf("encode task %d: %w", t.ID, err)
		}
		changes = append(changes, models.Change{
			Action:   action,
			RemoteID: t.RemoteID,
			Payload:  payload,
			Task:     &task,
		})
	}

	return changes, nil
}

// push chains changes after the checkpoint and sends them in sub-batches.
// Each accepted sub-batch is applied locally before the next is sent.
func (s *Synchronizer) push(ctx context.Context, p *pass, changes []models.Change) error {
	if len(changes) == 0 {
		return nil
	}

	checkpoint, err := s.store.Checkpoint(ctx, p.uid)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	chain := journal.NewChain(checkpoint, p.cipher)
	entries := make([]journal.Entry, 0, len(changes))
	for i := range changes {
		e, err := chain.Append(journal.SyncEntry{Action: changes[i].Action, Content: changes[i].Payload})
		if err != nil {
			return fmt.Errorf("append %s %s: %w", changes[i].Action, changes[i].RemoteID, err)
		}
		changes[i].EntryUID = e.UID
		entries = append(entries, e)
	}

	head := checkpoint
	for start := 0; start < len(entries); start += s.opts.PushBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+s.opts.PushBatchSize, len(entries))
		batch := entries[start:end]

		if err := s.transport.PushEntries(ctx, p.uid, batch, head); err != nil {
			if errors.Is(err, common.ErrHeadConflict) {
				return fmt.Errorf("push after %q: %w", head, err)
			}
			return transportError("push entries", err)
		}

		for _, c := range changes[start:end] {
			if err := s.store.Apply(ctx, p.uid, c); err != nil {
				return fmt.Errorf("apply pushed entry %s: %w", c.EntryUID, err)
			}
			p.pushed++
		}
		head = batch[len(batch)-1].UID
	}

	p.head = head
	return nil
}
