// Package models defines client-side data models used by the task CLI and
// the sync engine.
package models

import (
	"time"

	"github.com/dmitrijs2005/taskjournal/internal/journal"
)

// Task is a local task row.
type Task struct {
	// ID is the local row id.
	ID            int64
	CollectionUID string

	// RemoteID is stable across edits. Empty until the task is first pushed.
	RemoteID string

	Title          string
	Notes          string
	Priority       int
	CompletedAt    *time.Time
	DueAt          *time.Time
	ParentRemoteID string

	// Payload is the last serialized form the server is known to hold.
	// Empty when the server has no copy.
	Payload string

	// Dirty marks unpushed local edits.
	Dirty bool

	// Deleted is a local tombstone kept until the delete is pushed.
	Deleted bool

	LastSync time.Time
}

func (t Task) Completed() bool {
	return t.CompletedAt != nil
}

// HasRemoteState reports whether the server holds a copy of the task.
func (t Task) HasRemoteState() bool {
	return t.Payload != ""
}

// PendingTask is a task queued for push in the current sync pass.
type PendingTask struct {
	Task

	// RemoteState starts as Task.HasRemoteState and is set during pull when
	// a remote copy of the task arrives while the local edit is still queued.
	RemoteState bool
}

// LocalCollection mirrors one remote journal of type TASKS.
type LocalCollection struct {
	UID     string
	Name    string
	Color   string
	Version int
	Shared  bool

	// Ctag is the UID of the last applied entry, empty for a fresh journal.
	Ctag string
}

// Change is one decrypted journal entry ready to be applied locally.
type Change struct {
	Action   journal.Action
	RemoteID string
	Payload  string

	// Task holds the decoded fields for ActionAdd and ActionChange.
	Task *Task

	// EntryUID becomes the collection checkpoint once the change is applied.
	EntryUID string
}
