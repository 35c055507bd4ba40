// Package tasks persists local task rows together with their sync state.
package tasks

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskjournal/internal/client/models"
)

type Repository interface {
	// Insert stores a new task and sets its ID.
	Insert(ctx context.Context, t *models.Task) error

	// Update writes the user-editable fields and the dirty/deleted flags.
	Update(ctx context.Context, t *models.Task) error

	Get(ctx context.Context, id int64) (*models.Task, error)
	GetByRemoteID(ctx context.Context, collectionUID, remoteID string) (*models.Task, error)

	// List returns the live tasks of a collection.
	List(ctx context.Context, collectionUID string) ([]models.Task, error)

	// Pending returns dirty tasks plus deleted tasks that still have a
	// remote copy.
	Pending(ctx context.Context, collectionUID string) ([]models.Task, error)

	// StoreRemote writes a task received from the server: fields, payload,
	// clean and live.
	StoreRemote(ctx context.Context, t *models.Task, payload string, now time.Time) error

	// SetPayload records the server's copy without touching local fields.
	SetPayload(ctx context.Context, collectionUID, remoteID, payload string) error

	// MarkRemoteDeleted soft-deletes a task and forgets its remote copy.
	MarkRemoteDeleted(ctx context.Context, collectionUID, remoteID string) error

	DeleteByRemoteID(ctx context.Context, collectionUID, remoteID string) error
	Delete(ctx context.Context, id int64) error
	SetRemoteID(ctx context.Context, id int64, remoteID string) error
}
