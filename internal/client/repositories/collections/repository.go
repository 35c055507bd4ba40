// Package collections persists the local mirror of remote task journals.
package collections

import (
	"context"

	"github.com/dmitrijs2005/taskjournal/internal/client/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.LocalCollection, error)
	Get(ctx context.Context, uid string) (*models.LocalCollection, error)

	// Upsert writes metadata. The checkpoint of an existing row is kept.
	Upsert(ctx context.Context, c models.LocalCollection) error

	// SetCtag moves the checkpoint.
	SetCtag(ctx context.Context, uid, ctag string) error

	// Delete removes the collection and all its tasks.
	Delete(ctx context.Context, uid string) error
}
