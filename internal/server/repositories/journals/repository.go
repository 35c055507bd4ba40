// Package journals stores journal headers: owner, encrypted collection info
// and the current head of the entry chain.
package journals

import (
	"context"

	"github.com/dmitrijs2005/taskjournal/internal/server/models"
)

type Repository interface {
	// Create inserts a journal. A duplicate UID yields common.ErrorAlreadyExists.
	Create(ctx context.Context, j *models.Journal) error

	// GetForUser returns the journal if userID owns it or is a member.
	// Members get WrappedKey populated. Anything else is common.ErrorNotFound.
	GetForUser(ctx context.Context, uid, userID string) (*models.Journal, error)

	// ListForUser returns owned and shared journals, oldest first.
	ListForUser(ctx context.Context, userID string) ([]*models.Journal, error)

	// LockHead locks the journal row for the rest of the transaction and
	// returns its owner and head.
	LockHead(ctx context.Context, uid string) (ownerID, head string, err error)

	SetHead(ctx context.Context, uid, head string) error
	UpdateInfo(ctx context.Context, uid, infoUID string, content, tag []byte) error
	Delete(ctx context.Context, uid string) error
}
