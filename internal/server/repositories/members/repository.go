// Package members stores which users a journal is shared with and the
// journal key wrapped to each of them.
package members

import (
	"context"

	"github.com/dmitrijs2005/taskjournal/internal/server/models"
)

type Repository interface {
	// Add grants access, replacing the wrapped key if the member exists.
	Add(ctx context.Context, m models.Member) error
	Remove(ctx context.Context, journalUID, userID string) error
	List(ctx context.Context, journalUID string) ([]models.Member, error)
}
