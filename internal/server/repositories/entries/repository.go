// Package entries stores the encrypted chain links of every journal.
package entries

import (
	"context"

	"github.com/dmitrijs2005/taskjournal/internal/server/models"
)

type Repository interface {
	// Append inserts entries with consecutive sequence numbers after
	// lastSeq.
	Append(ctx context.Context, journalUID string, lastSeq int64, entries []models.Entry) error

	// SeqOf returns the sequence number of entry uid, or common.ErrorNotFound.
	SeqOf(ctx context.Context, journalUID, uid string) (int64, error)

	// LastSeq returns the highest sequence number, 0 for an empty journal.
	LastSeq(ctx context.Context, journalUID string) (int64, error)

	// ListAfter returns up to limit entries with seq > afterSeq, oldest first.
	// A limit <= 0 means no limit.
	ListAfter(ctx context.Context, journalUID string, afterSeq int64, limit int) ([]models.Entry, error)
}
