package syncer

import (
	"context"
	"iter"

	"github.com/dmitrijs2005/taskjournal/internal/journal"
)

// Pages lazily fetches the entries of journal uid that follow after, one
// page at a time. The sequence ends after the first page shorter than
// pageSize, or after yielding an error. Each range over the sequence starts
// again from after.
func (s *Synchronizer) Pages(ctx context.Context, uid, after string, pageSize int) iter.Seq2[[]journal.Entry, error] {
	return func(yield func([]journal.Entry, error) bool) {
		cursor := after
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			page, err := s.transport.FetchEntries(ctx, uid, cursor, pageSize)
			if err != nil {
				yield(nil, transportError("fetch entries", err))
				return
			}

			if len(page) > 0 {
				if !yield(page, nil) {
					return
				}
				cursor = page[len(page)-1].UID
			}

			if len(page) < pageSize {
				return
			}
		}
	}
}
