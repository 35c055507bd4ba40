package client

import (
	"context"

	"github.com/dmitrijs2005/taskjournal/internal/cryptox"
	"github.com/dmitrijs2005/taskjournal/internal/journal"
)

// Transport is the client's view of the journal server.
type Transport interface {
	Close() error

	Register(ctx context.Context, username string, salt []byte, verifier []byte) error
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifier []byte) error
	RefreshToken(ctx context.Context) error
	Ping(ctx context.Context) error

	ListJournals(ctx context.Context) ([]journal.Journal, error)
	FetchJournal(ctx context.Context, uid string) (journal.Journal, error)
	CreateJournal(ctx context.Context, j journal.Journal) error
	UpdateJournal(ctx context.Context, uid string, info journal.Entry) error
	DeleteJournal(ctx context.Context, uid string) error

	FetchEntries(ctx context.Context, uid, afterUID string, limit int) ([]journal.Entry, error)
	PushEntries(ctx context.Context, uid string, entries []journal.Entry, expectedHead string) error

	GetUserInfo(ctx context.Context, username string) (*cryptox.UserInfo, error)
	PutUserInfo(ctx context.Context, info *cryptox.UserInfo) error
	AddMember(ctx context.Context, uid, username string, wrappedKey []byte) error
}
