package models

import "time"

// Journal is an encrypted collection. Head is the UID of the last entry, or
// empty when the journal has none.
type Journal struct {
	UID         string
	OwnerID     string
	Owner       string
	Version     int
	InfoUID     string
	InfoContent []byte
	InfoTag     []byte
	Head        string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// WrappedKey is set when the journal is listed for a member rather than
	// its owner.
	WrappedKey []byte
}

// Entry is one chain link. Seq orders entries within a journal.
type Entry struct {
	JournalUID string
	Seq        int64
	UID        string
	Content    []byte
	Tag        []byte
}

// Member grants a non-owner access to a journal.
type Member struct {
	JournalUID string
	UserID     string
	WrappedKey []byte
}
