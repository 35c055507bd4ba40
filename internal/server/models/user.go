// Package models defines server-side data models persisted in the database.
package models

import "time"

type User struct {
	ID        string
	UserName  string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}

// UserInfo is a user's published public key and their encrypted private
// identity. The server never sees the plaintext identity.
type UserInfo struct {
	UserID    string
	Version   int
	PublicKey string
	Content   []byte
	Tag       []byte
}
