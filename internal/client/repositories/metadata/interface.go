// Package metadata stores small account-level values in the local
// database: the cached login data used for offline login and the tokens of
// the last online session.
package metadata

import (
	"context"
)

const (
	KeyUsername      = "username"
	KeySalt          = "salt"
	KeyVerifier      = "verifier"
	KeyAccessToken   = "access_token"
	KeyRefreshToken  = "refresh_token"
)

// Repository is a key/value store. Get returns common.ErrorNotFound for an
// absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
