package journal

import (
	"errors"
	"fmt"

	"filippo.io/age"
	"github.com/dmitrijs2005/taskjournal/internal/codec"
	"github.com/dmitrijs2005/taskjournal/internal/cryptox"
)

// ErrNoIdentity is returned when a shared journal is opened without the
// member's private identity.
var ErrNoIdentity = errors.New("shared journal requires user identity")

// CollectionInfo is the encrypted metadata of a collection.
type CollectionInfo struct {
	UID         string `cbor:"uid"`
	Type        string `cbor:"type"`
	DisplayName string `cbor:"displayName"`
	Color       string `cbor:"color,omitempty"`
	Description string `cbor:"description,omitempty"`
}

// SealInfo encrypts info as a single entry chained to the collection UID.
func SealInfo(info CollectionInfo, c Cipher) (Entry, error) {
	plaintext, err := codec.Marshal(info)
	if err != nil {
		return Entry{}, fmt.Errorf("encode collection info: %w", err)
	}
	return seal(info.UID, plaintext, c)
}

// OpenInfo verifies and decrypts the info entry of collection uid.
func OpenInfo(uid string, e Entry, c Cipher) (CollectionInfo, error) {
	plaintext, err := open(e, uid, c)
	if err != nil {
		return CollectionInfo{}, err
	}

	var info CollectionInfo
	if err := codec.Unmarshal(plaintext, &info); err != nil {
		return CollectionInfo{}, fmt.Errorf("decode collection info: %w", err)
	}
	if info.UID != uid {
		return CollectionInfo{}, fmt.Errorf("%w: info of %s claims uid %s", ErrChainBroken, uid, info.UID)
	}
	return info, nil
}

// Access says how a member obtains a journal's key.
type Access interface {
	access()
}

// PersonalAccess journals derive their key from the owner's secret.
type PersonalAccess struct{}

// SharedAccess journals carry the key wrapped to the member's identity.
type SharedAccess struct {
	WrappedKey []byte
}

func (PersonalAccess) access() {}
func (SharedAccess) access()   {}

// Journal is a collection as listed by the server.
type Journal struct {
	UID     string
	Version int
	Owner   string
	Info    Entry
	Access  Access
	Head    string
}

// Shared reports whether the journal's key is wrapped rather than derived.
func (j Journal) Shared() bool {
	_, ok := j.Access.(SharedAccess)
	return ok
}

// Crypto returns the journal's key material.
func (j Journal) Crypto(secret []byte, identity *age.X25519Identity) (*cryptox.Manager, error) {
	switch a := j.Access.(type) {
	case PersonalAccess:
		return cryptox.Derive(j.Version, secret, j.UID)
	case SharedAccess:
		if identity == nil {
			return nil, ErrNoIdentity
		}
		return cryptox.Unwrap(j.Version, identity, a.WrappedKey)
	default:
		return nil, fmt.Errorf("journal %s: unknown access %T", j.UID, j.Access)
	}
}
