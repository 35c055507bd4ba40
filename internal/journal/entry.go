// Package journal models the append-only, hash-linked log of encrypted
// change records kept for every collection.
//
// Each entry's UID is a keyed BLAKE3 digest over its ciphertext and the UID
// of the entry before it, so entries can only be verified in chain order and
// any altered byte breaks the chain from that point on.
package journal

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// ErrChainBroken means an entry's UID does not match the digest computed
// from its content and the previous UID.
var ErrChainBroken = errors.New("journal chain broken")

// Cipher is the per-collection crypto the chain needs. *cryptox.Manager
// implements it.
type Cipher interface {
	Encrypt(plaintext []byte) (ciphertext, tag []byte, err error)
	Decrypt(ciphertext, tag []byte) ([]byte, error)
	ChainKey() []byte
}

// Entry is one immutable link of a journal.
type Entry struct {
	UID     string
	Content []byte
	Tag     []byte
}

// Append encrypts se and links it after previousUID.
func Append(previousUID string, se SyncEntry, c Cipher) (Entry, error) {
	plaintext, err := se.Marshal()
	if err != nil {
		return Entry{}, err
	}
	return seal(previousUID, plaintext, c)
}

// VerifyAndDecrypt checks that e follows previousUID and returns its record.
func VerifyAndDecrypt(e Entry, previousUID string, c Cipher) (SyncEntry, error) {
	plaintext, err := open(e, previousUID, c)
	if err != nil {
		return SyncEntry{}, err
	}
	return UnmarshalSyncEntry(plaintext)
}

func seal(previousUID string, plaintext []byte, c Cipher) (Entry, error) {
	content, tag, err := c.Encrypt(plaintext)
	if err != nil {
		return Entry{}, fmt.Errorf("encrypt entry: %w", err)
	}
	uid, err := digest(c.ChainKey(), content, previousUID)
	if err != nil {
		return Entry{}, err
	}
	return Entry{UID: uid, Content: content, Tag: tag}, nil
}

func open(e Entry, previousUID string, c Cipher) ([]byte, error) {
	uid, err := digest(c.ChainKey(), e.Content, previousUID)
	if err != nil {
		return nil, err
	}
	if uid != e.UID {
		return nil, fmt.Errorf("%w: entry %s does not follow %q (computed %s)", ErrChainBroken, e.UID, previousUID, uid)
	}

	plaintext, err := c.Decrypt(e.Content, e.Tag)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.UID, err)
	}
	return plaintext, nil
}

func digest(key, content []byte, previousUID string) (string, error) {
	h, err := blake3.NewKeyed(key)
	if err != nil {
		return "", fmt.Errorf("chain digest: %w", err)
	}
	_, _ = h.Write(content)
	_, _ = h.Write([]byte(previousUID))
	return hex.EncodeToString(h.Sum(nil)), nil
}
