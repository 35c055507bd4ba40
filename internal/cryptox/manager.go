package cryptox

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// MinVersion is the oldest journal format this build can read.
	MinVersion = 1
	// CurrentVersion is the format written by this build.
	CurrentVersion = 2

	// KeySize is the size of a collection key.
	KeySize = chacha20poly1305.KeySize

	// TagSize is the size of the integrity tag returned by Encrypt.
	TagSize = chacha20poly1305.Overhead

	headerSize = 1 + chacha20poly1305.NonceSizeX
)

var (
	// ErrIntegrity means a payload failed authentication: it is corrupt,
	// tampered with, or was sealed under a different key.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrVersionTooNew matches any *VersionTooNewError.
	ErrVersionTooNew = errors.New("journal version too new")

	// ErrEmptySecret means no key material was given to derive from.
	ErrEmptySecret = errors.New("empty encryption secret")
)

// VersionTooNewError reports a journal written by a newer protocol version.
type VersionTooNewError struct {
	Version int
	Max     int
}

func (e *VersionTooNewError) Error() string {
	return fmt.Sprintf("journal version %d is newer than supported version %d", e.Version, e.Max)
}

func (e *VersionTooNewError) Is(target error) bool {
	return target == ErrVersionTooNew
}

// Verify rejects versions this build cannot read. Too-new versions are never
// decoded on a best-effort basis.
func Verify(version int) error {
	if version > CurrentVersion {
		return &VersionTooNewError{Version: version, Max: CurrentVersion}
	}
	if version < MinVersion {
		return fmt.Errorf("%w: unsupported journal version %d", ErrIntegrity, version)
	}
	return nil
}

// Manager holds the key material of one collection.
type Manager struct {
	version  int
	key      []byte
	chainKey []byte
	aead     cipher.AEAD
}

// Derive returns the Manager of a personally owned collection. The key is
// HKDF-SHA256(secret, salt=collectionUID, info=version label).
func Derive(version int, secret []byte, collectionUID string) (*Manager, error) {
	if err := Verify(version); err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	key, err := expand(secret, []byte(collectionUID), versionLabel(version))
	if err != nil {
		return nil, err
	}
	return newManager(version, key)
}

// Unwrap returns the Manager of a shared collection whose key was wrapped to
// the member's age identity.
func Unwrap(version int, identity *age.X25519Identity, wrappedKey []byte) (*Manager, error) {
	if err := Verify(version); err != nil {
		return nil, err
	}

	r, err := age.Decrypt(bytes.NewReader(wrappedKey), identity)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrap collection key: %v", ErrIntegrity, err)
	}
	key, err := io.ReadAll(io.LimitReader(r, KeySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read collection key: %v", ErrIntegrity, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: wrapped key has %d bytes", ErrIntegrity, len(key))
	}
	return newManager(version, key)
}

// Wrap seals a collection key to a member's public key.
func Wrap(recipient *age.X25519Recipient, key []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(key); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newManager(version int, key []byte) (*Manager, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	// Chain key hangs off the collection key, so members of a shared
	// collection can verify the chain without the owner's secret.
	chainKey, err := expand(key, nil, "taskjournal-chain")
	if err != nil {
		return nil, err
	}
	return &Manager{version: version, key: key, chainKey: chainKey, aead: aead}, nil
}

func versionLabel(version int) string {
	return fmt.Sprintf("taskjournal-v%d", version)
}

func expand(secret, salt []byte, info string) ([]byte, error) {
	out := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, []byte(info)), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Version returns the journal version the manager was built for.
func (m *Manager) Version() int {
	return m.version
}

// Key returns a copy of the collection key. Only sharing needs it.
func (m *Manager) Key() []byte {
	return bytes.Clone(m.key)
}

// ChainKey returns a copy of the 32-byte key used for chain digests.
func (m *Manager) ChainKey() []byte {
	return bytes.Clone(m.chainKey)
}

// Encrypt seals plaintext. The ciphertext is version(1) ∥ nonce(24) ∥ body
// and the detached Poly1305 tag is returned separately. The version byte is
// authenticated.
func (m *Manager) Encrypt(plaintext []byte) (ciphertext, tag []byte, err error) {
	header := make([]byte, headerSize)
	header[0] = byte(m.version)
	nonce := header[1:]
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	sealed := m.aead.Seal(nil, nonce, plaintext, header[:1])
	split := len(sealed) - TagSize

	ciphertext = make([]byte, 0, headerSize+split)
	ciphertext = append(ciphertext, header...)
	ciphertext = append(ciphertext, sealed[:split]...)
	tag = bytes.Clone(sealed[split:])

	return ciphertext, tag, nil
}

// Decrypt opens a payload produced by Encrypt. Any mismatch yields
// ErrIntegrity; a version byte above CurrentVersion yields ErrVersionTooNew.
func (m *Manager) Decrypt(ciphertext, tag []byte) ([]byte, error) {
	if len(ciphertext) < headerSize || len(tag) != TagSize {
		return nil, fmt.Errorf("%w: truncated payload", ErrIntegrity)
	}

	version := int(ciphertext[0])
	if err := Verify(version); err != nil {
		return nil, err
	}
	if version != m.version {
		return nil, fmt.Errorf("%w: payload version %d, journal version %d", ErrIntegrity, version, m.version)
	}

	nonce := ciphertext[1:headerSize]
	body := ciphertext[headerSize:]

	sealed := make([]byte, 0, len(body)+TagSize)
	sealed = append(sealed, body...)
	sealed = append(sealed, tag...)

	plaintext, err := m.aead.Open(nil, nonce, sealed, ciphertext[:1])
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}
