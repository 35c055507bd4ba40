// Package cryptox is the CryptoManager of the journal protocol: account key
// derivation, per-collection keys (derived for personal collections,
// age-wrapped for shared ones) and authenticated encryption of journal
// payloads with a version tag.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
)

// MakeVerifier returns the value the server stores to check a login. It is a
// one-way function of the master key so the key itself never leaves the
// client.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey stretches a password with Argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// DeriveEncryptionSecret stretches the encryption password into the secret
// that personal collection keys are derived from. The salt depends only on
// the username so every device of the account derives the same secret.
func DeriveEncryptionSecret(password []byte, username string) []byte {
	salt := sha256.Sum256([]byte("taskjournal-encryption:" + username))
	return DeriveMasterKey(password, salt[:])
}
