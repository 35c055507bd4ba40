package cryptox

import (
	"fmt"

	"filippo.io/age"
)

// userInfoUID is the pseudo collection uid under which the account's private
// identity is encrypted.
const userInfoUID = "userInfo"

// UserInfo is the account's asymmetric key pair as stored on the server: the
// public half in clear, the private half sealed under a key derived from the
// encryption secret.
type UserInfo struct {
	Version   int
	PublicKey string
	Content   []byte
	Tag       []byte
}

// NewUserInfo generates a fresh identity for an account.
func NewUserInfo(version int, secret []byte) (*UserInfo, *age.X25519Identity, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, nil, err
	}

	m, err := Derive(version, secret, userInfoUID)
	if err != nil {
		return nil, nil, err
	}
	content, tag, err := m.Encrypt([]byte(identity.String()))
	if err != nil {
		return nil, nil, err
	}

	info := &UserInfo{
		Version:   version,
		PublicKey: identity.Recipient().String(),
		Content:   content,
		Tag:       tag,
	}
	return info, identity, nil
}

// Identity decrypts the private identity and checks it matches PublicKey.
func (u *UserInfo) Identity(secret []byte) (*age.X25519Identity, error) {
	m, err := Derive(u.Version, secret, userInfoUID)
	if err != nil {
		return nil, err
	}
	plaintext, err := m.Decrypt(u.Content, u.Tag)
	if err != nil {
		return nil, fmt.Errorf("user info: %w", err)
	}
	identity, err := age.ParseX25519Identity(string(plaintext))
	if err != nil {
		return nil, fmt.Errorf("%w: user info identity: %v", ErrIntegrity, err)
	}
	if identity.Recipient().String() != u.PublicKey {
		return nil, fmt.Errorf("%w: user info key pair mismatch", ErrIntegrity)
	}
	return identity, nil
}

// Recipient parses the public half.
func (u *UserInfo) Recipient() (*age.X25519Recipient, error) {
	return ParseRecipient(u.PublicKey)
}

// ParseRecipient parses an age X25519 public key string.
func ParseRecipient(publicKey string) (*age.X25519Recipient, error) {
	r, err := age.ParseX25519Recipient(publicKey)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return r, nil
}
