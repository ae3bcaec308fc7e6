// Package keychain implements the per-file capability: it owns the secret
// key of a shared file, the keys derived from it and the last nonce issued
// by the server for that file.
package keychain

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophsend/internal/client/models"
	"github.com/dmitrijs2005/gophsend/internal/common"
	"github.com/dmitrijs2005/gophsend/internal/cryptox"
)

const (
	SecretSize = 16

	encryptKeySize = 16
	metaKeySize    = 16
	authKeySize    = 64
)

// Keychain is safe for concurrent use. Lock/Unlock do not guard the fields;
// they serialize whole request exchanges made with this keychain so a
// nonce-rotating retry is never interleaved with another request.
type Keychain struct {
	seq sync.Mutex

	mu         sync.RWMutex
	secret     []byte
	encryptKey []byte
	metaKey    []byte
	authKey    []byte
	nonce      string
}

// New creates a keychain with a fresh random secret.
func New() *Keychain {
	k, err := FromSecret(common.GenerateRandByteArray(SecretSize), "")
	if err != nil {
		// derivation from a well-sized random secret cannot fail
		panic(err)
	}
	return k
}

// FromSecret restores a keychain from its raw secret and last known nonce.
func FromSecret(secret []byte, nonce string) (*Keychain, error) {
	if len(secret) == 0 {
		return nil, common.ErrInvalidSecret
	}
	k := &Keychain{secret: append([]byte(nil), secret...), nonce: nonce}

	var err error
	if k.encryptKey, err = cryptox.DeriveKey(secret, "encryption", encryptKeySize); err != nil {
		return nil, err
	}
	if k.metaKey, err = cryptox.DeriveKey(secret, "metadata", metaKeySize); err != nil {
		return nil, err
	}
	if k.authKey, err = cryptox.DeriveKey(secret, "authentication", authKeySize); err != nil {
		return nil, err
	}
	return k, nil
}

// FromSecretB64 is FromSecret for the base64url form used in share links.
func FromSecretB64(secret string, nonce string) (*Keychain, error) {
	raw, err := common.DecodeB64(secret)
	if err != nil || len(raw) == 0 {
		return nil, common.ErrInvalidSecret
	}
	return FromSecret(raw, nonce)
}

func (k *Keychain) Lock()   { k.seq.Lock() }
func (k *Keychain) Unlock() { k.seq.Unlock() }

func (k *Keychain) Nonce() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.nonce
}

func (k *Keychain) SetNonce(nonce string) {
	k.mu.Lock()
	k.nonce = nonce
	k.mu.Unlock()
}

// SecretB64 returns the secret in the form appended to share URLs.
func (k *Keychain) SecretB64() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return common.EncodeB64(k.secret)
}

// AuthKeyB64 returns the current authentication key. It doubles as the
// upload verifier and as the payload of a password change.
func (k *Keychain) AuthKeyB64() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return common.EncodeB64(k.authKey)
}

// SetPassword replaces the authentication key with one derived from the
// password, salted with the share URL (without fragment).
func (k *Keychain) SetPassword(password []byte, shareURL string) {
	key := cryptox.DerivePasswordKey(password, []byte(shareURL))
	k.mu.Lock()
	k.authKey = key
	k.mu.Unlock()
}

// ClearPassword restores the authentication key derived from the secret.
func (k *Keychain) ClearPassword() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	key, err := cryptox.DeriveKey(k.secret, "authentication", authKeySize)
	if err != nil {
		return err
	}
	k.authKey = key
	return nil
}

// AuthHeader signs the current nonce with the authentication key.
func (k *Keychain) AuthHeader(_ context.Context) (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	nonce, err := common.DecodeB64(k.nonce)
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	sig := cryptox.Sign(k.authKey, nonce)
	return common.AuthScheme + " " + common.EncodeB64(sig), nil
}

// Encrypt seals file content and returns the ciphertext and its IV.
func (k *Keychain) Encrypt(plaintext []byte) (ciphertext, iv []byte, err error) {
	return cryptox.Seal(k.encryptKey, plaintext)
}

func (k *Keychain) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	pt, err := cryptox.Open(k.encryptKey, iv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt content: %w", err)
	}
	return pt, nil
}

func (k *Keychain) EncryptMetadata(meta models.FileMetadata) ([]byte, error) {
	return cryptox.SealJSON(k.metaKey, meta)
}

func (k *Keychain) DecryptMetadata(blob []byte) (models.FileMetadata, error) {
	var meta models.FileMetadata
	if err := cryptox.OpenJSON(k.metaKey, blob, &meta); err != nil {
		return models.FileMetadata{}, fmt.Errorf("decrypt metadata: %w", err)
	}
	return meta, nil
}
