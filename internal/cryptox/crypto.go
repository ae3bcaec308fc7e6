// Package cryptox holds the cryptographic primitives behind the keychain:
// HKDF and PBKDF2 key derivation, HMAC signing and AES-GCM sealing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophsend/internal/common"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// NonceSize is the AES-GCM IV length.
	NonceSize = 12

	passwordIterations = 100
	passwordKeySize    = 64
)

// DeriveKey expands secret into a size-byte key bound to info using
// HKDF-SHA256 with an empty salt.
func DeriveKey(secret []byte, info string, size int) ([]byte, error) {
	key := make([]byte, size)
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf %s: %w", info, err)
	}
	return key, nil
}

// DerivePasswordKey turns a password into an authentication key, salted
// with the share URL so the same password yields different keys per file.
func DerivePasswordKey(password []byte, salt []byte) []byte {
	return pbkdf2.Key(password, salt, passwordIterations, passwordKeySize, sha256.New)
}

// Sign returns HMAC-SHA256(key, msg).
func Sign(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with AES-GCM under a fresh random IV and returns
// the ciphertext and the IV separately.
func Seal(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	nonce = common.GenerateRandByteArray(NonceSize)
	ciphertext, err = SealWithNonce(key, nonce, plaintext)
	if err != nil {
		return nil, nil, err
	}
	return ciphertext, nonce, nil
}

// SealWithNonce encrypts plaintext with AES-GCM under the given IV.
func SealWithNonce(key, nonce, plaintext []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size %d", len(nonce))
	}
	return aesgcm.Seal(nil, nonce, plaintext, nil), nil
}

// Open authenticates and decrypts ciphertext produced by Seal.
func Open(key, nonce, ciphertext []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size %d", len(nonce))
	}
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}

// SealJSON marshals v and seals it. The IV is prepended to the ciphertext
// so the blob is self-contained.
func SealJSON(key []byte, v any) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	ciphertext, nonce, err := Seal(key, plaintext)
	if err != nil {
		return nil, err
	}
	return append(nonce, ciphertext...), nil
}

// OpenJSON reverses SealJSON into v.
func OpenJSON(key, blob []byte, v any) error {
	if len(blob) < NonceSize {
		return fmt.Errorf("sealed blob too short: %d bytes", len(blob))
	}
	plaintext, err := Open(key, blob[:NonceSize], blob[NonceSize:])
	if err != nil {
		return err
	}
	return json.Unmarshal(plaintext, v)
}
