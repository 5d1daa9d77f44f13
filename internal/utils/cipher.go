package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Connection passwords are envelope-encrypted before they reach the
// database: XChaCha20-Poly1305 with a random 24-byte nonce, stored as
// base64(nonce || ciphertext).  The 32-byte master key comes from config.

// ErrCipher covers every decryption failure (bad key, truncated or
// tampered payload) without revealing which.
var ErrCipher = errors.New("cannot decrypt secret")

// EncryptSecret seals plaintext under key.
func EncryptSecret(key []byte, plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptSecret opens a value produced by EncryptSecret.
func DecryptSecret(key []byte, encoded string) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrCipher
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrCipher
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrCipher
	}
	return string(plain), nil
}
