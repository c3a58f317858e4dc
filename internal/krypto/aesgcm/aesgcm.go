// Package aesgcm wraps AES-256-GCM behind the krypto.Cipher interface.
package aesgcm

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/MattSzymonski/Own-Password/internal/krypto"
)

var _ krypto.Cipher = (*AESGCM)(nil)

const (
	KeySize   = 32
	NonceSize = 12
)

type AESGCM struct {
	cipher cipher.AEAD
}

// New creates a new AES-256-GCM cipher with the given key.
func New(key []byte) (*AESGCM, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCM{cipher: aead}, nil
}

// Encrypt seals the plaintext under a freshly random 96-bit nonce. The nonce
// is returned alongside the ciphertext and must never be reused with the
// same key.
func (a *AESGCM) Encrypt(ctx context.Context, plainText []byte, additionalData []byte) (cipherText []byte, nonce []byte, err error) {
	nonce = make([]byte, a.cipher.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate random nonce: %w", err)
	}

	cipherText = a.cipher.Seal(nil, nonce, plainText, additionalData)

	return cipherText, nonce, nil
}

// Decrypt opens the ciphertext. A tag mismatch yields an opaque error that
// carries nothing beyond "decryption failed".
func (a *AESGCM) Decrypt(ctx context.Context, cipherText []byte, nonce []byte, additionalData []byte) (plainText []byte, err error) {
	plainText, err = a.cipher.Open(nil, nonce, cipherText, additionalData)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plainText, nil
}
