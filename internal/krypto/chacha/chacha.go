// Package chacha wraps ChaCha20-Poly1305 behind the krypto.Cipher interface.
package chacha

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/MattSzymonski/Own-Password/internal/krypto"
	"golang.org/x/crypto/chacha20poly1305"
)

var _ krypto.Cipher = (*ChaCha20Poly1305)(nil)

const (
	KeySize   = chacha20poly1305.KeySize
	NonceSize = chacha20poly1305.NonceSize
)

type ChaCha20Poly1305 struct {
	cipher cipher.AEAD
}

// New creates a new ChaCha20-Poly1305 cipher with the given key.
func New(key []byte) (*ChaCha20Poly1305, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &ChaCha20Poly1305{cipher: aead}, nil
}

// Encrypt seals the plaintext under a freshly random 96-bit nonce.
func (c *ChaCha20Poly1305) Encrypt(ctx context.Context, plainText []byte, additionalData []byte) (cipherText []byte, nonce []byte, err error) {
	nonce = make([]byte, c.cipher.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate random nonce: %w", err)
	}

	cipherText = c.cipher.Seal(nil, nonce, plainText, additionalData)

	return cipherText, nonce, nil
}

// Decrypt opens the ciphertext, failing opaquely on a tag mismatch.
func (c *ChaCha20Poly1305) Decrypt(ctx context.Context, cipherText []byte, nonce []byte, additionalData []byte) (plainText []byte, err error) {
	plainText, err = c.cipher.Open(nil, nonce, cipherText, additionalData)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plainText, nil
}
