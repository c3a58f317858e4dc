// Package krypto provides the key-derivation and authenticated-encryption
// primitives used by the vault file format.
package krypto

import (
	"context"
)

// Cipher is an AEAD cipher bound to a single symmetric key.
type Cipher interface {
	Encrypt(ctx context.Context, plainText []byte, additionalData []byte) (cipherText []byte, nonce []byte, err error)
	Decrypt(ctx context.Context, cipherText []byte, nonce []byte, additionalData []byte) (plainText []byte, err error)
}

// Zero overwrites a byte slice in memory with zeros. Best effort: the runtime
// may have copied the data elsewhere.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
