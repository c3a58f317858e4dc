package aesgcm_test

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/MattSzymonski/Own-Password/internal/krypto/aesgcm"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) []byte {
	t.Helper()

	key := make([]byte, aesgcm.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	return key
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects short key", func(t *testing.T) {
		t.Parallel()

		_, err := aesgcm.New(make([]byte, 16))
		require.ErrorContains(t, err, "key must be 32 bytes")
	})

	t.Run("accepts 32-byte key", func(t *testing.T) {
		t.Parallel()

		cipher, err := aesgcm.New(newKey(t))
		require.NoError(t, err)
		require.NotNil(t, cipher)
	})
}

func TestEncryptDecrypt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("round trips plaintext", func(t *testing.T) {
		t.Parallel()

		cipher, err := aesgcm.New(newKey(t))
		require.NoError(t, err)

		plainText := []byte("attack at dawn")
		cipherText, nonce, err := cipher.Encrypt(ctx, plainText, nil)
		require.NoError(t, err)
		require.Len(t, nonce, aesgcm.NonceSize)
		require.NotEqual(t, plainText, cipherText)

		decrypted, err := cipher.Decrypt(ctx, cipherText, nonce, nil)
		require.NoError(t, err)
		require.Equal(t, plainText, decrypted)
	})

	t.Run("generates a fresh nonce per call", func(t *testing.T) {
		t.Parallel()

		cipher, err := aesgcm.New(newKey(t))
		require.NoError(t, err)

		_, nonce1, err := cipher.Encrypt(ctx, []byte("data"), nil)
		require.NoError(t, err)
		_, nonce2, err := cipher.Encrypt(ctx, []byte("data"), nil)
		require.NoError(t, err)

		require.NotEqual(t, nonce1, nonce2)
	})

	t.Run("fails on wrong key", func(t *testing.T) {
		t.Parallel()

		cipher, err := aesgcm.New(newKey(t))
		require.NoError(t, err)

		cipherText, nonce, err := cipher.Encrypt(ctx, []byte("secret"), nil)
		require.NoError(t, err)

		other, err := aesgcm.New(newKey(t))
		require.NoError(t, err)

		_, err = other.Decrypt(ctx, cipherText, nonce, nil)
		require.ErrorContains(t, err, "decryption failed")
	})

	t.Run("fails on tampered ciphertext", func(t *testing.T) {
		t.Parallel()

		cipher, err := aesgcm.New(newKey(t))
		require.NoError(t, err)

		cipherText, nonce, err := cipher.Encrypt(ctx, []byte("secret"), nil)
		require.NoError(t, err)

		cipherText[0] ^= 0x01

		_, err = cipher.Decrypt(ctx, cipherText, nonce, nil)
		require.ErrorContains(t, err, "decryption failed")
	})

	t.Run("authenticates additional data", func(t *testing.T) {
		t.Parallel()

		cipher, err := aesgcm.New(newKey(t))
		require.NoError(t, err)

		cipherText, nonce, err := cipher.Encrypt(ctx, []byte("secret"), []byte("aad"))
		require.NoError(t, err)

		_, err = cipher.Decrypt(ctx, cipherText, nonce, []byte("other"))
		require.ErrorContains(t, err, "decryption failed")

		plainText, err := cipher.Decrypt(ctx, cipherText, nonce, []byte("aad"))
		require.NoError(t, err)
		require.Equal(t, []byte("secret"), plainText)
	})
}
