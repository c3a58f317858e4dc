package vault_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/MattSzymonski/Own-Password/internal/krypto"
	"github.com/MattSzymonski/Own-Password/internal/krypto/aesgcm"
	"github.com/MattSzymonski/Own-Password/internal/testlog"
	"github.com/MattSzymonski/Own-Password/internal/vault"
	"github.com/MattSzymonski/Own-Password/internal/vault/format"
	"github.com/stretchr/testify/require"
)

// testIterations keeps the deliberately slow KDF fast enough for tests.
const testIterations uint32 = 2_000

var password = []byte("correct-horse-battery-staple12")

func newTestCodec(t *testing.T, opts ...func(*vault.Codec)) *vault.Codec {
	t.Helper()

	opts = append([]func(*vault.Codec){
		vault.WithIterations(testIterations),
		vault.WithLogger(testlog.New(t)),
	}, opts...)

	codec, err := vault.NewCodec(opts...)
	require.NoError(t, err)

	return codec
}

func buildVault(t *testing.T) vault.Vault {
	t.Helper()

	ctx := context.Background()

	v := vault.New()
	v, _, err := v.AddTag(ctx, "work", "#00aaff")
	require.NoError(t, err)

	v, _, err = v.AddRecord(ctx, vault.Record{
		Title:    "GitHub",
		Login:    "me@x.com",
		Secret:   "p@ss",
		URL:      "https://github.com",
		TagNames: []string{"work"},
	})
	require.NoError(t, err)

	v, _, err = v.AddRecord(ctx, vault.Record{
		Title:  "Email",
		Login:  "me@mail.com",
		Secret: "hunter2",
		Notes:  "personal mailbox",
	})
	require.NoError(t, err)

	return v
}

func encode(t *testing.T, codec *vault.Codec, v vault.Vault, password []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(context.Background(), &buf, password, v))

	return buf.Bytes()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	v := buildVault(t)

	data := encode(t, codec, v, password)
	require.Greater(t, len(data), format.TotalHeaderLen+format.NonceLen)

	decoded, err := codec.Decode(context.Background(), bytes.NewReader(data), password)
	require.NoError(t, err)

	// Everything except the vault-level modifiedAt, which encode refreshes,
	// must survive the round trip unchanged.
	require.Equal(t, v.FormatVersion, decoded.FormatVersion)
	require.Equal(t, v.CreatedAt, decoded.CreatedAt)
	require.Equal(t, v.Records, decoded.Records)
	require.Equal(t, v.Tags, decoded.Tags)
	require.False(t, decoded.ModifiedAt.Before(v.ModifiedAt))
}

func TestDecodeWrongPassword(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	data := encode(t, codec, buildVault(t), password)

	_, err := codec.Decode(context.Background(), bytes.NewReader(data), []byte("wrong-password"))
	require.ErrorIs(t, err, vault.ErrWrongPassword)
}

func TestTamperDetection(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	data := encode(t, codec, buildVault(t), password)

	// Flipping any single bit anywhere in the file must make decode fail:
	// in the header via the integrity tag (or the format checks), in the
	// nonce or ciphertext via the AEAD tag.
	for offset := 0; offset < len(data); offset++ {
		tampered := append([]byte(nil), data...)
		tampered[offset] ^= 1 << (offset % 8)

		_, err := codec.Decode(context.Background(), bytes.NewReader(tampered), password)
		require.Errorf(t, err, "bit flip at offset %d went undetected", offset)
	}
}

func TestEncodeFreshSaltAndNonce(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	v := buildVault(t)

	first := encode(t, codec, v, password)
	second := encode(t, codec, v, password)

	require.NotEqual(t, first, second)

	// Specifically the stored salts must differ, not just the ciphertext.
	var h1, h2 format.Header
	require.NoError(t, h1.UnmarshalBinary(first[:format.TotalHeaderLen]))
	require.NoError(t, h2.UnmarshalBinary(second[:format.TotalHeaderLen]))
	require.NotEqual(t, h1.Salt, h2.Salt)
}

func TestDecodeFormatErrors(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	valid := encode(t, codec, buildVault(t), password)

	patch := func(offset int, value byte) []byte {
		out := append([]byte(nil), valid...)
		out[offset] = value
		return out
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"truncated header", valid[:format.TotalHeaderLen-1]},
		{"missing nonce", valid[:format.TotalHeaderLen+3]},
		{"truncated ciphertext", valid[:format.TotalHeaderLen+format.NonceLen+8]},
		{"bad magic", patch(0, 'X')},
		{"unknown version", patch(4, 99)},
		{"unknown cipher id", patch(8, 99)},
		{"zero iterations header", func() []byte {
			out := append([]byte(nil), valid...)
			copy(out[44:48], []byte{0, 0, 0, 0})
			return out
		}()},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := codec.Decode(context.Background(), bytes.NewReader(test.data), password)
			require.ErrorIs(t, err, vault.ErrFormat)
		})
	}
}

// TestDecodeCorruptedPayload builds a file whose header authenticates and
// whose payload decrypts, but whose plaintext is not a vault. This is the
// only failure that may surface distinctly from a wrong password, because it
// can only happen after both integrity checks passed.
func TestDecodeCorruptedPayload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	params := krypto.Params{Iterations: testIterations}

	salt, err := krypto.GenerateSalt()
	require.NoError(t, err)

	macKey, err := krypto.DeriveIntegrityKey(ctx, password, salt, params)
	require.NoError(t, err)
	encKey, err := krypto.DeriveEncryptionKey(ctx, password, salt, params)
	require.NoError(t, err)

	cipher, err := aesgcm.New(encKey)
	require.NoError(t, err)
	cipherText, nonce, err := cipher.Encrypt(ctx, []byte("not a vault payload"), nil)
	require.NoError(t, err)

	header := &format.Header{
		Version:    format.VersionV1,
		CipherID:   format.CipherAESGCM,
		Iterations: params.Iterations,
	}
	copy(header.Magic[:], format.MagicNumber)
	copy(header.Salt[:], salt)
	require.NoError(t, format.SignHeader(header, macKey))

	headerBytes, err := header.MarshalBinary()
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.Write(headerBytes)
	buf.Write(nonce)
	buf.Write(cipherText)

	codec := newTestCodec(t)
	_, err = codec.Decode(ctx, bytes.NewReader(buf.Bytes()), password)
	require.ErrorIs(t, err, vault.ErrCorrupted)
	require.NotErrorIs(t, err, vault.ErrWrongPassword)
}

func TestDecodeFollowsHeaderCipher(t *testing.T) {
	t.Parallel()

	// The decoder picks the AEAD from the header, so a file written with
	// ChaCha20-Poly1305 opens with a codec configured for AES-GCM.
	writer := newTestCodec(t, vault.WithCipher(format.CipherChaCha20Poly1305))
	reader := newTestCodec(t)

	v := buildVault(t)
	data := encode(t, writer, v, password)

	decoded, err := reader.Decode(context.Background(), bytes.NewReader(data), password)
	require.NoError(t, err)
	require.Equal(t, v.Records, decoded.Records)
}

func TestMergesDuplicateTagsOnDecode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	codec := newTestCodec(t)

	// Pre-normalization vaults could hold tags whose names collide
	// case-insensitively. The first occurrence wins on load.
	v := vault.New()
	v.Tags = []vault.Tag{
		{ID: "a", Name: "Work", Color: "red"},
		{ID: "b", Name: "work", Color: "blue"},
		{ID: "c", Name: "home", Color: "green"},
	}

	decoded, err := codec.Decode(ctx, bytes.NewReader(encode(t, codec, v, password)), password)
	require.NoError(t, err)

	require.Len(t, decoded.Tags, 2)
	require.Equal(t, "Work", decoded.Tags[0].Name)
	require.Equal(t, "red", decoded.Tags[0].Color)
	require.Equal(t, "home", decoded.Tags[1].Name)
}

// TestCreateEncodeDecodeScenario walks the end-to-end flow: create an empty
// vault, add a credential, save it, reopen it with the right and the wrong
// password.
func TestCreateEncodeDecodeScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	codec := newTestCodec(t)

	v := vault.New()
	v, added, err := v.AddRecord(ctx, vault.Record{
		Title:    "GitHub",
		Login:    "me@x.com",
		Secret:   "p@ss",
		TagNames: []string{"work"},
	})
	require.NoError(t, err)

	data := encode(t, codec, v, password)

	decoded, err := codec.Decode(ctx, bytes.NewReader(data), password)
	require.NoError(t, err)
	require.Len(t, decoded.Records, 1)

	got := decoded.Records[0]
	require.Equal(t, added.ID, got.ID)
	require.Equal(t, "GitHub", got.Title)
	require.Equal(t, "me@x.com", got.Login)
	require.Equal(t, "p@ss", got.Secret)
	require.Equal(t, []string{"work"}, got.TagNames)

	_, err = codec.Decode(ctx, bytes.NewReader(data), []byte("wrong-password"))
	require.ErrorIs(t, err, vault.ErrWrongPassword)
}

func FuzzDecode(f *testing.F) {
	codec, err := vault.NewCodec(vault.WithIterations(testIterations))
	if err != nil {
		f.Fatal(err)
	}

	var buf bytes.Buffer
	if err := codec.Encode(context.Background(), &buf, password, vault.New()); err != nil {
		f.Fatal(err)
	}

	f.Add(buf.Bytes())
	f.Add([]byte(format.MagicNumber))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		// Decode must never panic, whatever the input.
		_, _ = codec.Decode(context.Background(), bytes.NewReader(data), password)
	})
}
