package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/MattSzymonski/Own-Password/internal/krypto"
	"github.com/MattSzymonski/Own-Password/internal/krypto/aesgcm"
	"github.com/MattSzymonski/Own-Password/internal/krypto/chacha"
	"github.com/MattSzymonski/Own-Password/internal/vault/format"
)

// Codec turns a Vault into an encrypted file and back. Each call is
// independent given its inputs; a Codec holds no mutable state and is safe
// for concurrent use. Encode and Decode are deliberately slow (the KDF runs
// hundreds of milliseconds at default parameters), so callers should treat
// them as long-running.
type Codec struct {
	logger   *slog.Logger
	params   krypto.Params
	cipherID format.CipherID
}

func WithLogger(logger *slog.Logger) func(*Codec) {
	return func(c *Codec) {
		c.logger = logger
	}
}

// WithIterations overrides the PBKDF2 iteration count used when encoding.
func WithIterations(n uint32) func(*Codec) {
	return func(c *Codec) {
		c.params.Iterations = n
	}
}

// WithCipher selects the payload AEAD algorithm used when encoding.
func WithCipher(id format.CipherID) func(*Codec) {
	return func(c *Codec) {
		c.cipherID = id
	}
}

func NewCodec(opts ...func(*Codec)) (*Codec, error) {
	c := &Codec{
		params:   krypto.DefaultParams(),
		cipherID: format.CipherAESGCM,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c.logger = c.logger.WithGroup("vault").With(slog.String("version", format.VersionV1.String()))

	if err := c.params.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid KDF parameters: %w", err)
	}

	if _, err := newCipher(c.cipherID, make([]byte, krypto.KeySize)); err != nil {
		return nil, err
	}

	return c, nil
}

// Encode writes the vault as header || nonce || ciphertext. A fresh salt and
// nonce are generated on every call, so encoding the same vault twice never
// produces the same bytes, and nonce reuse under one key is structurally
// impossible. The vault-level modifiedAt is refreshed in the written copy.
func (c *Codec) Encode(ctx context.Context, output io.Writer, password []byte, v Vault) error {
	if output == nil {
		return errors.New("output writer cannot be nil")
	}

	salt, err := krypto.GenerateSalt()
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	macKey, err := krypto.DeriveIntegrityKey(ctx, password, salt, c.params)
	if err != nil {
		return fmt.Errorf("integrity key derivation failed: %w", err)
	}
	defer krypto.Zero(macKey)

	encKey, err := krypto.DeriveEncryptionKey(ctx, password, salt, c.params)
	if err != nil {
		return fmt.Errorf("encryption key derivation failed: %w", err)
	}
	defer krypto.Zero(encKey)

	cipher, err := newCipher(c.cipherID, encKey)
	if err != nil {
		return err
	}

	payload := clone(v)
	payload.FormatVersion = FormatVersionV1
	payload.touch()

	plainText, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}
	defer krypto.Zero(plainText)

	c.logger.Debug("encrypting vault",
		slog.Int("records", len(payload.Records)),
		slog.Int("tags", len(payload.Tags)),
		slog.String("cipher", c.cipherID.String()),
	)

	cipherText, nonce, err := cipher.Encrypt(ctx, plainText, nil)
	if err != nil {
		return fmt.Errorf("vault encryption: %w", err)
	}

	header := &format.Header{
		Version:    format.VersionV1,
		CipherID:   c.cipherID,
		Iterations: c.params.Iterations,
	}
	copy(header.Magic[:], format.MagicNumber)
	copy(header.Salt[:], salt)

	if err := format.SignHeader(header, macKey); err != nil {
		return fmt.Errorf("sign header: %w", err)
	}

	headerBytes, err := header.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	if _, err := output.Write(headerBytes); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if _, err := output.Write(nonce); err != nil {
		return fmt.Errorf("failed to write nonce: %w", err)
	}

	if _, err := output.Write(cipherText); err != nil {
		return fmt.Errorf("failed to write ciphertext: %w", err)
	}

	return nil
}

// Decode reads an encrypted vault. The header integrity tag is verified
// before any decryption is attempted; both a tag mismatch and an AEAD
// failure surface as ErrWrongPassword. A payload that authenticates but
// fails to parse surfaces as ErrCorrupted instead, it cannot be caused by a
// bad password. Nothing is retried: a failed decode with one password will
// fail again with the same password.
func (c *Codec) Decode(ctx context.Context, input io.Reader, password []byte) (Vault, error) {
	if input == nil {
		return Vault{}, errors.New("input reader cannot be nil")
	}

	header, r, err := format.ParseHeader(input)
	if err != nil {
		return Vault{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	if string(header.Magic[:]) != format.MagicNumber {
		return Vault{}, fmt.Errorf("%w: unrecognized magic number %q", ErrFormat, header.Magic[:])
	}

	if header.Version != format.VersionV1 {
		return Vault{}, fmt.Errorf("%w: unsupported version %s", ErrFormat, header.Version)
	}

	if header.CipherID != format.CipherAESGCM && header.CipherID != format.CipherChaCha20Poly1305 {
		return Vault{}, fmt.Errorf("%w: unsupported cipher %s", ErrFormat, header.CipherID)
	}

	params := krypto.Params{
		Iterations:  header.Iterations,
		MemoryCost:  header.MemoryCost,
		Parallelism: header.Parallelism,
	}
	if err := params.Validate(ctx); err != nil {
		return Vault{}, fmt.Errorf("%w: invalid KDF parameters: %v", ErrFormat, err)
	}

	macKey, err := krypto.DeriveIntegrityKey(ctx, password, header.Salt[:], params)
	if err != nil {
		return Vault{}, fmt.Errorf("integrity key derivation failed: %w", err)
	}
	defer krypto.Zero(macKey)

	if err := format.VerifyHMAC(header, macKey); err != nil {
		return Vault{}, ErrWrongPassword
	}

	nonce := make([]byte, format.NonceLen)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return Vault{}, fmt.Errorf("%w: truncated nonce", ErrFormat)
	}

	cipherText, err := io.ReadAll(r)
	if err != nil {
		return Vault{}, fmt.Errorf("read ciphertext: %w", err)
	}

	// Both supported AEADs append a 16-byte tag.
	if len(cipherText) < 16 {
		return Vault{}, fmt.Errorf("%w: truncated ciphertext", ErrFormat)
	}

	encKey, err := krypto.DeriveEncryptionKey(ctx, password, header.Salt[:], params)
	if err != nil {
		return Vault{}, fmt.Errorf("encryption key derivation failed: %w", err)
	}
	defer krypto.Zero(encKey)

	cipher, err := newCipher(header.CipherID, encKey)
	if err != nil {
		return Vault{}, err
	}

	c.logger.Debug("decrypting vault",
		slog.Int("ciphertext.size", len(cipherText)),
		slog.String("cipher", header.CipherID.String()),
	)

	plainText, err := cipher.Decrypt(ctx, cipherText, nonce, nil)
	if err != nil {
		return Vault{}, ErrWrongPassword
	}
	defer krypto.Zero(plainText)

	var v Vault
	if err := json.Unmarshal(plainText, &v); err != nil {
		return Vault{}, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	if v.FormatVersion == "" {
		return Vault{}, fmt.Errorf("%w: missing format version", ErrCorrupted)
	}

	v.normalize()

	return v, nil
}

func newCipher(id format.CipherID, key []byte) (krypto.Cipher, error) {
	switch id {
	case format.CipherAESGCM:
		return aesgcm.New(key)
	case format.CipherChaCha20Poly1305:
		return chacha.New(key)
	default:
		return nil, fmt.Errorf("%w: unsupported cipher %s", ErrFormat, id)
	}
}
