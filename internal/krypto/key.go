package krypto

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/pbkdf2"
)

const (
	MinPasswordLength = 1
	MaxPasswordLength = 256
	KeySize           = 32
	SaltSize          = 32

	// DefaultIterations is the PBKDF2-HMAC-SHA256 iteration count used when
	// writing new vault files. The count actually used on read comes from the
	// file header, so raising this constant keeps old files decryptable.
	DefaultIterations uint32 = 600_000

	// MinIterations is the floor accepted from a file header. Anything below
	// this would make the derivation worthless against offline guessing.
	MinIterations uint32 = 1_000

	// MaxIterations bounds the work a forged header can make us perform
	// before its integrity tag has been verified.
	MaxIterations uint32 = 100_000_000
)

var ErrInvalidUTF8 = errors.New("password contains invalid UTF-8 characters")

// Domain-separation labels appended to the stored salt. The encryption and
// integrity keys must stay cryptographically independent even though both
// come from the same password and salt.
var (
	labelEncryption = []byte("enc")
	labelIntegrity  = []byte("mac")
)

// Params carries the key-derivation parameters stored in a vault file header.
// MemoryCost and Parallelism are reserved for a future memory-hard KDF and
// must be zero in the current format.
type Params struct {
	Iterations  uint32
	MemoryCost  uint32
	Parallelism uint32
}

func (p Params) Validate(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, &p,
		validation.Field(&p.Iterations, validation.Required, validation.Min(MinIterations), validation.Max(MaxIterations)),
		validation.Field(&p.MemoryCost, validation.In(uint32(0))),
		validation.Field(&p.Parallelism, validation.In(uint32(0))),
	)
}

func DefaultParams() Params {
	return Params{
		Iterations: DefaultIterations,
	}
}

// GenerateSalt returns SaltSize bytes of cryptographically secure randomness.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("random salt: %w", err)
	}

	return salt, nil
}

// DeriveEncryptionKey derives the 256-bit payload encryption key from a
// master password using PBKDF2-HMAC-SHA256.
func DeriveEncryptionKey(ctx context.Context, password []byte, salt []byte, params Params) ([]byte, error) {
	return deriveKey(ctx, password, salt, labelEncryption, params)
}

// DeriveIntegrityKey derives the 256-bit header HMAC key. It is independent
// of the encryption key: recovering one must not reveal the other.
func DeriveIntegrityKey(ctx context.Context, password []byte, salt []byte, params Params) ([]byte, error) {
	return deriveKey(ctx, password, salt, labelIntegrity, params)
}

func deriveKey(ctx context.Context, password []byte, salt []byte, label []byte, params Params) ([]byte, error) {
	// An empty salt is a caller bug, not a runtime condition.
	if len(salt) == 0 {
		panic("krypto: key derivation with empty salt")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("password length must be at least %d characters, got %d", MinPasswordLength, len(password))
	}

	if len(password) > MaxPasswordLength {
		return nil, fmt.Errorf("password exceeds maximum length of %d characters, got %d", MaxPasswordLength, len(password))
	}

	if !utf8.Valid(password) {
		return nil, ErrInvalidUTF8
	}

	if err := params.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid KDF parameters: %w", err)
	}

	labelledSalt := make([]byte, 0, len(salt)+len(label))
	labelledSalt = append(labelledSalt, salt...)
	labelledSalt = append(labelledSalt, label...)

	return pbkdf2.Key(password, labelledSalt, int(params.Iterations), KeySize, sha256.New), nil
}
