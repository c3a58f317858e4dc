package vault

import (
	"errors"
)

var (
	// ErrFormat means the input is not a vault file: bad magic number,
	// unknown version or cipher id, or a truncated buffer.
	ErrFormat = errors.New("invalid vault file format")

	// ErrWrongPassword covers both a header HMAC mismatch and an AEAD tag
	// failure. Callers cannot distinguish the two causes.
	ErrWrongPassword = errors.New("incorrect password or corrupted file")

	// ErrCorrupted means the payload authenticated and decrypted but does
	// not parse as a vault. Only possible after both integrity checks
	// passed, so it signals a non-password fault.
	ErrCorrupted = errors.New("vault payload is corrupted")

	ErrRecordNotFound   = errors.New("record not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrDuplicateTagName = errors.New("tag name already exists")
	ErrTitleRequired    = errors.New("record title is required")
	ErrSecretRequired   = errors.New("record secret is required")
)
