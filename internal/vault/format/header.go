// Package format implements the fixed-size binary header of the vault file.
//
// The on-disk layout is a 256-byte header followed by a 12-byte nonce and the
// AEAD ciphertext. All integers are little-endian at fixed offsets:
//   - Magic number (4 bytes): "OPWV"
//   - Format version (4 bytes)
//   - Cipher algorithm id (4 bytes)
//   - KDF salt (32 bytes)
//   - KDF iterations (4 bytes)
//   - KDF memory cost (4 bytes, reserved, zero)
//   - KDF parallelism (4 bytes, reserved, zero)
//   - Integrity tag (32 bytes): HMAC-SHA256 over the header
//   - Reserved padding (zero) up to 256 bytes
//
// The fixed total size leaves room for future fields without moving offsets.
package format

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	MagicNumber    = "OPWV"
	MagicNumberLen = len(MagicNumber)
	VersionLen     = 4
	CipherIDLen    = 4
	SaltLen        = 32
	IterationsLen  = 4
	MemoryCostLen  = 4
	ParallelismLen = 4
	HMACLen        = sha256.Size
	TotalHeaderLen = 256
	NonceLen       = 12
)

const (
	magicOffset       = 0
	versionOffset     = magicOffset + MagicNumberLen
	cipherIDOffset    = versionOffset + VersionLen
	saltOffset        = cipherIDOffset + CipherIDLen
	iterationsOffset  = saltOffset + SaltLen
	memoryCostOffset  = iterationsOffset + IterationsLen
	parallelismOffset = memoryCostOffset + MemoryCostLen
	HMACOffset        = parallelismOffset + ParallelismLen
	reservedOffset    = HMACOffset + HMACLen
	ReservedLen       = TotalHeaderLen - reservedOffset
)

type Version uint32

func (v Version) String() string {
	return fmt.Sprintf("v%d", uint32(v))
}

const (
	VersionUnknown Version = 0
	VersionV1      Version = 1
)

// CipherID identifies the AEAD algorithm used for the payload.
type CipherID uint32

const (
	CipherUnknown          CipherID = 0
	CipherAESGCM           CipherID = 1
	CipherChaCha20Poly1305 CipherID = 2
)

func (c CipherID) String() string {
	switch c {
	case CipherAESGCM:
		return "aes-256-gcm"
	case CipherChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(c))
	}
}

// Header is the decoded form of the on-disk header. Validation of the magic
// number, version and cipher id belongs to the caller; this type only does
// lossless structural (de)serialization.
type Header struct {
	Magic       [MagicNumberLen]byte
	Version     Version
	CipherID    CipherID
	Salt        [SaltLen]byte
	Iterations  uint32
	MemoryCost  uint32
	Parallelism uint32
	HMAC        [HMACLen]byte

	// Reserved round-trips verbatim so the integrity tag covers the whole
	// header. New files write it as zeros.
	Reserved [ReservedLen]byte
}

// MarshalBinary implements [encoding.BinaryMarshaler].
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, TotalHeaderLen)

	copy(buf[magicOffset:], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[versionOffset:], uint32(h.Version))
	binary.LittleEndian.PutUint32(buf[cipherIDOffset:], uint32(h.CipherID))
	copy(buf[saltOffset:], h.Salt[:])
	binary.LittleEndian.PutUint32(buf[iterationsOffset:], h.Iterations)
	binary.LittleEndian.PutUint32(buf[memoryCostOffset:], h.MemoryCost)
	binary.LittleEndian.PutUint32(buf[parallelismOffset:], h.Parallelism)
	copy(buf[HMACOffset:], h.HMAC[:])
	copy(buf[reservedOffset:], h.Reserved[:])

	return buf, nil
}

// UnmarshalBinary implements [encoding.BinaryUnmarshaler].
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) != TotalHeaderLen {
		return fmt.Errorf("invalid length: got %d, expected %d", len(data), TotalHeaderLen)
	}

	copy(h.Magic[:], data[magicOffset:versionOffset])
	h.Version = Version(binary.LittleEndian.Uint32(data[versionOffset:]))
	h.CipherID = CipherID(binary.LittleEndian.Uint32(data[cipherIDOffset:]))
	copy(h.Salt[:], data[saltOffset:iterationsOffset])
	h.Iterations = binary.LittleEndian.Uint32(data[iterationsOffset:])
	h.MemoryCost = binary.LittleEndian.Uint32(data[memoryCostOffset:])
	h.Parallelism = binary.LittleEndian.Uint32(data[parallelismOffset:])
	copy(h.HMAC[:], data[HMACOffset:reservedOffset])
	copy(h.Reserved[:], data[reservedOffset:])

	return nil
}

// ParseHeader parses a Header from an [io.Reader] and returns the header and
// a reader positioned at the remaining data.
func ParseHeader(input io.Reader) (*Header, io.Reader, error) {
	if input == nil {
		return nil, nil, errors.New("input reader cannot be nil")
	}

	headerBuf := make([]byte, TotalHeaderLen)
	n, err := io.ReadFull(input, headerBuf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = fmt.Errorf("truncated: expected %d bytes, read %d: %w", TotalHeaderLen, n, err)
		}

		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var header Header
	if err := header.UnmarshalBinary(headerBuf); err != nil {
		return nil, nil, fmt.Errorf("unmarshal header: %w", err)
	}

	return &header, input, nil
}
