package format

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
)

// ComputeHMAC returns the HMAC-SHA256 integrity tag for a header. The tag is
// computed over the full serialized header with the integrity-tag field
// zeroed; verification must mirror this exactly or no file ever written
// would verify again.
func ComputeHMAC(header *Header, key []byte) ([]byte, error) {
	scratch := *header
	scratch.HMAC = [HMACLen]byte{}

	data, err := scratch.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(data)

	return mac.Sum(nil), nil
}

// SignHeader computes the integrity tag and splices it into the header.
func SignHeader(header *Header, key []byte) error {
	tag, err := ComputeHMAC(header, key)
	if err != nil {
		return err
	}

	copy(header.HMAC[:], tag)

	return nil
}

// VerifyHMAC recomputes the integrity tag and compares it against the one
// carried by the header, in constant time.
func VerifyHMAC(header *Header, key []byte) error {
	computed, err := ComputeHMAC(header, key)
	if err != nil {
		return fmt.Errorf("compute HMAC: %w", err)
	}

	if subtle.ConstantTimeCompare(computed, header.HMAC[:]) != 1 {
		return errors.New("computed HMAC does not match header HMAC")
	}

	return nil
}
