// Package storage persists encrypted vault files as opaque byte blobs.
// Stores never inspect or transform the bytes they hold; everything
// cryptographic happens before a blob reaches this layer.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("blob not found")
	ErrInvalidName = errors.New("invalid blob name")
)

// BlobStore is the collaborator interface the vault core expects from any
// storage backend, local or remote.
type BlobStore interface {
	ReadBlob(ctx context.Context, name string) ([]byte, error)
	WriteBlob(ctx context.Context, name string, data []byte) error
	ListBlobs(ctx context.Context) ([]string, error)
	DeleteBlob(ctx context.Context, name string) error
}

// validateName rejects names that could escape the store's namespace.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidName, name)
	}

	return nil
}
