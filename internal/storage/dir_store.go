package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const vaultFileExt = ".vault"

var _ BlobStore = (*DirStore)(nil)

// DirStore keeps each blob as one file under a directory, mode 0600.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	return &DirStore{dir: dir}, nil
}

func (s *DirStore) ReadBlob(_ context.Context, name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}

	return data, nil
}

func (s *DirStore) WriteBlob(_ context.Context, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	// Write-then-rename so a crash mid-write never clobbers the old file.
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("write blob: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write blob: %w", err)
	}

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write blob: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write blob: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write blob: %w", err)
	}

	return nil
}

func (s *DirStore) ListBlobs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), vaultFileExt) {
			continue
		}

		names = append(names, strings.TrimSuffix(entry.Name(), vaultFileExt))
	}

	return names, nil
}

func (s *DirStore) DeleteBlob(_ context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}

	return nil
}

func (s *DirStore) path(name string) string {
	return filepath.Join(s.dir, name+vaultFileExt)
}
