package storage

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var vaultsBucket = []byte("vaults")

var _ BlobStore = (*BoltStore)(nil)

// BoltStore keeps all blobs inside a single bbolt database file. It is the
// single-file counterpart to DirStore for hosts that sync one file around.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open store database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(vaultsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) ReadBlob(_ context.Context, name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(vaultsBucket).Get([]byte(name))
		if value == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}

		data = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

func (s *BoltStore) WriteBlob(_ context.Context, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(vaultsBucket).Put([]byte(name), data)
	})
}

func (s *BoltStore) ListBlobs(_ context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(vaultsBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	return names, nil
}

func (s *BoltStore) DeleteBlob(_ context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(vaultsBucket)
		if bucket.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}

		return bucket.Delete([]byte(name))
	})
}
