// Package session holds the state of one opened vault: the decrypted model,
// the master password and the store it came from. It exists so that
// "is the vault unlocked" is an explicit object handed to callers rather
// than ambient global state, keeping the codec and model pure.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/MattSzymonski/Own-Password/internal/krypto"
	"github.com/MattSzymonski/Own-Password/internal/storage"
	"github.com/MattSzymonski/Own-Password/internal/vault"
)

var (
	ErrLocked  = errors.New("vault is locked")
	ErrExpired = errors.New("session expired")
)

// Session serializes all mutations of one open vault behind a mutex; the
// vault model itself assumes a single writer.
type Session struct {
	mu       sync.Mutex
	codec    *vault.Codec
	store    storage.BlobStore
	logger   *slog.Logger
	ttl      time.Duration
	name     string
	password []byte
	current  vault.Vault
	unlocked bool
	lastUsed time.Time
}

func WithLogger(logger *slog.Logger) func(*Session) {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithTTL sets an idle timeout after which the session locks itself.
// Zero means no timeout.
func WithTTL(ttl time.Duration) func(*Session) {
	return func(s *Session) {
		s.ttl = ttl
	}
}

func New(codec *vault.Codec, store storage.BlobStore, opts ...func(*Session)) *Session {
	s := &Session{
		codec: codec,
		store: store,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return s
}

// Create initializes an empty vault under the given name and persists it.
// It fails if a blob with that name already exists.
func (s *Session) Create(ctx context.Context, name string, password []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.ReadBlob(ctx, name); err == nil {
		return fmt.Errorf("vault %q already exists", name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	s.adopt(name, password, vault.New())

	return s.save(ctx)
}

// Unlock reads the named blob from the store and decodes it. On success the
// session owns a private copy of the password for later saves.
func (s *Session) Unlock(ctx context.Context, name string, password []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.store.ReadBlob(ctx, name)
	if err != nil {
		return err
	}

	v, err := s.codec.Decode(ctx, bytes.NewReader(data), password)
	if err != nil {
		return err
	}

	s.adopt(name, password, v)
	s.logger.Debug("vault unlocked",
		slog.String("vault", name),
		slog.Int("records", len(v.Records)),
	)

	return nil
}

// Vault returns the current model. Callers derive changed vaults through
// the model's pure operations and hand the result back via Commit.
func (s *Session) Vault() (vault.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureUnlocked(); err != nil {
		return vault.Vault{}, err
	}

	return s.current, nil
}

// Commit replaces the session's model and persists it immediately.
func (s *Session) Commit(ctx context.Context, v vault.Vault) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureUnlocked(); err != nil {
		return err
	}

	s.current = v

	return s.save(ctx)
}

// Name returns the blob name of the open vault.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.name
}

// ChangePassword re-keys the session and persists the vault under the new
// password. The old password is scrubbed.
func (s *Session) ChangePassword(ctx context.Context, newPassword []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureUnlocked(); err != nil {
		return err
	}

	krypto.Zero(s.password)
	s.password = append([]byte(nil), newPassword...)

	return s.save(ctx)
}

// Lock scrubs the password and drops the decrypted model.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lock()
}

func (s *Session) lock() {
	krypto.Zero(s.password)
	s.password = nil
	s.current = vault.Vault{}
	s.unlocked = false
	s.logger.Debug("vault locked", slog.String("vault", s.name))
}

func (s *Session) adopt(name string, password []byte, v vault.Vault) {
	krypto.Zero(s.password)
	s.name = name
	s.password = append([]byte(nil), password...)
	s.current = v
	s.unlocked = true
	s.lastUsed = time.Now()
}

func (s *Session) ensureUnlocked() error {
	if !s.unlocked {
		return ErrLocked
	}

	if s.ttl > 0 && time.Since(s.lastUsed) > s.ttl {
		s.lock()
		return ErrExpired
	}

	s.lastUsed = time.Now()

	return nil
}

func (s *Session) save(ctx context.Context) error {
	var buf bytes.Buffer
	if err := s.codec.Encode(ctx, &buf, s.password, s.current); err != nil {
		return fmt.Errorf("encode vault: %w", err)
	}

	if err := s.store.WriteBlob(ctx, s.name, buf.Bytes()); err != nil {
		return fmt.Errorf("persist vault: %w", err)
	}

	return nil
}
