// Package cmd implements the ownpass command line interface.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/MattSzymonski/Own-Password/internal/config"
	"github.com/MattSzymonski/Own-Password/internal/krypto"
	"github.com/MattSzymonski/Own-Password/internal/session"
	"github.com/MattSzymonski/Own-Password/internal/storage"
	"github.com/MattSzymonski/Own-Password/internal/vault"
	"github.com/MattSzymonski/Own-Password/internal/vault/format"
)

var (
	BuildVersion  = `(missing)`
	BuildShortSHA = `(missing)`
)

func Main(ctx context.Context, args []string, output io.Writer) error {
	rootCmd := &cobra.Command{
		Use:     "ownpass",
		Short:   "A password vault stored as a single encrypted file.",
		Version: BuildShortSHA,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}

			setupLogging(verbose, cmd.ErrOrStderr())

			return nil
		},
	}
	rootCmd.SetOut(output)
	rootCmd.SetErr(output)
	rootCmd.SetArgs(args[1:])
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringP("vault", "V", "main", "vault `name`")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(newCreateCommand())
	rootCmd.AddCommand(newVaultsCommand())
	rootCmd.AddCommand(newPasswdCommand())
	rootCmd.AddCommand(newAddCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newUpdateCommand())
	rootCmd.AddCommand(newRemoveCommand())
	rootCmd.AddCommand(newSearchCommand())
	rootCmd.AddCommand(newTagCommand())

	return rootCmd.ExecuteContext(ctx)
}

func setupLogging(verbose bool, output io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}

// openStore builds the configured blob store. The returned closer is a no-op
// for backends without resources to release.
func openStore(cfg *config.Config) (storage.BlobStore, func() error, error) {
	switch cfg.Store.Backend {
	case "bolt":
		store, err := storage.NewBoltStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := storage.NewDirStore(cfg.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	}
}

func newCodec(cfg *config.Config) (*vault.Codec, error) {
	cipherID := format.CipherAESGCM
	if cfg.Crypto.Cipher == "chacha20" {
		cipherID = format.CipherChaCha20Poly1305
	}

	return vault.NewCodec(
		vault.WithLogger(slog.Default()),
		vault.WithCipher(cipherID),
		vault.WithIterations(cfg.Crypto.KDFIterations),
	)
}

// withSession loads config, prompts for the master password, unlocks the
// named vault and hands the session to fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session.Session) error) error {
	name, err := cmd.Flags().GetString("vault")
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Default().Warn("failed to close store", slog.Any("err", err))
		}
	}()

	codec, err := newCodec(cfg)
	if err != nil {
		return err
	}

	password, err := PromptPassword(cmd.ErrOrStderr(), false, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	defer krypto.Zero(password)

	s := session.New(codec, store,
		session.WithLogger(slog.Default()),
		session.WithTTL(time.Duration(cfg.Session.IdleTimeout)),
	)
	defer s.Lock()

	if err := s.Unlock(cmd.Context(), name, password); err != nil {
		return err
	}

	return fn(cmd.Context(), s)
}
