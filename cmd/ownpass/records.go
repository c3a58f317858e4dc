package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MattSzymonski/Own-Password/internal/config"
	"github.com/MattSzymonski/Own-Password/internal/krypto"
	"github.com/MattSzymonski/Own-Password/internal/session"
	"github.com/MattSzymonski/Own-Password/internal/vault"
)

func newCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "create",
		Short:   "create a new empty vault",
		Example: "ownpass create --vault personal",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			defer func() { _ = closeStore() }()

			codec, err := newCodec(cfg)
			if err != nil {
				return err
			}

			password, err := PromptPassword(cmd.ErrOrStderr(), true, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			defer krypto.Zero(password)

			s := session.New(codec, store, session.WithLogger(slog.Default()))
			defer s.Lock()

			if err := s.Create(cmd.Context(), name, password); err != nil {
				return err
			}

			cmd.Printf("Created vault %q\n", name)
			return nil
		},
	}
}

func newVaultsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vaults",
		Short: "list stored vaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			names, err := store.ListBlobs(cmd.Context())
			if err != nil {
				return err
			}

			for _, name := range names {
				cmd.Println(name)
			}
			return nil
		},
	}
}

func newPasswdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "change a vault's master password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				newPassword, err := PromptPassword(cmd.ErrOrStderr(), true, slog.Default())
				if err != nil {
					return fmt.Errorf("failed to read new password: %w", err)
				}
				defer krypto.Zero(newPassword)

				if err := s.ChangePassword(ctx, newPassword); err != nil {
					return err
				}

				cmd.Println("Password changed")
				return nil
			})
		},
	}
}

func newAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "add a record to the vault",
		Example: `ownpass add --title GitHub --login me@x.com --tags work,dev`,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			login, _ := cmd.Flags().GetString("login")
			url, _ := cmd.Flags().GetString("url")
			notes, _ := cmd.Flags().GetString("notes")
			tags, _ := cmd.Flags().GetStringSlice("tags")

			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				secret, err := promptSecret(cmd.ErrOrStderr(), "Secret")
				if err != nil {
					return err
				}

				v, err := s.Vault()
				if err != nil {
					return err
				}

				v, record, err := v.AddRecord(ctx, vault.Record{
					Title:    title,
					Login:    login,
					Secret:   secret,
					URL:      url,
					Notes:    notes,
					TagNames: tags,
				})
				if err != nil {
					return err
				}

				if err := s.Commit(ctx, v); err != nil {
					return err
				}

				cmd.Printf("Added record %s\n", record.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringP("title", "t", "", "record `title` (required)")
	cmd.Flags().StringP("login", "l", "", "login or username")
	cmd.Flags().StringP("url", "u", "", "associated URL")
	cmd.Flags().StringP("notes", "n", "", "free-form notes")
	cmd.Flags().StringSlice("tags", nil, "comma-separated tag names")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list all records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				v, err := s.Vault()
				if err != nil {
					return err
				}

				printRecords(cmd, v.Records)
				return nil
			})
		},
	}
}

func newShowCommand() *cobra.Command {
	showSecret := false
	cmd := &cobra.Command{
		Use:   "show <record-id>",
		Short: "show a single record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				v, err := s.Vault()
				if err != nil {
					return err
				}

				record, err := v.FindRecord(args[0])
				if err != nil {
					return err
				}

				cmd.Printf("Title:    %s\n", record.Title)
				cmd.Printf("Login:    %s\n", record.Login)
				if record.URL != "" {
					cmd.Printf("URL:      %s\n", record.URL)
				}
				if record.Notes != "" {
					cmd.Printf("Notes:    %s\n", record.Notes)
				}
				if len(record.TagNames) > 0 {
					cmd.Printf("Tags:     %s\n", strings.Join(record.TagNames, ", "))
				}
				cmd.Printf("Modified: %s\n", record.ModifiedAt.Format("2006-01-02 15:04:05"))
				if showSecret {
					cmd.Printf("Secret:   %s\n", record.Secret)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showSecret, "secret", false, "print the secret in plain text")

	return cmd
}

func newUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <record-id>",
		Short: "update fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := vault.RecordUpdate{}
			if cmd.Flags().Changed("title") {
				title, _ := cmd.Flags().GetString("title")
				update.Title = &title
			}
			if cmd.Flags().Changed("login") {
				login, _ := cmd.Flags().GetString("login")
				update.Login = &login
			}
			if cmd.Flags().Changed("url") {
				url, _ := cmd.Flags().GetString("url")
				update.URL = &url
			}
			if cmd.Flags().Changed("notes") {
				notes, _ := cmd.Flags().GetString("notes")
				update.Notes = &notes
			}
			if cmd.Flags().Changed("tags") {
				tags, _ := cmd.Flags().GetStringSlice("tags")
				update.TagNames = &tags
			}
			newSecret, _ := cmd.Flags().GetBool("secret")

			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				if newSecret {
					secret, err := promptSecret(cmd.ErrOrStderr(), "New secret")
					if err != nil {
						return err
					}
					update.Secret = &secret
				}

				v, err := s.Vault()
				if err != nil {
					return err
				}

				v, err = v.UpdateRecord(ctx, args[0], update)
				if err != nil {
					return err
				}

				if err := s.Commit(ctx, v); err != nil {
					return err
				}

				cmd.Println("Record updated")
				return nil
			})
		},
	}

	cmd.Flags().StringP("title", "t", "", "new title")
	cmd.Flags().StringP("login", "l", "", "new login")
	cmd.Flags().StringP("url", "u", "", "new URL")
	cmd.Flags().StringP("notes", "n", "", "new notes")
	cmd.Flags().StringSlice("tags", nil, "replacement tag names")
	cmd.Flags().Bool("secret", false, "prompt for a new secret")

	return cmd
}

func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <record-id>",
		Aliases: []string{"remove"},
		Short:   "remove a record",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				v, err := s.Vault()
				if err != nil {
					return err
				}

				v, err = v.DeleteRecord(ctx, args[0])
				if err != nil {
					return err
				}

				if err := s.Commit(ctx, v); err != nil {
					return err
				}

				cmd.Println("Record removed")
				return nil
			})
		},
	}
}

func newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "search records by title, login, url or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				v, err := s.Vault()
				if err != nil {
					return err
				}

				printRecords(cmd, v.SearchRecords(args[0]))
				return nil
			})
		},
	}
}

func printRecords(cmd *cobra.Command, records []vault.Record) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLOGIN\tTAGS")
	for _, record := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", record.ID, record.Title, record.Login, strings.Join(record.TagNames, ","))
	}
	_ = w.Flush()
}
