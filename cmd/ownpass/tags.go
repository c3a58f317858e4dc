package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MattSzymonski/Own-Password/internal/session"
)

func newTagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "manage vault tags",
	}

	cmd.AddCommand(newTagAddCommand())
	cmd.AddCommand(newTagListCommand())
	cmd.AddCommand(newTagRenameCommand())
	cmd.AddCommand(newTagRemoveCommand())
	cmd.AddCommand(newTagReorderCommand())

	return cmd
}

func newTagAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "add a tag",
		Example: `ownpass tag add work --color "#00aaff"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			color, _ := cmd.Flags().GetString("color")

			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				v, err := s.Vault()
				if err != nil {
					return err
				}

				v, tag, err := v.AddTag(ctx, args[0], color)
				if err != nil {
					return err
				}

				if err := s.Commit(ctx, v); err != nil {
					return err
				}

				cmd.Printf("Added tag %q\n", tag.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringP("color", "c", "gray", "tag `color` (hex or named)")

	return cmd
}

func newTagListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "list tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				v, err := s.Vault()
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tCOLOR")
				for _, tag := range v.Tags {
					fmt.Fprintf(w, "%s\t%s\n", tag.Name, tag.Color)
				}
				return w.Flush()
			})
		},
	}
}

func newTagRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old-name> <new-name>",
		Short: "rename a tag, updating every record that references it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				v, err := s.Vault()
				if err != nil {
					return err
				}

				v, err = v.RenameTag(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				if err := s.Commit(ctx, v); err != nil {
					return err
				}

				cmd.Printf("Renamed tag %q to %q\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newTagRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "remove a tag, stripping it from all records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				v, err := s.Vault()
				if err != nil {
					return err
				}

				v, err = v.DeleteTag(ctx, args[0])
				if err != nil {
					return err
				}

				if err := s.Commit(ctx, v); err != nil {
					return err
				}

				cmd.Printf("Removed tag %q\n", args[0])
				return nil
			})
		},
	}
}

func newTagReorderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <name>...",
		Short: "set the tag display order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				v, err := s.Vault()
				if err != nil {
					return err
				}

				v, err = v.ReorderTags(ctx, args)
				if err != nil {
					return err
				}

				return s.Commit(ctx, v)
			})
		},
	}
}
