package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tenant-registry/backend/internal/migrate"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect and change the database schema version",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up [target]",
			Short: "Apply migrations up to target (default: head)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				target := migrate.Head
				if len(args) == 1 {
					target = args[0]
				}
				return a.withMigrator(cmd, func(m *migrate.Migrator) error {
					n, err := m.Upgrade(cmd.Context(), target)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down <target>",
			Short: "Revert migrations down to target (a version or base)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withMigrator(cmd, func(m *migrate.Migrator) error {
					n, err := m.Downgrade(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "reverted %d migration(s)\n", n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "current",
			Short: "Print the version recorded in the database",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withMigrator(cmd, func(m *migrate.Migrator) error {
					current, err := m.Current(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), current)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "history",
			Short: "List migrations oldest first, marking the current one",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withMigrator(cmd, func(m *migrate.Migrator) error {
					current, err := m.Current(cmd.Context())
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					for _, step := range m.History() {
						marker := " "
						if step.Version == current {
							marker = "*"
						}
						fmt.Fprintf(out, "%s %s -> %s  %s\n", marker, step.Revises, step.Version, step.Name)
					}
					return nil
				})
			},
		},
	)

	return cmd
}

func (a *app) withMigrator(cmd *cobra.Command, fn func(m *migrate.Migrator) error) error {
	chain, err := migrate.Embedded()
	if err != nil {
		return err
	}

	pool, err := a.openDB(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(migrate.New(pool, chain, a.logger))
}
