package main

import (
	"fmt"

	"shortlink/internal/migrations"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(func(m *migrations.Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(func(m *migrations.Migrator) error {
					if err := m.Down(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Rolled back one migration")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(func(m *migrations.Migrator) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
					return nil
				})
			},
		},
	)

	return cmd
}

func withMigrator(fn func(*migrations.Migrator) error) (err error) {
	m, err := migrations.New(cfg.Database.DatabaseURL(), cliLogger.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(m)
}
