package migrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func GetMigrateCmd(dbURL string) *cobra.Command {
	var (
		down  bool
		path  string
		force int
	)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrate.New("file://"+path, dbURL)
			if err != nil {
				return fmt.Errorf("failed to initialize migrations: %w", err)
			}
			defer m.Close()

			out := cmd.OutOrStdout()

			if force >= 0 {
				if err := m.Force(force); err != nil {
					return fmt.Errorf("failed to force version %d: %w", force, err)
				}
				fmt.Fprintf(out, "Forced migration version to %d.\n", force)
				return nil
			}

			if down {
				err := m.Down()
				switch {
				case errors.Is(err, migrate.ErrNoChange):
					fmt.Fprintln(out, "No migrations to rollback.")
				case err != nil:
					var dirty migrate.ErrDirty
					if errors.As(err, &dirty) {
						return fmt.Errorf("database is dirty at version %d, fix it and rerun with --force: %w", dirty.Version, err)
					}
					return fmt.Errorf("failed to apply down migrations: %w", err)
				default:
					fmt.Fprintln(out, "Migrations rolled back successfully.")
				}
				return nil
			}

			if err := m.Up(); err != nil {
				if errors.Is(err, migrate.ErrNoChange) {
					fmt.Fprintln(out, "No new migrations to apply.")
					return nil
				}
				return fmt.Errorf("failed to apply up migrations: %w", err)
			}

			fmt.Fprintln(out, "Migrations applied successfully.")
			return nil
		},
	}

	migrateCmd.Flags().BoolVarP(&down, "down", "d", false, "Rollback migrations")
	migrateCmd.Flags().StringVar(&path, "path", "migrations", "Directory holding the migration files")
	migrateCmd.Flags().IntVar(&force, "force", -1, "Force the schema version and clear the dirty flag")

	return migrateCmd
}
