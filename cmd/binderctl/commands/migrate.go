package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.DB == nil {
			return errors.New("DATABASE_URL is not set")
		}

		schema, err := a.Migrate(ctx)
		if err != nil {
			return err
		}
		if !schema.Changed {
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (version %d)\n", schema.Version)
			return err
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "migrated to version %d\n", schema.Version); err != nil {
			return err
		}
		return nil
	},
}
