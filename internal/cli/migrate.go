package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"EntryBot/internal/db"
)

// NewMigrateCommand создает таблицы и применяет встроенные миграции, после чего завершается.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Создать схему базы данных и применить миграции",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := db.Open(ctx, opts.Config.DatabaseURL)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := db.Bootstrap(ctx, store); err != nil {
				return err
			}
			log.Printf("Схема базы данных готова: %s", opts.Config.RedactedDatabaseURL())
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
