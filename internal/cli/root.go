package cli

import (
	"github.com/spf13/cobra"

	"EntryBot/internal/config"
)

// RootOptions - общее состояние команд: конфигурация читается один раз перед запуском подкоманды.
type RootOptions struct {
	Config *config.Config
}

// NewRootCommand создает корневую команду. Без подкоманды запускается serve.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "entrybot",
		Short:         "Telegram-бот для заявок из веб-формы",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Config != nil {
				return nil
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			opts.Config = cfg
			return nil
		},
	}

	serve := NewServeCommand(opts)
	cmd.RunE = serve.RunE

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	return cmd
}
