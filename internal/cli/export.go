package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"EntryBot/internal/db"
	"EntryBot/internal/export"
)

// ExportOptions - флаги команды export.
type ExportOptions struct {
	*RootOptions
	Out string
}

// NewExportCommand выгружает все заявки в xlsx-файл.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Выгрузить заявки в Excel",
		Long: `Выгружает все заявки в файл .xlsx с листом SHEET_NAME.

Пример:
  entrybot export --out ./entries.xlsx
  entrybot export            # имя файла генерируется`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "путь к файлу (по умолчанию entries_<время>.xlsx)")
	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	ctx := cmd.Context()
	store, err := db.Open(ctx, opts.Config.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := db.Bootstrap(ctx, store); err != nil {
		return err
	}

	entries, err := db.NewRepository(store).ListEntries(ctx)
	if err != nil {
		return err
	}
	data, err := export.EntriesWorkbook(entries, opts.Config.SheetName)
	if err != nil {
		return err
	}

	out := opts.Out
	if out == "" {
		out = export.FileName(time.Now())
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ошибка создания каталога %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d записей -> %s\n", len(entries), out)
	return nil
}
