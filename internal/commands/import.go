package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spendiq/spendiq/internal/importer"
	"github.com/spendiq/spendiq/internal/ledgererr"
)

func newInvoiceImportCommand(dir *string) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import [file.csv...]",
		Short: "Create draft vendor bills from expense exports",
		Long: `Create one draft vendor bill per expense row. With no arguments every CSV
in <dir>/import is imported and then moved to import/processed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := importer.DefaultRegistry()
			parser := registry.Get(format)
			if parser == nil {
				return ledgererr.Validationf("unknown format %q (have %s)", format, strings.Join(registry.Formats(), ", "))
			}

			return withApp(*dir, func(a *app) error {
				inbox := importer.NewInbox(a.dir)
				paths := args
				scanned := len(args) == 0
				if scanned {
					pending, err := inbox.Pending()
					if err != nil {
						return err
					}
					paths = pending
				}
				if len(paths) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Nothing to import in %s\n", inbox.Path())
					return nil
				}

				for _, path := range paths {
					f, err := os.Open(path)
					if err != nil {
						return fmt.Errorf("opening %s: %w", path, err)
					}
					rows, err := parser.Parse(f)
					f.Close()
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}

					untagged := 0
					for _, d := range importer.Drafts(rows) {
						inv, err := a.svc.Invoices.Create(cmd.Context(), d)
						if err != nil {
							return fmt.Errorf("%s: %w", path, err)
						}
						untagged += untaggedLines(inv)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bills created, %d lines need an analytic account\n",
						filepath.Base(path), len(rows), untagged)

					if scanned {
						if err := inbox.Done(path); err != nil {
							return err
						}
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "bills", "export format")
	return cmd
}
