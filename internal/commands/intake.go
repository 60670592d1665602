package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tuvisminds-design/fin-easy/internal/intake"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var format, source string

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Queue bank statement CSVs as raw transactions",
		Long: "Parses each file and queues its rows for `fineasy process`. With no files,\n" +
			"every CSV in <dir>/import is imported and moved to import/processed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := intake.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown format %q", format)
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if len(args) > 0 {
				for _, path := range args {
					n, err := a.intake.ImportFile(cmd.Context(), parser, path, source)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s: %d transactions queued\n", path, n)
				}
				return nil
			}

			importDir := filepath.Join(opts.dir, "import")
			files, err := intake.Scan(importDir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(out, "No files to import.")
				return nil
			}
			for _, f := range files {
				n, err := a.intake.ImportFile(cmd.Context(), parser, f.Path, source)
				if err != nil {
					return err
				}
				if err := intake.MarkProcessed(importDir, f.Name); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d transactions queued\n", f.Name, n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "statement format (csv, chase)")
	cmd.Flags().StringVar(&source, "source", "", "source tag stored on each transaction (default the format)")
	return cmd
}

func newProcessCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Classify and post pending raw transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Intake.BatchSize
			}
			results, err := a.intake.ProcessPending(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			posted := 0
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(out, "  #%d %s: %v\n", r.Raw.ID, r.Raw.Description, r.Err)
					continue
				}
				posted++
				fmt.Fprintf(out, "  #%d %s -> %s (%s)\n", r.Raw.ID, r.Raw.Description, r.Entry.Number, r.AccountCode)
			}
			fmt.Fprintf(out, "Processed %d of %d pending transactions\n", posted, len(results))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum transactions to process (default intake.batch_size)")
	return cmd
}
