package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tuvisminds-design/fin-easy/internal/accounts"
	"github.com/tuvisminds-design/fin-easy/internal/config"
)

// chartFile is where init writes the editable chart of accounts.
const chartFile = "chart-of-accounts.csv"

func newInitCommand(opts *rootOptions) *cobra.Command {
	var name string
	var dbURL string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.dir
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, name, dbURL)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&dbURL, "database", "", "database URL or SQLite path (default fineasy.db)")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name, dbURL string) error {
	dirs := []string{
		"accounts",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	cfg := config.Default(name)
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	chart := accounts.DefaultChart()
	if err := accounts.SaveChart(filepath.Join(dir, "accounts", chartFile), chart); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	a, err := wire(cmd.Context(), cfg, dir)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.accounts.Seed(cmd.Context(), chart)
	if err != nil {
		return fmt.Errorf("seeding chart of accounts: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s at %s (%d accounts)\n", name, dir, n)
	return nil
}
