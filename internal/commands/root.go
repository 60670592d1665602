package commands

import (
	"github.com/spf13/cobra"

	"github.com/tuvisminds-design/fin-easy/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:     "fineasy",
		Short:   "Double-entry ledger with integrity monitoring",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "project directory")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default <dir>/fineasy.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file with FINEASY_* overrides")

	rootCmd.AddCommand(
		newInitCommand(&opts),
		newAccountsCommand(&opts),
		newPostCommand(&opts),
		newReverseCommand(&opts),
		newAdjustCommand(&opts),
		newTrialBalanceCommand(&opts),
		newLedgerCommand(&opts),
		newAuditCommand(&opts),
		newHistoryCommand(&opts),
		newImportCommand(&opts),
		newProcessCommand(&opts),
	)

	return rootCmd
}
