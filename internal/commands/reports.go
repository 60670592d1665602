package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tuvisminds-design/fin-easy/internal/model"
	"github.com/tuvisminds-design/fin-easy/internal/storage"
)

func newAccountsCommand(opts *rootOptions) *cobra.Command {
	var class string

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the chart of accounts with balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			var accts []model.Account
			if class != "" {
				accts, err = a.accounts.ListByClass(cmd.Context(), model.AccountClass(class))
			} else {
				accts, err = a.accounts.All(cmd.Context())
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "CODE\tNAME\tCLASS\tBALANCE\t")
			for _, acct := range accts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", acct.Code, acct.Name, acct.Class, acct.Balance.StringFixed(2))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "only accounts of this class (Asset, Liability, Equity, Revenue, Expense)")
	return cmd
}

func newTrialBalanceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trial-balance",
		Short: "Print the trial balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			tb, err := a.ledger.TrialBalance(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "CODE\tNAME\tDEBIT\tCREDIT\t")
			for _, r := range tb.Rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", r.Code, r.Name, amountOrBlank(r.Debit), amountOrBlank(r.Credit))
			}
			fmt.Fprintf(tw, "\tTOTAL\t%s\t%s\t\n", tb.TotalDebits.StringFixed(2), tb.TotalCredits.StringFixed(2))
			if err := tw.Flush(); err != nil {
				return err
			}
			if !tb.Balanced() {
				fmt.Fprintln(cmd.OutOrStdout(), "WARNING: trial balance does not balance")
			}
			return nil
		},
	}
}

func newLedgerCommand(opts *rootOptions) *cobra.Command {
	var account, from, to string

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Print general ledger lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fromDay, err := parseDate(from)
			if err != nil {
				return err
			}
			toDay, err := parseDate(to)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			lines, err := a.ledger.GeneralLedger(cmd.Context(), storage.LineFilter{AccountCode: account, From: fromDay, To: toDay})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tENTRY\tACCOUNT\tDEBIT\tCREDIT\tDESCRIPTION")
			for _, l := range lines {
				desc := l.Description
				if desc == "" {
					desc = l.EntryDescription
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					l.EntryDate.Format(model.DateFormat), l.EntryNumber, l.AccountCode,
					amountOrBlank(l.Debit), amountOrBlank(l.Credit), desc)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "only lines for this account")
	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	return cmd
}
