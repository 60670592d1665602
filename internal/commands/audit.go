package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tuvisminds-design/fin-easy/internal/model"
)

// errAuditFailed is returned under --strict when any check fails.
var errAuditFailed = errors.New("audit failed")

func newAuditCommand(opts *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "audit [account-code...]",
		Short: "Run balance, anomaly and double-entry checks",
		Long: "Runs a balance check and an anomaly check for each account (the configured\n" +
			"key accounts when none are given), then verifies every journal entry balances.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.monitor.Sweep(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ACCOUNT\tCHECK\tSTATUS\tDETAIL")
			for i, b := range res.Balances {
				fmt.Fprintf(tw, "%s\t%s\t%s\tstored %s, derived %s\n",
					b.Details.AccountCode, model.CheckBalance, b.Status,
					b.Details.StoredBalance.StringFixed(2), b.Details.CalculatedBalance.StringFixed(2))
				an := res.Anomalies[i]
				detail := fmt.Sprintf("%d lines, %d anomalies", an.Details.TotalTransactions, len(an.Details.Anomalies))
				if an.Details.Note != "" {
					detail = an.Details.Note
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", an.Details.AccountCode, model.CheckAnomaly, an.Status, detail)
			}
			de := res.DoubleEntry
			fmt.Fprintf(tw, "*\t%s\t%s\t%d entries, %d unbalanced\n",
				model.CheckDoubleEntry, de.Status, de.Details.TotalEntries, len(de.Details.UnbalancedEntries))
			if err := tw.Flush(); err != nil {
				return err
			}

			for _, an := range res.Anomalies {
				for _, x := range an.Details.Anomalies {
					fmt.Fprintf(out, "  %s %s %s %s %s\n", an.Details.AccountCode, x.Type, x.EntryNumber, x.Amount.StringFixed(2), x.Description)
				}
			}
			for _, u := range de.Details.UnbalancedEntries {
				fmt.Fprintf(out, "  unbalanced %s debits %s credits %s\n", u.EntryNumber, u.Debits.StringFixed(2), u.Credits.StringFixed(2))
			}
			for _, code := range res.Missing {
				fmt.Fprintf(out, "  missing account %s\n", code)
			}

			status := res.Status()
			fmt.Fprintf(out, "Overall: %s\n", status)
			if strict && status == model.StatusFail {
				return errAuditFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any check fails")
	return cmd
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <account-code>",
		Short: "Show recent audit checks for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			checks, err := a.monitor.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tCHECK\tSTATUS\tDETAILS")
			for _, c := range checks {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.CheckDate.Format(model.DateFormat), c.Kind, c.Status, c.Details)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of checks to show")
	return cmd
}
