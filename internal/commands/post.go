package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tuvisminds-design/fin-easy/internal/ledger"
	"github.com/tuvisminds-design/fin-easy/internal/model"
)

func newPostCommand(opts *rootOptions) *cobra.Command {
	var (
		date, desc, ref string
		debits, credits []string
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a journal entry",
		Example: `  fineasy post --date 2024-01-05 --desc "cash sale" \
    --debit 1000=250.00 --credit 4000=250.00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			var lines []ledger.LineInput
			for _, arg := range debits {
				code, amount, err := parseLineFlag(arg)
				if err != nil {
					return err
				}
				lines = append(lines, ledger.LineInput{AccountCode: code, Debit: amount})
			}
			for _, arg := range credits {
				code, amount, err := parseLineFlag(arg)
				if err != nil {
					return err
				}
				lines = append(lines, ledger.LineInput{AccountCode: code, Credit: amount})
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.ledger.Post(cmd.Context(), ledger.PostRequest{
				Date:        day,
				Description: desc,
				Reference:   ref,
				Lines:       lines,
			})
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "entry date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&desc, "desc", "", "entry description")
	cmd.Flags().StringVar(&ref, "ref", "", "external reference")
	cmd.Flags().StringArrayVar(&debits, "debit", nil, "debit line CODE=AMOUNT (repeatable)")
	cmd.Flags().StringArrayVar(&credits, "credit", nil, "credit line CODE=AMOUNT (repeatable)")

	return cmd
}

func newReverseCommand(opts *rootOptions) *cobra.Command {
	var date, desc string

	cmd := &cobra.Command{
		Use:   "reverse <entry-number>",
		Short: "Post the mirror image of a committed entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.ledger.Reverse(cmd.Context(), args[0], day, desc)
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "reversal date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&desc, "desc", "", "reversal description")
	return cmd
}

func newAdjustCommand(opts *rootOptions) *cobra.Command {
	var date, desc, account, amount, side string

	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Post an adjusting entry against the configured offset account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.ledger.Adjust(cmd.Context(), ledger.AdjustRequest{
				Date:        day,
				Description: desc,
				AccountCode: account,
				Amount:      amt,
				Side:        ledger.Side(side),
			})
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "entry date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&desc, "desc", "", "adjustment description")
	cmd.Flags().StringVar(&account, "account", "", "account to adjust (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "positive amount (required)")
	cmd.Flags().StringVar(&side, "side", string(ledger.SideDebit), "debit or credit")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// parseLineFlag splits CODE=AMOUNT.
func parseLineFlag(arg string) (string, decimal.Decimal, error) {
	code, raw, ok := strings.Cut(arg, "=")
	if !ok || strings.TrimSpace(code) == "" {
		return "", decimal.Decimal{}, fmt.Errorf("invalid line %q (want CODE=AMOUNT)", arg)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return "", decimal.Decimal{}, fmt.Errorf("invalid amount in line %q: %w", arg, err)
	}
	return strings.TrimSpace(code), amount, nil
}

func printEntry(w io.Writer, e model.JournalEntry) {
	fmt.Fprintf(w, "%s  %s  %s\n", e.Number, e.Date.Format(model.DateFormat), e.Description)
	for _, l := range e.Lines {
		fmt.Fprintf(w, "  %-6s %12s %12s  %s\n", l.AccountCode, amountOrBlank(l.Debit), amountOrBlank(l.Credit), l.Description)
	}
}

func amountOrBlank(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
