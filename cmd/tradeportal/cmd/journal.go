package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeportal/internal/app"
	"github.com/rustyeddy/tradeportal/journal"
	"github.com/rustyeddy/tradeportal/ledger"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print trades and reviews as Org-mode",
	Long: `Render journal data as Org-mode text.

Subcommands:
  trade   - Details of a specific trade by ID
  today   - Trades dated today
  day     - Trades dated a specific day
  review  - Monthly review page

Examples:
  tradeportal journal trade O-123456
  tradeportal journal day 2025-03-03
  tradeportal journal review "March 2025" -o review.org`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades dated today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades dated a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalReviewCmd = &cobra.Command{
	Use:   "review [month]",
	Short: "Write the monthly review (default: this month)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalReview,
}

var journalReviewOut string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalReviewCmd)

	journalReviewCmd.Flags().StringVarP(&journalReviewOut, "output", "o", "", "write to file instead of stdout")
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		t, err := journal.FindTrade(a.Portal.State().Trades, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(t))
		return nil
	})
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	return printDay(cmd, time.Now().Format(ledger.DayLayout))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	if err := checkDay(args[0]); err != nil {
		return err
	}
	return printDay(cmd, args[0])
}

func printDay(cmd *cobra.Command, day string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		trades := journal.TradesOn(a.Portal.State().Trades, day)
		if len(trades) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "# no trades on %s\n", day)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(trades))
		return nil
	})
}

func runJournalReview(cmd *cobra.Command, args []string) error {
	now := time.Now()
	month := ledger.MonthLabel(now)
	if len(args) == 1 {
		if _, err := time.Parse(ledger.MonthLayout, args[0]); err != nil {
			return fmt.Errorf("month %q: want e.g. \"March 2025\"", args[0])
		}
		month = args[0]
	}

	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		review := journal.NewReview(a.Portal.State(), month, now)
		if journalReviewOut == "" {
			return journal.WriteReviewOrg(cmd.OutOrStdout(), review)
		}
		f, err := os.Create(journalReviewOut)
		if err != nil {
			return fmt.Errorf("create review: %w", err)
		}
		if err := journal.WriteReviewOrg(f, review); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Review for %s written to %s\n", month, journalReviewOut)
		return nil
	})
}
