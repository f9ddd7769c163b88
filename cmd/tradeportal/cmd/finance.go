package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeportal/internal/app"
	"github.com/rustyeddy/tradeportal/ledger"
)

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Record a payout from a trading account",
	Long: `Record a withdrawal. The amount is taken off the account balance.

Example:
  tradeportal withdraw --account PA-APEX-1 --amount 1500 --desc "first payout"`,
	Args: cobra.NoArgs,
	RunE: runWithdraw,
}

var (
	withdrawAccount string
	withdrawAmount  string
	withdrawDate    string
	withdrawDesc    string
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage monthly profit goals",
}

var goalSetCmd = &cobra.Command{
	Use:     "set <month> <amount>",
	Short:   "Set the profit goal for a month",
	Example: `  tradeportal goal set "March 2025" 2000`,
	Args:    cobra.ExactArgs(2),
	RunE:    runGoalSet,
}

var goalRmCmd = &cobra.Command{
	Use:   "rm <month>",
	Short: "Remove a monthly goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalRm,
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show goals and progress",
	Args:  cobra.NoArgs,
	RunE:  runGoalList,
}

var cashCmd = &cobra.Command{
	Use:   "cash",
	Short: "Manage cash on hand",
}

var cashSetCmd = &cobra.Command{
	Use:   "set <amount>",
	Short: "Set the current cash balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runCashSet,
}

var netWorthCmd = &cobra.Command{
	Use:   "networth",
	Short: "Show cash plus the value of every account",
	Args:  cobra.NoArgs,
	RunE:  runNetWorth,
}

var cashFlowCmd = &cobra.Command{
	Use:   "cashflow",
	Short: "Show income and expenses for a period",
	Args:  cobra.NoArgs,
	RunE:  runCashFlow,
}

var cashFlowPeriod string

func init() {
	rootCmd.AddCommand(withdrawCmd)
	withdrawCmd.Flags().StringVarP(&withdrawAccount, "account", "a", "", "account name (required)")
	withdrawCmd.Flags().StringVarP(&withdrawAmount, "amount", "m", "", "amount withdrawn (required)")
	withdrawCmd.Flags().StringVar(&withdrawDate, "date", "", "date as YYYY-MM-DD (default today)")
	withdrawCmd.Flags().StringVar(&withdrawDesc, "desc", "", "description")
	_ = withdrawCmd.MarkFlagRequired("account")
	_ = withdrawCmd.MarkFlagRequired("amount")

	rootCmd.AddCommand(goalCmd)
	goalCmd.AddCommand(goalSetCmd)
	goalCmd.AddCommand(goalRmCmd)
	goalCmd.AddCommand(goalListCmd)

	rootCmd.AddCommand(cashCmd)
	cashCmd.AddCommand(cashSetCmd)

	rootCmd.AddCommand(netWorthCmd)
	rootCmd.AddCommand(cashFlowCmd)
	cashFlowCmd.Flags().StringVarP(&cashFlowPeriod, "period", "p", "month", "day, week or month")
}

func checkDay(day string) error {
	if day == "" {
		return nil
	}
	if _, err := time.Parse(ledger.DayLayout, day); err != nil {
		return fmt.Errorf("date %q: want YYYY-MM-DD", day)
	}
	return nil
}

func runWithdraw(cmd *cobra.Command, args []string) error {
	amount, err := parseMoney(withdrawAmount)
	if err != nil {
		return err
	}
	if err := checkDay(withdrawDate); err != nil {
		return err
	}

	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		w, err := a.Portal.AddWithdrawal(ctx, ledger.Withdrawal{
			Account:     withdrawAccount,
			Amount:      amount,
			Date:        withdrawDate,
			Description: withdrawDesc,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Withdrawal %s: %s from %s on %s\n", w.ID, money(w.Amount), w.Account, w.Date)
		return nil
	})
}

func runGoalSet(cmd *cobra.Command, args []string) error {
	month := args[0]
	if _, err := time.Parse(ledger.MonthLayout, month); err != nil {
		return fmt.Errorf("month %q: want e.g. \"March 2025\"", month)
	}
	amount, err := parseMoney(args[1])
	if err != nil {
		return err
	}
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Portal.SetMonthlyGoal(ctx, month, amount); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Goal for %s set to %s\n", month, money(amount))
		return nil
	})
}

func runGoalRm(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Portal.DeleteMonthlyGoal(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Goal for %s removed\n", args[0])
		return nil
	})
}

func runGoalList(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		s := a.Portal.State()
		progress := ledger.Progress(s.MonthlyGoals, s.Trades)
		if len(progress) == 0 {
			fmt.Fprintln(out, "No goals set.")
			return nil
		}
		fmt.Fprintf(out, "%-16s %12s %12s %12s %8s\n", "MONTH", "GOAL", "ACTUAL", "DIFF", "DONE")
		for _, p := range progress {
			done := fmt.Sprintf("%.0f%%", p.Percent)
			if p.Achieved {
				done = "✓"
			}
			fmt.Fprintf(out, "%-16s %12s %12s %12s %8s\n", p.Month, money(p.Goal), money(p.Actual), money(p.Difference), done)
		}
		pl := ledger.Planner(s.MonthlyGoals, s.Trades)
		fmt.Fprintf(out, "\n%d of %d goals achieved (%.0f%%), total target %s\n",
			pl.Achieved, pl.TotalGoals, pl.AchievementRate, money(pl.TotalTarget))
		return nil
	})
}

// runCashSet mirrors the portal's cash field: input that is not a number
// sets the balance to zero.
func runCashSet(cmd *cobra.Command, args []string) error {
	amount := ledger.ParseAmount(strings.TrimPrefix(strings.TrimSpace(args[0]), "$"))
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Portal.SetCurrentCash(ctx, amount); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cash set to %s\n", money(amount))
		return nil
	})
}

func runNetWorth(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		s := a.Portal.State()
		fmt.Fprintf(out, "Cash:       %14s\n", money(s.CurrentCash))
		for _, acc := range sortedAccounts(s) {
			fmt.Fprintf(out, "%-11s %14s\n", acc.ID+":", money(acc.CurrentBalance))
		}
		fmt.Fprintf(out, "Net worth:  %14s\n", money(ledger.NetWorth(s)))
		return nil
	})
}

func runCashFlow(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		cf := ledger.ComputeCashFlow(a.Portal.State(), ledger.ParsePeriod(cashFlowPeriod), time.Now())
		fmt.Fprintf(out, "Cash flow (%s, %s to %s)\n", cf.Period,
			cf.Start.Format(ledger.DayLayout), cf.End.AddDate(0, 0, -1).Format(ledger.DayLayout))
		fmt.Fprintf(out, "Income:         %14s\n", money(cf.Income))
		fmt.Fprintf(out, "Expenses:       %14s\n", money(cf.Expenses))
		fmt.Fprintf(out, "Net:            %14s\n", money(cf.NetCashFlow))
		fmt.Fprintf(out, "Projected cash: %14s\n", money(cf.ProjectedCash))
		return nil
	})
}
