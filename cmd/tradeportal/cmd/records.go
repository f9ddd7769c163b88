package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeportal/internal/app"
	"github.com/rustyeddy/tradeportal/ledger"
)

// recordFlags are shared by "expense add" and "income add".
type recordFlags struct {
	category    string
	description string
	amount      string
	date        string
	paid        bool
	recurring   bool
}

func (f *recordFlags) bind(cmd *cobra.Command, dateName, dateHelp, paidHelp string) {
	cmd.Flags().StringVar(&f.category, "category", "Other", "category")
	cmd.Flags().StringVarP(&f.description, "desc", "d", "", "description (required)")
	cmd.Flags().StringVarP(&f.amount, "amount", "m", "", "amount (required)")
	cmd.Flags().StringVar(&f.date, dateName, "", dateHelp)
	cmd.Flags().BoolVar(&f.paid, "paid", false, paidHelp)
	cmd.Flags().BoolVar(&f.recurring, "recurring", false, "repeats every month")
	_ = cmd.MarkFlagRequired("desc")
	_ = cmd.MarkFlagRequired("amount")
}

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Manage bills and expenses",
}

var expenseAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add an expense",
	Example: `  tradeportal expense add -d Rent -m 1200 --category Housing --due 2025-04-01 --recurring`,
	Args:    cobra.NoArgs,
	RunE:    runExpenseAdd,
}

var expensePayCmd = &cobra.Command{
	Use:   "pay <id>",
	Short: "Mark an expense paid and take it out of cash",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpensePay,
}

var expenseRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpenseRm,
}

var expenseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses",
	Args:  cobra.NoArgs,
	RunE:  runExpenseList,
}

var incomeCmd = &cobra.Command{
	Use:   "income",
	Short: "Manage income outside trading",
}

var incomeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an income",
	Args:  cobra.NoArgs,
	RunE:  runIncomeAdd,
}

var incomeRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an income",
	Args:  cobra.ExactArgs(1),
	RunE:  runIncomeRm,
}

var incomeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List incomes",
	Args:  cobra.NoArgs,
	RunE:  runIncomeList,
}

var expenseFlags, incomeFlags recordFlags

func init() {
	rootCmd.AddCommand(expenseCmd)
	expenseCmd.AddCommand(expenseAddCmd, expensePayCmd, expenseRmCmd, expenseListCmd)
	expenseFlags.bind(expenseAddCmd, "due", "due date as YYYY-MM-DD", "already paid (takes it out of cash)")

	rootCmd.AddCommand(incomeCmd)
	incomeCmd.AddCommand(incomeAddCmd, incomeRmCmd, incomeListCmd)
	incomeFlags.bind(incomeAddCmd, "date", "date as YYYY-MM-DD", "already received (adds it to cash)")
}

func runExpenseAdd(cmd *cobra.Command, args []string) error {
	amount, err := parseMoney(expenseFlags.amount)
	if err != nil {
		return err
	}
	if err := checkDay(expenseFlags.date); err != nil {
		return err
	}
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		e, err := a.Portal.AddExpense(ctx, ledger.Expense{
			Category:    expenseFlags.category,
			Description: expenseFlags.description,
			Amount:      amount,
			DueDate:     expenseFlags.date,
			IsPaid:      expenseFlags.paid,
			IsRecurring: expenseFlags.recurring,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Expense %s: %s %s\n", e.ID, e.Description, money(e.Amount))
		return nil
	})
}

func runExpensePay(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		for _, e := range a.Portal.State().Expenses {
			if e.ID != args[0] {
				continue
			}
			if e.IsPaid {
				fmt.Fprintf(cmd.OutOrStdout(), "Expense %s is already paid\n", e.ID)
				return nil
			}
			e.IsPaid = true
			if _, err := a.Portal.UpdateExpense(ctx, e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Paid %s (%s)\n", e.Description, money(e.Amount))
			return nil
		}
		return fmt.Errorf("expense %q not found", args[0])
	})
}

func runExpenseRm(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Portal.DeleteExpense(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Expense %s deleted\n", args[0])
		return nil
	})
}

func runExpenseList(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		expenses := a.Portal.State().Expenses
		if len(expenses) == 0 {
			fmt.Fprintln(out, "No expenses.")
			return nil
		}
		fmt.Fprintf(out, "%-26s %-12s %-24s %12s %-10s %s\n", "ID", "CATEGORY", "DESCRIPTION", "AMOUNT", "DUE", "FLAGS")
		for _, e := range expenses {
			fmt.Fprintf(out, "%-26s %-12s %-24s %12s %-10s %s\n",
				e.ID, e.Category, e.Description, money(e.Amount), e.DueDate, flags(e.IsPaid, e.IsRecurring))
		}
		return nil
	})
}

func runIncomeAdd(cmd *cobra.Command, args []string) error {
	amount, err := parseMoney(incomeFlags.amount)
	if err != nil {
		return err
	}
	if err := checkDay(incomeFlags.date); err != nil {
		return err
	}
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		in, err := a.Portal.AddIncome(ctx, ledger.Income{
			Category:    incomeFlags.category,
			Description: incomeFlags.description,
			Amount:      amount,
			Date:        incomeFlags.date,
			IsPaid:      incomeFlags.paid,
			IsRecurring: incomeFlags.recurring,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Income %s: %s %s\n", in.ID, in.Description, money(in.Amount))
		return nil
	})
}

func runIncomeRm(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Portal.DeleteIncome(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Income %s deleted\n", args[0])
		return nil
	})
}

func runIncomeList(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		incomes := a.Portal.State().Incomes
		if len(incomes) == 0 {
			fmt.Fprintln(out, "No incomes.")
			return nil
		}
		fmt.Fprintf(out, "%-26s %-12s %-24s %12s %-10s %s\n", "ID", "CATEGORY", "DESCRIPTION", "AMOUNT", "DATE", "FLAGS")
		for _, in := range incomes {
			fmt.Fprintf(out, "%-26s %-12s %-24s %12s %-10s %s\n",
				in.ID, in.Category, in.Description, money(in.Amount), in.Date, flags(in.IsPaid, in.IsRecurring))
		}
		return nil
	})
}

func flags(paid, recurring bool) string {
	s := ""
	if paid {
		s += "paid "
	}
	if recurring {
		s += "recurring"
	}
	return s
}
