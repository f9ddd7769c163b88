package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeportal/importer"
	"github.com/rustyeddy/tradeportal/internal/app"
	"github.com/rustyeddy/tradeportal/ledger"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import trades from a broker CSV export",
	Long: `Import closed trades from a broker CSV export.

Expected columns: name, order_id, symbol, mov_time, mov_type, exec_qty,
price_done, points, profit. Rows without a non-zero profit are skipped.
Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <file.csv>",
	Short: "Export all trades as CSV in the import layout",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List accounts with balances and drawdown",
	Args:  cobra.NoArgs,
	RunE:  runAccounts,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show trade statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(statsCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		r = f
	}

	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		n, err := a.Portal.ImportCSV(ctx, r)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d trades from %s\n", n, args[0])
		return nil
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		trades := a.Portal.State().Trades
		if args[0] == "-" {
			return importer.Write(cmd.OutOrStdout(), trades)
		}
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		if err := importer.Write(f, trades); err != nil {
			_ = f.Close()
			return fmt.Errorf("write csv: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d trades to %s\n", len(trades), args[0])
		return nil
	})
}

func sortedAccounts(s ledger.State) []ledger.Account {
	out := make([]ledger.Account, 0, len(s.Accounts))
	for _, acc := range s.Accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func runAccounts(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		accounts := sortedAccounts(a.Portal.State())
		if len(accounts) == 0 {
			fmt.Fprintln(out, "No accounts yet. Import a CSV export to get started.")
			return nil
		}
		fmt.Fprintf(out, "%-20s %14s %12s %12s %14s  %s\n", "ACCOUNT", "BALANCE", "P/L", "WITHDRAWN", "DRAWDOWN", "STATUS")
		for _, acc := range accounts {
			fmt.Fprintf(out, "%-20s %14s %12s %12s %14s  %s\n",
				acc.ID,
				money(acc.CurrentBalance),
				money(acc.TotalPL),
				money(acc.Withdrawn),
				money(acc.AvailableDrawdown),
				acc.Status,
			)
		}
		return nil
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		s := a.Portal.State()
		sum := ledger.Summarize(s)

		fmt.Fprintln(out, "Trading Summary")
		fmt.Fprintln(out, "===============")
		fmt.Fprintf(out, "Total P/L:         %s\n", money(sum.TotalPL))
		fmt.Fprintf(out, "Withdrawals:       %s\n", money(sum.TotalWithdrawals))
		fmt.Fprintf(out, "Trades:            %d (%d wins, %d losses)\n", sum.TotalTrades, sum.WinningTrades, sum.LosingTrades)
		fmt.Fprintf(out, "Win rate:          %.1f%%\n", sum.WinRate)
		fmt.Fprintf(out, "Avg win / loss:    %s / %s\n", money(sum.AvgWin), money(sum.AvgLoss))
		fmt.Fprintf(out, "Profit factor:     %.2f\n", sum.ProfitFactor)
		fmt.Fprintf(out, "Payoff ratio:      %.2f\n", sum.PayoffRatio)
		fmt.Fprintf(out, "Expectancy:        %s\n", money(sum.Expectancy))
		fmt.Fprintf(out, "Active accounts:   %d\n", sum.ActiveAccounts)

		symbols := ledger.BySymbol(s.Trades)
		if len(symbols) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%-10s %7s %8s %14s %12s\n", "SYMBOL", "TRADES", "WIN %", "P/L", "AVG")
			for _, st := range symbols {
				fmt.Fprintf(out, "%-10s %7d %7.1f%% %14s %12s\n", st.Symbol, st.Trades, st.WinRate, money(st.TotalPL), money(st.AvgPL))
			}
		}
		return nil
	})
}
