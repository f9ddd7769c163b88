package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradeportal/config"
	"github.com/rustyeddy/tradeportal/internal/app"
	"github.com/rustyeddy/tradeportal/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tradeportal",
	Short: "Trading account ledger with local storage and cloud sync",
	Long: `Tradeportal tracks prop-firm trading accounts and personal finances.

It provides tools for:
  - Importing broker CSV exports and deriving account balances
  - Recording withdrawals, monthly profit goals, expenses and income
  - Trade statistics, net worth and cash-flow views
  - Org-mode journal entries and monthly reviews
  - Syncing with a remote database, with an offline queue

Data is always written locally first. When a remote backend is configured
and reachable, changes are pushed to it; otherwise they are queued and
sent once it comes back.`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	logLevel string
	offline  bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "tradeportal.yaml", "config file (YAML or JSON); missing means defaults")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "ignore the remote backend for this run")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// withPortal opens and starts the portal, runs fn, then closes it.
func withPortal(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	a, err := app.Open(cfg, log, offline)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			log.Warn("close portal", zap.Error(cerr))
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start portal: %w", err)
	}
	return fn(ctx, a)
}

func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$")))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
