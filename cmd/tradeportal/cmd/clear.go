package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeportal/internal/app"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all local data and queued writes",
	Long: `Wipe the local snapshot and the pending-write queue. Remote data is not
touched; the next sync reloads it.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

var clearYes bool

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm deletion")
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		return errors.New("refusing to clear without --yes")
	}
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Portal.ClearData(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ All local data cleared")
		return nil
	})
}
