package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeportal/internal/app"
	"github.com/rustyeddy/tradeportal/remote/rest"
	"github.com/rustyeddy/tradeportal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Inspect and drive remote sync",
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mode, user and queued writes",
	Args:  cobra.NoArgs,
	RunE:  runSyncStatus,
}

var syncProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check the backend now and flush queued writes if it answers",
	Args:  cobra.NoArgs,
	RunE:  runSyncProbe,
}

var syncReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Replace local data with the remote copy",
	Args:  cobra.NoArgs,
	RunE:  runSyncReload,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncStatusCmd, syncProbeCmd, syncReloadCmd)
}

func printStatus(cmd *cobra.Command, st syncer.Status) {
	out := cmd.OutOrStdout()
	mode := "local-only"
	switch {
	case st.Online:
		mode = "online"
	case st.Remote:
		mode = "offline"
	}
	fmt.Fprintf(out, "Mode:     %s\n", mode)
	fmt.Fprintf(out, "User:     %s\n", app.UserLabel(st))
	fmt.Fprintf(out, "Pending:  %d\n", st.Pending)
	if !st.LastSync.IsZero() {
		fmt.Fprintf(out, "Synced:   %s\n", st.LastSync.Format(time.RFC3339))
	}
	if st.Error != "" {
		fmt.Fprintf(out, "Notice:   %s\n", st.Error)
	}
	if st.LastError != "" {
		fmt.Fprintf(out, "Error:    %s\n", st.LastError)
	}
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		printStatus(cmd, a.Portal.Status())
		if at, ok := a.Portal.SavedAt(ctx); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Saved:    %s\n", at.Local().Format(time.RFC3339))
		}
		return nil
	})
}

func runSyncProbe(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		if a.Portal.Status().Online {
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Already online")
			printStatus(cmd, a.Portal.Status())
			return nil
		}
		ok, err := a.Portal.ProbeNow(ctx)
		if errors.Is(err, syncer.ErrLocalOnly) {
			return errors.New("no remote backend configured")
		}
		switch apiErr, isAPI := rest.IsAPIError(err); {
		case ok:
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Backend reachable, queued writes sent")
		case isAPI:
			fmt.Fprintf(cmd.OutOrStdout(), "✗ Backend rejected request (HTTP %d %s): %s\n", apiErr.Status, apiErr.Code, apiErr.Message)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "✗ Backend unreachable: %v\n", err)
		}
		printStatus(cmd, a.Portal.Status())
		return nil
	})
}

func runSyncReload(cmd *cobra.Command, args []string) error {
	return withPortal(cmd, func(ctx context.Context, a *app.App) error {
		if !a.Portal.Status().Remote {
			return errors.New("no remote backend configured")
		}
		if err := a.Portal.Reload(ctx); err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Reloaded from remote")
		printStatus(cmd, a.Portal.Status())
		return nil
	})
}
