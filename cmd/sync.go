package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/imgsync/constants/lipgloss"
	"github.com/meysamhadeli/imgsync/sync_engine"
	"github.com/meysamhadeli/imgsync/sync_engine/models"
	"github.com/spf13/cobra"
)

// syncCmd: imgsync sync
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload new or changed images and create a CMS document for each",
	Long: `The 'sync' subcommand compares the image folder against the manifest of the last
completed sync. Every new or changed image is uploaded and gets a document titled
after its file name. The run stops at the first failure without updating the
manifest, so the next run retries it. With --watch the folder is synced again
whenever an image changes, until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		watch, _ := cmd.Flags().GetBool("watch")
		return handleSyncCommand(cmd, dryRun, watch)
	},
}

func init() {
	syncCmd.Flags().BoolP("dry-run", "n", false, "Report what would be synced without uploading or saving the manifest")
	syncCmd.Flags().BoolP("watch", "w", false, "Keep running and sync again when the image folder changes")

	rootCmd.AddCommand(syncCmd)
}

func handleSyncCommand(cmd *cobra.Command, dryRun bool, watch bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootDependencies, err := handleRootCommand(cmd)
	if err != nil {
		return err
	}

	engine, err := newSyncEngine(cmd, rootDependencies)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	options := models.SyncOptions{DryRun: dryRun}

	if !watch {
		report, err := engine.Run(ctx, options)
		if err != nil {
			return err
		}
		sync_engine.DisplayReport(out, report)
		return nil
	}

	err = engine.Watch(ctx, options, func(report *models.SyncReport, err error) {
		if err != nil {
			fmt.Fprintln(out, lipgloss.Red.Render(fmt.Sprintf("Sync failed: %v", err)))
			return
		}
		sync_engine.DisplayReport(out, report)
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, lipgloss.Yellow.Render("Stopped watching."))
	return nil
}
