package cmd

import (
	"bufio"
	"fmt"

	"github.com/meysamhadeli/imgsync/constants/lipgloss"
	"github.com/meysamhadeli/imgsync/utils"
	"github.com/spf13/cobra"
)

// stateCmd: imgsync state
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show or reset the manifest of synced images",
	Long: `The 'state' subcommand prints the manifest written by the last completed sync,
mapping every image file name to its content hash. With --reset the manifest is
deleted, so the next sync uploads every image in the folder again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reset, _ := cmd.Flags().GetBool("reset")
		force, _ := cmd.Flags().GetBool("force")
		plain, _ := cmd.Flags().GetBool("plain")

		return handleStateCommand(cmd, reset, force, plain)
	},
}

func init() {
	stateCmd.Flags().BoolP("reset", "r", false, "Delete the manifest so every image is synced again")
	stateCmd.Flags().BoolP("force", "f", false, "Reset without confirmation")
	stateCmd.Flags().Bool("plain", false, "Print the manifest without syntax highlighting")

	rootCmd.AddCommand(stateCmd)
}

func handleStateCommand(cmd *cobra.Command, reset bool, force bool, plain bool) error {
	rootDependencies, err := handleRootCommand(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	stateManager := rootDependencies.StateManager

	if !reset {
		manifest, err := stateManager.Load()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, lipgloss.Info.Render(fmt.Sprintf("%s (%d images)", stateManager.Path(), len(manifest))))
		return utils.RenderJSON(out, manifest, !plain)
	}

	if !force {
		confirmed, err := utils.Confirm(bufio.NewReader(cmd.InOrStdin()), out, fmt.Sprintf("Delete %s? Every image will be uploaded again on the next sync.", stateManager.Path()))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(out, lipgloss.Yellow.Render("State reset cancelled."))
			return nil
		}
	}

	if err := stateManager.Reset(); err != nil {
		return err
	}

	fmt.Fprintln(out, lipgloss.Green.Render("✓ Manifest has been reset."))
	return nil
}
