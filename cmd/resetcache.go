package cmd

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/meysamhadeli/imgsync/constants/lipgloss"
	"github.com/meysamhadeli/imgsync/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the image hash cache",
	Long: `The 'reset-cache' command removes every cached image hash from the cache directory.
Hashes are recomputed on the next sync. The manifest of synced images is not touched,
so nothing is uploaded again unless its content changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")

		return handleResetCacheCommand(cmd, force, stats)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of resetting")

	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(cmd *cobra.Command, force bool, showStats bool) error {
	rootDependencies, err := handleRootCommand(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if showStats {
		return printCacheStats(out, rootDependencies)
	}

	if !rootDependencies.Config.EnableCache {
		fmt.Fprintln(out, lipgloss.Yellow.Render("Cache is disabled. No cache to reset."))
		return nil
	}

	if !force {
		confirmed, err := utils.Confirm(bufio.NewReader(cmd.InOrStdin()), out, "Are you sure you want to reset the image hash cache?")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(out, lipgloss.Yellow.Render("Cache reset cancelled."))
			return nil
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100 * time.Millisecond).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Resetting image hash cache...")
	err = rootDependencies.Scanner.ClearCache()
	_ = spinnerInstance.Stop()

	if err != nil {
		return fmt.Errorf("error resetting cache: %w", err)
	}

	fmt.Fprintln(out, lipgloss.Green.Render("✓ Image hash cache has been successfully reset!"))
	return nil
}

func printCacheStats(out io.Writer, rootDependencies *RootDependencies) error {
	cacheStats, err := rootDependencies.Scanner.GetCacheStats()
	if err != nil {
		return fmt.Errorf("could not read cache statistics: %w", err)
	}

	fmt.Fprintln(out, lipgloss.Info.Render("Cache Statistics:"))
	if enabled, ok := cacheStats["cache_enabled"].(bool); !ok || !enabled {
		fmt.Fprintln(out, "  Cache is disabled")
		return nil
	}

	if dir, ok := cacheStats["cache_dir"].(string); ok {
		fmt.Fprintf(out, "  Cache Directory: %s\n", dir)
	}
	if files, ok := cacheStats["cache_files"].(int); ok {
		fmt.Fprintf(out, "  Cached Hashes: %d\n", files)
	}
	if size, ok := cacheStats["total_size"].(int64); ok {
		fmt.Fprintf(out, "  Total Size: %.2f KB\n", float64(size)/1024)
	}
	return nil
}
