package sync_engine

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/meysamhadeli/imgsync/constants/lipgloss"
	"github.com/meysamhadeli/imgsync/sync_engine/models"
)

// FormatReport renders the summary lines of a run.
func FormatReport(report *models.SyncReport) string {
	syncedLabel := "Synced"
	if report.DryRun {
		syncedLabel = "Would sync"
	}

	lines := []string{
		fmt.Sprintf("Scanned: %d", report.Scanned),
		fmt.Sprintf("Unchanged: %d", report.Unchanged),
		fmt.Sprintf("%s: %d", syncedLabel, len(report.Synced)),
		fmt.Sprintf("Removed from folder: %d", len(report.Removed)),
		fmt.Sprintf("Duration: %s", report.Duration.Round(time.Millisecond)),
	}

	for _, image := range report.Synced {
		lines = append(lines, fmt.Sprintf("  + %s -> %q", image.Name, image.Title))
	}
	for _, name := range report.Removed {
		lines = append(lines, fmt.Sprintf("  - %s", name))
	}

	return strings.Join(lines, "\n")
}

// DisplayReport prints the run summary in a box.
func DisplayReport(out io.Writer, report *models.SyncReport) {
	if report == nil {
		return
	}
	fmt.Fprintln(out, lipgloss.BoxStyle.Render(FormatReport(report)))
}
