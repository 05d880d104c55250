package sync_engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/meysamhadeli/imgsync/constants/lipgloss"
	scanner_contracts "github.com/meysamhadeli/imgsync/image_scanner/contracts"
	provider_contracts "github.com/meysamhadeli/imgsync/providers/contracts"
	"github.com/meysamhadeli/imgsync/state_management"
	state_contracts "github.com/meysamhadeli/imgsync/state_management/contracts"
	state_models "github.com/meysamhadeli/imgsync/state_management/models"
	"github.com/meysamhadeli/imgsync/sync_engine/contracts"
	"github.com/meysamhadeli/imgsync/sync_engine/models"
	log "github.com/sirupsen/logrus"
)

// SyncEngine pushes new or changed images of one folder to a CMS provider.
type SyncEngine struct {
	provider      provider_contracts.ICMSProvider
	scanner       scanner_contracts.IImageScanner
	state         state_contracts.IStateManagement
	imageFolder   string
	out           io.Writer
	clock         clockwork.Clock
	debounceDelay time.Duration
}

// NewSyncEngine wires the engine. Progress lines go to out, or stdout when nil.
func NewSyncEngine(
	provider provider_contracts.ICMSProvider,
	scanner scanner_contracts.IImageScanner,
	state state_contracts.IStateManagement,
	imageFolder string,
	out io.Writer,
) contracts.ISyncEngine {
	if out == nil {
		out = os.Stdout
	}
	return &SyncEngine{
		provider:      provider,
		scanner:       scanner,
		state:         state,
		imageFolder:   imageFolder,
		out:           out,
		clock:         clockwork.NewRealClock(),
		debounceDelay: watchDebounce,
	}
}

// TitleFromFileName derives a document title: the name without its extension,
// underscores replaced by spaces.
func TitleFromFileName(fileName string) string {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if stem == "" {
		// Dot-files such as ".png" have no extension to strip.
		stem = fileName
	}
	return strings.ReplaceAll(stem, "_", " ")
}

// Run performs one pass over the image folder. Images are processed one at a
// time in name order; the first failure aborts the run before the manifest is
// written, so every image of an aborted run is retried next time.
func (engine *SyncEngine) Run(ctx context.Context, options models.SyncOptions) (*models.SyncReport, error) {
	start := engine.clock.Now()

	lastState, err := engine.state.Load()
	if err != nil {
		return nil, err
	}

	images, err := engine.scanner.ScanImages(engine.imageFolder)
	if err != nil {
		return nil, err
	}

	report := &models.SyncReport{
		DryRun:  options.DryRun,
		Scanned: len(images),
	}
	currentState := state_models.Manifest{}

	for _, image := range images {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sync interrupted: %w", err)
		}

		hash, err := engine.scanner.HashImage(image)
		if err != nil {
			return nil, fmt.Errorf("failed to hash %s: %w", image.Name, err)
		}
		currentState[image.Name] = hash

		if !lastState.NeedsSync(image.Name, hash) {
			report.Unchanged++
			continue
		}

		fmt.Fprintln(engine.out, lipgloss.Yellow.Render(fmt.Sprintf("New or updated image found: %s", image.Name)))

		synced := models.SyncedImage{
			Name:  image.Name,
			Title: TitleFromFileName(image.Name),
			Hash:  hash,
		}

		if options.DryRun {
			report.Synced = append(report.Synced, synced)
			continue
		}

		synced.AssetID, err = engine.provider.UploadImage(ctx, image.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", image.Name, err)
		}

		if _, err := engine.provider.CreateDocument(ctx, synced.Title, synced.AssetID); err != nil {
			return nil, fmt.Errorf("failed to create document for %s: %w", image.Name, err)
		}

		log.WithFields(log.Fields{
			"file":  image.Name,
			"asset": synced.AssetID,
			"hash":  hash,
		}).Debug("Image synced")
		fmt.Fprintln(engine.out, lipgloss.Green.Render(fmt.Sprintf("Created new document for %s", image.Name)))
		report.Synced = append(report.Synced, synced)
	}

	report.Removed = state_management.Diff(lastState, currentState).Removed
	for _, name := range report.Removed {
		log.WithField("file", name).Info("Image no longer in the folder, its remote document is kept")
	}

	if !options.DryRun {
		if err := engine.state.Save(currentState); err != nil {
			return nil, err
		}
	}

	report.Duration = engine.clock.Since(start)
	fmt.Fprintln(engine.out, lipgloss.Green.Render("Sync completed."))

	return report, nil
}
