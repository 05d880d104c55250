package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/meysamhadeli/imgsync/config"
	"github.com/meysamhadeli/imgsync/constants/lipgloss"
	"github.com/meysamhadeli/imgsync/image_scanner"
	contracts_scanner "github.com/meysamhadeli/imgsync/image_scanner/contracts"
	"github.com/meysamhadeli/imgsync/providers"
	"github.com/meysamhadeli/imgsync/state_management"
	contracts_state "github.com/meysamhadeli/imgsync/state_management/contracts"
	"github.com/meysamhadeli/imgsync/sync_engine"
	contracts_sync "github.com/meysamhadeli/imgsync/sync_engine/contracts"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Upper bound for a single CMS request, large uploads included.
const httpTimeout = 5 * time.Minute

// RootDependencies holds everything the subcommands share.
type RootDependencies struct {
	Config       *config.Config
	Cwd          string
	Fs           afero.Fs
	Scanner      contracts_scanner.IImageScanner
	StateManager contracts_state.IStateManagement
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imgsync",
	Short: "Sync a local image folder to a headless CMS",
	Long: `imgsync scans an image folder, hashes every png/jpg/jpeg/gif file and uploads
new or changed images to the configured CMS, creating one document per image.
The hashes of the last completed sync are kept in a JSON manifest, so unchanged
images are never uploaded twice. Running without a subcommand performs a sync.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return handleSyncCommand(cmd, false, false)
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command and exits with status 1 on any error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("error getting current working directory: %w", err)
	}

	cfg, err := config.LoadConfigs(cmd.Root(), cwd)
	if err != nil {
		return nil, err
	}

	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	log.WithField("config_file", config.ConfigFile()).Debug("Configuration loaded")

	fs := afero.NewOsFs()

	scanner, err := image_scanner.NewImageScanner(fs, cfg.HashAlgorithm, cfg.EnableCache, cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	return &RootDependencies{
		Config:       cfg,
		Cwd:          cwd,
		Fs:           fs,
		Scanner:      scanner,
		StateManager: state_management.NewStateManager(fs, cfg.StateFile),
	}, nil
}

// newSyncEngine builds the CMS provider first, so a bad cms_type stops the
// command before anything is scanned.
func newSyncEngine(cmd *cobra.Command, deps *RootDependencies) (contracts_sync.ISyncEngine, error) {
	provider, err := providers.NewCMSProvider(&deps.Config.CMSProviderConfig, &http.Client{Timeout: httpTimeout})
	if err != nil {
		return nil, err
	}

	return sync_engine.NewSyncEngine(provider, deps.Scanner, deps.StateManager, deps.Config.ImageFolder, cmd.OutOrStdout()), nil
}
