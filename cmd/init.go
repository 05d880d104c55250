package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/imgsync/config"
	"github.com/meysamhadeli/imgsync/constants/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const sampleConfigHeader = `# imgsync configuration.
# Every key can also be set with an environment variable (e.g. SANITY_TOKEN)
# or a command line flag. Keep the token out of version control.
`

// initCmd: imgsync init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file to the working directory",
	Long: `The 'init' subcommand writes imgsync-config.yaml with every setting at its default
value. Fill in the Sanity project id and token before the first sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("error getting current working directory: %w", err)
		}

		path := filepath.Join(cwd, config.ConfigFileName+".yaml")
		if err := writeSampleConfig(afero.NewOsFs(), path, force); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), lipgloss.Green.Render(fmt.Sprintf("✓ Wrote %s", path)))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")

	rootCmd.AddCommand(initCmd)
}

// sampleConfig is the default configuration with placeholders for the values
// only the user can know.
func sampleConfig() config.Config {
	sample := config.DefaultConfig
	sanity := *config.DefaultConfig.Sanity
	sanity.ProjectID = "your-project-id"
	sanity.Type = "imageDocument"
	sample.Sanity = &sanity
	return sample
}

func writeSampleConfig(fs afero.Fs, path string, force bool) error {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if exists && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite it", path)
	}

	var buf bytes.Buffer
	buf.WriteString(sampleConfigHeader)

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(sampleConfig()); err != nil {
		return fmt.Errorf("failed to encode sample config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode sample config: %w", err)
	}

	if err := afero.WriteFile(fs, path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
