package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meysamhadeli/imgsync/image_scanner"
	"github.com/meysamhadeli/imgsync/providers"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigFileName is looked up in the working directory with any extension viper reads.
const ConfigFileName = "imgsync-config"

// Config represents the structure of the configuration file
type Config struct {
	ImageFolder                 string `mapstructure:"image_folder" yaml:"image_folder"`
	StateFile                   string `mapstructure:"state_file" yaml:"state_file"`
	HashAlgorithm               string `mapstructure:"hash_algorithm" yaml:"hash_algorithm"`
	EnableCache                 bool   `mapstructure:"enable_cache" yaml:"enable_cache"`
	CacheDir                    string `mapstructure:"cache_dir" yaml:"cache_dir"`
	Verbose                     bool   `mapstructure:"verbose" yaml:"verbose"`
	providers.CMSProviderConfig `mapstructure:",squash" yaml:",inline"`
}

// DefaultConfig values
var DefaultConfig = Config{
	ImageFolder:   "images",
	StateFile:     "image_state.json",
	HashAlgorithm: image_scanner.HashMD5,
	EnableCache:   false,
	CacheDir:      ".imgsync-cache",
	Verbose:       false,
	CMSProviderConfig: providers.CMSProviderConfig{
		CMSType: "sanity",
		Sanity: &providers.SanityConfig{
			ProjectID:  "",
			Dataset:    "production",
			ApiVersion: "2021-06-07",
			Token:      "",
			Type:       "",
			BaseURL:    "",
		},
	},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs reads the configuration from defaults, the config file,
// environment variables and CLI flags, in increasing order of precedence.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(cwd)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
			// No config file: defaults, env and flags only.
		}
	}

	bindFlags(v, rootCmd)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return &config, nil
}

// normalize expands home-relative paths and validates the settings every command needs.
func (config *Config) normalize() error {
	for _, path := range []*string{&config.ImageFolder, &config.StateFile, &config.CacheDir} {
		expanded, err := homedir.Expand(strings.TrimSpace(*path))
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *path, err)
		}
		*path = expanded
	}

	if config.ImageFolder == "" {
		return fmt.Errorf("image_folder must be set")
	}
	if config.StateFile == "" {
		return fmt.Errorf("state_file must be set")
	}

	algorithm, err := image_scanner.NormalizeHashAlgorithm(config.HashAlgorithm)
	if err != nil {
		return err
	}
	config.HashAlgorithm = algorithm

	return nil
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("image_folder", DefaultConfig.ImageFolder)
	v.SetDefault("state_file", DefaultConfig.StateFile)
	v.SetDefault("hash_algorithm", DefaultConfig.HashAlgorithm)
	v.SetDefault("enable_cache", DefaultConfig.EnableCache)
	v.SetDefault("cache_dir", DefaultConfig.CacheDir)
	v.SetDefault("verbose", DefaultConfig.Verbose)
	v.SetDefault("cms_type", DefaultConfig.CMSType)
	v.SetDefault("sanity.project_id", DefaultConfig.Sanity.ProjectID)
	v.SetDefault("sanity.dataset", DefaultConfig.Sanity.Dataset)
	v.SetDefault("sanity.api_version", DefaultConfig.Sanity.ApiVersion)
	v.SetDefault("sanity.token", DefaultConfig.Sanity.Token)
	v.SetDefault("sanity.type", DefaultConfig.Sanity.Type)
	v.SetDefault("sanity.base_url", DefaultConfig.Sanity.BaseURL)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("image_folder", "IMAGE_FOLDER")
	_ = v.BindEnv("state_file", "STATE_FILE")
	_ = v.BindEnv("hash_algorithm", "HASH_ALGORITHM")
	_ = v.BindEnv("enable_cache", "ENABLE_CACHE")
	_ = v.BindEnv("cache_dir", "CACHE_DIR")
	_ = v.BindEnv("verbose", "VERBOSE")
	_ = v.BindEnv("cms_type", "CMS_TYPE")
	_ = v.BindEnv("sanity.project_id", "SANITY_PROJECT_ID")
	_ = v.BindEnv("sanity.dataset", "SANITY_DATASET")
	_ = v.BindEnv("sanity.api_version", "SANITY_API_VERSION")
	_ = v.BindEnv("sanity.token", "SANITY_TOKEN")
	_ = v.BindEnv("sanity.type", "SANITY_TYPE")
	_ = v.BindEnv("sanity.base_url", "SANITY_BASE_URL")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(v *viper.Viper, rootCmd *cobra.Command) {
	_ = v.BindPFlag("image_folder", rootCmd.PersistentFlags().Lookup("image_folder"))
	_ = v.BindPFlag("state_file", rootCmd.PersistentFlags().Lookup("state_file"))
	_ = v.BindPFlag("hash_algorithm", rootCmd.PersistentFlags().Lookup("hash_algorithm"))
	_ = v.BindPFlag("enable_cache", rootCmd.PersistentFlags().Lookup("enable_cache"))
	_ = v.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache_dir"))
	_ = v.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = v.BindPFlag("cms_type", rootCmd.PersistentFlags().Lookup("cms_type"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("image_folder", DefaultConfig.ImageFolder, "The folder whose png/jpg/jpeg/gif images are synced.")
	rootCmd.PersistentFlags().String("state_file", DefaultConfig.StateFile, "The JSON manifest of file hashes from the last completed sync.")
	rootCmd.PersistentFlags().String("hash_algorithm", DefaultConfig.HashAlgorithm, "The content hash used for change detection (e.g., 'md5', 'xxh3').")
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Reuse image hashes while a file's size and modification time are unchanged. Faster on large folders, but a rewrite that keeps both (cp -p, rsync -a) goes unnoticed.")
	rootCmd.PersistentFlags().String("cache_dir", DefaultConfig.CacheDir, "The directory holding the image hash cache.")
	rootCmd.PersistentFlags().BoolP("verbose", "v", DefaultConfig.Verbose, "Enable debug logging.")
	rootCmd.PersistentFlags().String("cms_type", DefaultConfig.CMSType, "The content management system to sync with (e.g., 'sanity').")
}

// ConfigFile returns the config file path given on the command line, if any.
func ConfigFile() string {
	return cfgFile
}
