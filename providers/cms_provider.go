package providers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/meysamhadeli/imgsync/providers/contracts"
	"github.com/meysamhadeli/imgsync/providers/models"
	"github.com/meysamhadeli/imgsync/providers/sanity"
)

// CMSProviderConfig selects the backend and carries its settings.
type CMSProviderConfig struct {
	CMSType string        `mapstructure:"cms_type" yaml:"cms_type"`
	Sanity  *SanityConfig `mapstructure:"sanity" yaml:"sanity"`
}

// SanityConfig holds the settings of the Sanity backend.
type SanityConfig struct {
	ProjectID  string `mapstructure:"project_id" yaml:"project_id"`
	Dataset    string `mapstructure:"dataset" yaml:"dataset"`
	ApiVersion string `mapstructure:"api_version" yaml:"api_version"`
	Token      string `mapstructure:"token" yaml:"token"`
	Type       string `mapstructure:"type" yaml:"type"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// NewCMSProvider builds the provider named by config.CMSType.
func NewCMSProvider(config *CMSProviderConfig, httpClient *http.Client) (contracts.ICMSProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: no provider configured", models.ErrUnsupportedProvider)
	}

	switch strings.ToLower(strings.TrimSpace(config.CMSType)) {
	case "sanity":
		if config.Sanity == nil {
			return nil, models.MissingFieldError{Field: "sanity"}
		}
		return sanity.NewSanityProvider(&sanity.SanityConfig{
			ProjectID:  config.Sanity.ProjectID,
			Dataset:    config.Sanity.Dataset,
			ApiVersion: config.Sanity.ApiVersion,
			Token:      config.Sanity.Token,
			Type:       config.Sanity.Type,
			BaseURL:    config.Sanity.BaseURL,
			HTTPClient: httpClient,
		})
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedProvider, config.CMSType)
	}
}
