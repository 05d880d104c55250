package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/meysamhadeli/imgsync/providers/contracts"
	"github.com/meysamhadeli/imgsync/providers/models"
	sanity_models "github.com/meysamhadeli/imgsync/providers/sanity/models"
	log "github.com/sirupsen/logrus"
)

// SanityConfig implements the ICMSProvider interface for Sanity.
type SanityConfig struct {
	ProjectID  string
	Dataset    string
	ApiVersion string
	Token      string
	Type       string
	BaseURL    string
	HTTPClient *http.Client
}

const (
	// Uploads are always sent as JPEG; the backend sniffs the real format.
	imageContentType = "image/jpeg"
	maxErrorBodySize = 64 * 1024
)

// NewSanityProvider validates the settings and returns a ready provider.
func NewSanityProvider(config *SanityConfig) (contracts.ICMSProvider, error) {
	required := []struct {
		field string
		value string
	}{
		{"sanity.project_id", config.ProjectID},
		{"sanity.dataset", config.Dataset},
		{"sanity.api_version", config.ApiVersion},
		{"sanity.token", config.Token},
		{"sanity.type", config.Type},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, models.MissingFieldError{Field: r.field}
		}
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.api.sanity.io", config.ProjectID)
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &SanityConfig{
		ProjectID:  config.ProjectID,
		Dataset:    config.Dataset,
		ApiVersion: strings.TrimPrefix(config.ApiVersion, "v"),
		Token:      config.Token,
		Type:       config.Type,
		BaseURL:    baseURL,
		HTTPClient: client,
	}, nil
}

func (sanityProvider *SanityConfig) Name() string {
	return "sanity"
}

func (sanityProvider *SanityConfig) endpoint(path string) string {
	return fmt.Sprintf("%s/v%s/%s/%s", sanityProvider.BaseURL, sanityProvider.ApiVersion, path, sanityProvider.Dataset)
}

// UploadImage streams the file to the image asset endpoint and returns the asset document id.
func (sanityProvider *SanityConfig) UploadImage(ctx context.Context, imagePath string) (string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("error opening image: %w", err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sanityProvider.endpoint("assets/images"), file)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	if info, err := file.Stat(); err == nil {
		req.ContentLength = info.Size()
	}
	req.Header.Set("Authorization", "Bearer "+sanityProvider.Token)
	req.Header.Set("Content-Type", imageContentType)

	var response sanity_models.SanityUploadResponse
	if err := sanityProvider.do(req, "image upload", &response); err != nil {
		return "", err
	}

	if response.Document.ID == "" {
		return "", fmt.Errorf("image upload returned no asset id")
	}

	log.WithField("asset", response.Document.ID).Debug("Uploaded image asset")
	return response.Document.ID, nil
}

// CreateDocument creates a document of the configured type whose image references imageID.
func (sanityProvider *SanityConfig) CreateDocument(ctx context.Context, title string, imageID string) (*models.MutationResult, error) {
	reqBody := sanity_models.SanityMutationRequest{
		Mutations: []sanity_models.Mutation{
			{
				Create: &sanity_models.Document{
					Type:  sanityProvider.Type,
					Title: title,
					Image: sanity_models.Image{
						Type: "image",
						Asset: sanity_models.Reference{
							Type: "reference",
							Ref:  imageID,
						},
					},
				},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sanityProvider.endpoint("data/mutate"), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sanityProvider.Token)
	req.Header.Set("Content-Type", "application/json")

	var result models.MutationResult
	if err := sanityProvider.do(req, "document creation", &result); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"title":       title,
		"transaction": result.TransactionID,
	}).Debug("Created document")
	return &result, nil
}

// do sends req and decodes a 2xx JSON body into out.
func (sanityProvider *SanityConfig) do(req *http.Request, op string, out interface{}) error {
	log.WithFields(log.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	}).Debug("Sending request")

	resp, err := sanityProvider.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(req.Context().Err(), context.Canceled) {
			return fmt.Errorf("%s canceled: %w", op, err)
		}
		return fmt.Errorf("error sending %s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		statusErr := &models.StatusError{Op: op, StatusCode: resp.StatusCode}

		var apiError models.CMSError
		if err := json.Unmarshal(body, &apiError); err == nil {
			statusErr.Message = apiError.Text()
		}
		if statusErr.Message == "" {
			statusErr.Message = strings.TrimSpace(string(body))
		}
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding %s response: %w", op, err)
	}
	return nil
}
