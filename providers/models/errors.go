package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedProvider is returned by the provider factory for an unknown cms_type.
var ErrUnsupportedProvider = errors.New("unsupported CMS type")

// CMSError mirrors the error body returned by the backend. Mutation and asset
// errors carry an object under "error"; auth failures carry a plain string
// next to "message".
type CMSError struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// Text returns the most descriptive message present in the body.
func (e CMSError) Text() string {
	var detail struct {
		Description string `json:"description"`
	}
	if json.Unmarshal(e.Error, &detail) == nil && detail.Description != "" {
		return detail.Description
	}
	if e.Message != "" {
		return e.Message
	}

	var text string
	if json.Unmarshal(e.Error, &text) == nil {
		return text
	}
	return ""
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (err *StatusError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("%s failed with status code '%d'", err.Op, err.StatusCode)
	}
	return fmt.Sprintf("%s failed with status code '%d' - %s", err.Op, err.StatusCode, err.Message)
}

// MissingFieldError represents a missing required provider setting.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}
