// Package source models the configured data sources and decides which of them claim a file.
package source

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
)

// Definition is one configured data source
type Definition struct {
	ID         string     `json:"id"`
	Attributes Attributes `json:"attributes"`
}

// Attributes hold the matching rule and the manifest settings of a source
type Attributes struct {
	// StorageBucket and FolderPath are required keys, nil when absent.
	// An empty value is a valid rule: an empty folder path claims the whole bucket.
	StorageBucket *string `json:"storage_bucket"`
	FolderPath    *string `json:"folder_path"`
	// FileExtension is optional, empty means any extension.
	FileExtension string `json:"file_extension,omitempty"`

	SourceSystem       string              `json:"ade_source_system,omitempty"`
	SourceEntity       string              `json:"ade_source_entity,omitempty"`
	SingleFileManifest bool                `json:"single_file_manifest,omitempty"`
	MaxFilesInManifest int                 `json:"max_files_in_manifest,omitempty"`
	ManifestParameters *ManifestParameters `json:"manifest_parameters,omitempty"`
}

// ManifestParameters are passed through to the Notify API when a manifest is created
type ManifestParameters struct {
	Format      string   `json:"format,omitempty"`
	Delim       string   `json:"delim,omitempty"`
	Compression string   `json:"compression,omitempty"`
	SkipH       *int     `json:"skiph,omitempty"`
	FullScanned *bool    `json:"fullscanned,omitempty"`
	Columns     []string `json:"columns,omitempty"`
}

// Extension returns the extension constraint of the source, "" when there is none
func (d Definition) Extension() string {
	return d.Attributes.FileExtension
}

// Location returns the bucket/folder prefix the source claims
func (d Definition) Location() string {
	return aws.StringValue(d.Attributes.StorageBucket) + "/" + aws.StringValue(d.Attributes.FolderPath)
}

// ConfigurationError reports a missing, unparsable or malformed source configuration
type ConfigurationError struct {
	SourceID string
	Index    int
	Reason   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s: source %d (id %q)", msg, e.Index, e.SourceID)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError returns an error about the configuration document as a whole
func NewConfigurationError(reason string, err error) *ConfigurationError {
	return &ConfigurationError{Index: -1, Reason: reason, Err: err}
}

// Validate checks that a definition carries the attributes matching depends on
func (d Definition) Validate() error {
	switch {
	case d.Attributes.StorageBucket == nil:
		return fmt.Errorf("missing storage_bucket")
	case d.Attributes.FolderPath == nil:
		return fmt.Errorf("missing folder_path")
	}
	return nil
}

// Parse decodes a configuration document, a JSON array of source definitions
func Parse(data []byte) ([]Definition, error) {

	var defs []Definition
	err := json.Unmarshal(data, &defs)
	if err != nil {
		return nil, NewConfigurationError("failed to unmarshal source configuration", err)
	}
	if defs == nil {
		return nil, NewConfigurationError("source configuration is not a list", nil)
	}
	return defs, nil
}
