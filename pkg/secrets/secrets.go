// Package secrets fetches the Notify API credentials from AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

// SecretGetter is an abstraction (helpful for testing)
type SecretGetter interface {
	GetSecretValueWithContext(aws.Context, *secretsmanager.GetSecretValueInput, ...request.Option) (*secretsmanager.GetSecretValueOutput, error)
}

// Credentials connect to the Notify API
type Credentials struct {
	BaseURL      string `json:"base_url"`
	APIKey       string `json:"api_key"`
	APIKeySecret string `json:"api_key_secret"`
}

// AccessError reports a failure to retrieve or read the credentials
type AccessError struct {
	SecretID string
	Err      error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("secret access error: %v: %v", e.SecretID, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// Provider reads credentials from one secret
type Provider struct {
	sm       SecretGetter
	secretID string
}

// NewProvider returns a new provider
func NewProvider(sg SecretGetter, secretID string) *Provider {
	return &Provider{sm: sg, secretID: secretID}
}

// Credentials returns the current version of the credentials
func (p *Provider) Credentials(ctx context.Context) (Credentials, error) {

	input := &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(p.secretID),
		VersionStage: aws.String("AWSCURRENT"),
	}

	out, err := p.sm.GetSecretValueWithContext(ctx, input)
	if err != nil {
		return Credentials{}, p.fail(fmt.Errorf("failed to get secret: %w", err))
	}

	var raw []byte
	switch {
	case out.SecretString != nil:
		raw = []byte(aws.StringValue(out.SecretString))
	case out.SecretBinary != nil:
		raw = out.SecretBinary
	default:
		return Credentials{}, p.fail(fmt.Errorf("secret has no value"))
	}

	var c Credentials
	err = json.Unmarshal(raw, &c)
	if err != nil {
		return Credentials{}, p.fail(fmt.Errorf("failed to unmarshal secret: %w", err))
	}

	if err := c.validate(); err != nil {
		return Credentials{}, p.fail(err)
	}
	return c, nil
}

func (p *Provider) fail(err error) error {
	return &AccessError{SecretID: p.secretID, Err: err}
}

func (c Credentials) validate() error {

	fields := []struct {
		key   string
		value string
	}{
		{key: "base_url", value: c.BaseURL},
		{key: "api_key", value: c.APIKey},
		{key: "api_key_secret", value: c.APIKeySecret},
	}

	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("missing value in secret: %v", f.key)
		}
	}
	return nil
}
