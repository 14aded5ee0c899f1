// Package config reads the function settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigKey is where the source configuration lives in the configuration bucket
	DefaultConfigKey = "datasource-config/datasources.json"
	// DefaultNotifyTimeout bounds each Notify API call
	DefaultNotifyTimeout = 10 * time.Second
)

// Settings hold everything the function reads from its environment
type Settings struct {
	FileURLPrefix string
	ConfigBucket  string
	ConfigKey     string
	SecretID      string
	Region        string
	LogLevel      string
	NotifyTimeout time.Duration
}

// Load reads the settings from environment variables
func Load() (*Settings, error) {

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("CONFIG_KEY", DefaultConfigKey)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("NOTIFY_TIMEOUT", DefaultNotifyTimeout.String())

	// a bare number would be read as nanoseconds, so the unit is required
	timeout, err := time.ParseDuration(v.GetString("NOTIFY_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_TIMEOUT: %v", err)
	}

	s := &Settings{
		FileURLPrefix: v.GetString("FILE_URL_PREFIX"),
		ConfigBucket:  v.GetString("BUCKET_NAME"),
		ConfigKey:     v.GetString("CONFIG_KEY"),
		SecretID:      v.GetString("NOTIFY_API_SECRET_ID"),
		Region:        v.GetString("AWS_REGION"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		NotifyTimeout: timeout,
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the required settings are present
func (s *Settings) Validate() error {

	required := []struct {
		env   string
		value string
	}{
		{env: "FILE_URL_PREFIX", value: s.FileURLPrefix},
		{env: "BUCKET_NAME", value: s.ConfigBucket},
		{env: "NOTIFY_API_SECRET_ID", value: s.SecretID},
	}

	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing environment variable: %v", r.env)
		}
	}

	if s.ConfigKey == "" {
		return fmt.Errorf("empty CONFIG_KEY")
	}
	if s.NotifyTimeout <= 0 {
		return fmt.Errorf("invalid NOTIFY_TIMEOUT: %v", s.NotifyTimeout)
	}
	return nil
}

// AWSConfig returns the client config, leaving the region to the shared config when AWS_REGION is unset
func (s *Settings) AWSConfig() *aws.Config {
	cfg := &aws.Config{}
	if s.Region != "" {
		cfg.Region = aws.String(s.Region)
	}
	return cfg
}
