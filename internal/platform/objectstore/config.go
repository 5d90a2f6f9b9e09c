package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/animus-labs/trainflow/internal/platform/env"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("TRAINFLOW_ARCHIVE_USE_SSL", true)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:  env.String("TRAINFLOW_ARCHIVE_ENDPOINT", "s3.amazonaws.com"),
		AccessKey: env.String("TRAINFLOW_ARCHIVE_ACCESS_KEY", ""),
		SecretKey: env.String("TRAINFLOW_ARCHIVE_SECRET_KEY", ""),
		Region:    env.String("TRAINFLOW_ARCHIVE_REGION", "us-east-1"),
		UseSSL:    useSSL,
		Bucket:    env.String("TRAINFLOW_ARCHIVE_BUCKET", ""),
		Prefix:    strings.Trim(env.String("TRAINFLOW_ARCHIVE_PREFIX", "workflow-definitions"), "/"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}
