// Package settings holds the per-deployment configuration of the training
// workflow: identities of the AWS resources it touches, compute sizing, and
// retry policies. Values come from compiled defaults, an optional YAML file,
// and TRAINFLOW_* environment overrides, in that order.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/animus-labs/trainflow/internal/domain"
)

type Settings struct {
	StateMachine     StateMachine `yaml:"state_machine"`
	SageMakerRoleARN string       `yaml:"sagemaker_role_arn"`
	CatalogTable     string       `yaml:"catalog_table"`
	Functions        Functions    `yaml:"functions"`
	Training         Training     `yaml:"training"`
	Hosting          Hosting      `yaml:"hosting"`
	Retry            Retry        `yaml:"retry"`
	Patch            Patch        `yaml:"patch"`
	Publish          Publish      `yaml:"publish"`
	Archive          Toggle       `yaml:"archive"`
	Ledger           Toggle       `yaml:"ledger"`
}

type StateMachine struct {
	ARN     string `yaml:"arn"`
	Name    string `yaml:"name"`
	RoleARN string `yaml:"role_arn"`
	Comment string `yaml:"comment"`
}

type Functions struct {
	EndpointWait string `yaml:"endpoint_wait"`
	ModelTest    string `yaml:"model_test"`
}

type Training struct {
	ImagePlaceholder  string `yaml:"image_placeholder"`
	InstanceType      string `yaml:"instance_type"`
	InstanceCount     int    `yaml:"instance_count"`
	VolumeSizeGB      int    `yaml:"volume_size_gb"`
	MaxRuntimeSeconds int    `yaml:"max_runtime_seconds"`
	ContentType       string `yaml:"content_type"`
	OutputPath        string `yaml:"output_path"`
	KMSKeyID          string `yaml:"kms_key_id"`
}

type Hosting struct {
	InstanceType         string `yaml:"instance_type"`
	InitialInstanceCount int    `yaml:"initial_instance_count"`
	VariantName          string `yaml:"variant_name"`
}

type Retry struct {
	Throttling        RetryPolicy `yaml:"throttling"`
	EndpointReadiness RetryPolicy `yaml:"endpoint_readiness"`
}

type RetryPolicy struct {
	ErrorEquals     []string `yaml:"error_equals"`
	IntervalSeconds int      `yaml:"interval_seconds"`
	MaxAttempts     int      `yaml:"max_attempts"`
	BackoffRate     float64  `yaml:"backoff_rate"`
}

func (p RetryPolicy) Domain() domain.RetryPolicy {
	return domain.RetryPolicy{
		ErrorEquals:     append([]string(nil), p.ErrorEquals...),
		IntervalSeconds: p.IntervalSeconds,
		MaxAttempts:     p.MaxAttempts,
		BackoffRate:     p.BackoffRate,
	}
}

type Patch struct {
	// Lenient restores the old behaviour where a fixup that no longer matches
	// the rendered definition is skipped with a warning instead of failing.
	Lenient bool `yaml:"lenient"`
}

type Publish struct {
	CreateIfMissing    bool          `yaml:"create_if_missing"`
	PublishVersion     bool          `yaml:"publish_version"`
	VersionDescription string        `yaml:"version_description"`
	Timeout            time.Duration `yaml:"timeout"`
	Preflight          bool          `yaml:"preflight"`
	Region             string        `yaml:"region"`
}

type Toggle struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the sizing and retry defaults of the training workflow. The
// resource identities are left empty and must be configured.
func Default() Settings {
	return Settings{
		Training: Training{
			ImagePlaceholder:  "latest",
			InstanceType:      "ml.m5.2xlarge",
			InstanceCount:     1,
			VolumeSizeGB:      10,
			MaxRuntimeSeconds: 86400,
			ContentType:       "csv",
		},
		Hosting: Hosting{
			InstanceType:         "ml.m5.large",
			InitialInstanceCount: 1,
			VariantName:          "AllTraffic",
		},
		Retry: Retry{
			Throttling: RetryPolicy{
				ErrorEquals:     []string{"ThrottlingException", "SageMaker.AmazonSageMakerException"},
				IntervalSeconds: 5,
				MaxAttempts:     60,
				BackoffRate:     1.25,
			},
			EndpointReadiness: RetryPolicy{
				ErrorEquals:     []string{"NotInService"},
				IntervalSeconds: 15,
				MaxAttempts:     30,
				BackoffRate:     1.25,
			},
		},
		Publish: Publish{
			Timeout: 30 * time.Second,
		},
	}
}

// Load builds Settings from defaults, the YAML file at path (skipped when path
// is empty), and environment overrides, then validates the result.
func Load(path string) (Settings, error) {
	s := Default()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("read settings: %w", err)
		}
		if err := decodeYAML(raw, &s); err != nil {
			return Settings{}, err
		}
	}
	if err := applyEnv(&s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Parse decodes YAML over the defaults without reading the environment.
func Parse(raw []byte) (Settings, error) {
	s := Default()
	if err := decodeYAML(raw, &s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func decodeYAML(raw []byte, s *Settings) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode settings: %w", err)
	}
	return nil
}
