package settings

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

func (s Settings) Validate() error {
	if err := requireARN("state_machine.arn", s.StateMachine.ARN); err != nil {
		return err
	}
	if err := requireARN("sagemaker_role_arn", s.SageMakerRoleARN); err != nil {
		return err
	}
	if strings.TrimSpace(s.StateMachine.RoleARN) != "" {
		if err := requireARN("state_machine.role_arn", s.StateMachine.RoleARN); err != nil {
			return err
		}
	}
	if s.Publish.CreateIfMissing {
		if strings.TrimSpace(s.StateMachine.Name) == "" {
			return errors.New("state_machine.name is required when publish.create_if_missing is set")
		}
		if strings.TrimSpace(s.StateMachine.RoleARN) == "" {
			return errors.New("state_machine.role_arn is required when publish.create_if_missing is set")
		}
	}
	if strings.TrimSpace(s.CatalogTable) == "" {
		return errors.New("catalog_table is required")
	}
	if strings.TrimSpace(s.Functions.EndpointWait) == "" {
		return errors.New("functions.endpoint_wait is required")
	}
	if strings.TrimSpace(s.Functions.ModelTest) == "" {
		return errors.New("functions.model_test is required")
	}

	t := s.Training
	if !strings.HasPrefix(strings.TrimSpace(t.OutputPath), "s3://") || len(strings.TrimPrefix(t.OutputPath, "s3://")) == 0 {
		return fmt.Errorf("training.output_path must be an s3:// uri, got %q", t.OutputPath)
	}
	if strings.TrimSpace(t.ImagePlaceholder) == "" {
		return errors.New("training.image_placeholder is required")
	}
	if strings.ContainsAny(t.ImagePlaceholder, `"\`) || strings.IndexFunc(t.ImagePlaceholder, notPrintable) >= 0 {
		return errors.New("training.image_placeholder must be printable and must not contain quotes or backslashes")
	}
	if strings.TrimSpace(t.InstanceType) == "" {
		return errors.New("training.instance_type is required")
	}
	if t.InstanceCount < 1 {
		return errors.New("training.instance_count must be >= 1")
	}
	if t.VolumeSizeGB < 1 {
		return errors.New("training.volume_size_gb must be >= 1")
	}
	if t.MaxRuntimeSeconds < 1 {
		return errors.New("training.max_runtime_seconds must be >= 1")
	}
	if strings.TrimSpace(t.ContentType) == "" {
		return errors.New("training.content_type is required")
	}

	h := s.Hosting
	if strings.TrimSpace(h.InstanceType) == "" {
		return errors.New("hosting.instance_type is required")
	}
	if h.InitialInstanceCount < 1 {
		return errors.New("hosting.initial_instance_count must be >= 1")
	}
	if strings.TrimSpace(h.VariantName) == "" {
		return errors.New("hosting.variant_name is required")
	}

	if err := s.Retry.Throttling.Domain().Validate(); err != nil {
		return fmt.Errorf("retry.throttling: %w", err)
	}
	if err := s.Retry.EndpointReadiness.Domain().Validate(); err != nil {
		return fmt.Errorf("retry.endpoint_readiness: %w", err)
	}
	if s.Publish.Timeout <= 0 {
		return errors.New("publish.timeout must be positive")
	}
	return nil
}

func requireARN(name, value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return fmt.Errorf("%s is required", name)
	}
	if !strings.HasPrefix(v, "arn:") {
		return fmt.Errorf("%s must be an arn, got %q", name, value)
	}
	return nil
}

func notPrintable(r rune) bool {
	return !unicode.IsPrint(r)
}
