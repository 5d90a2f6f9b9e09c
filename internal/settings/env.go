package settings

import (
	"strings"

	"github.com/animus-labs/trainflow/internal/platform/env"
)

// applyEnv overlays TRAINFLOW_* variables on s. Unset variables keep the
// current value.
func applyEnv(s *Settings) error {
	overrideString(&s.StateMachine.ARN, "TRAINFLOW_STATE_MACHINE_ARN")
	overrideString(&s.StateMachine.Name, "TRAINFLOW_STATE_MACHINE_NAME")
	overrideString(&s.StateMachine.RoleARN, "TRAINFLOW_WORKFLOW_ROLE_ARN")
	overrideString(&s.SageMakerRoleARN, "TRAINFLOW_SAGEMAKER_ROLE_ARN")
	overrideString(&s.CatalogTable, "TRAINFLOW_CATALOG_TABLE")
	overrideString(&s.Functions.EndpointWait, "TRAINFLOW_ENDPOINT_WAIT_FUNCTION")
	overrideString(&s.Functions.ModelTest, "TRAINFLOW_MODEL_TEST_FUNCTION")
	overrideString(&s.Training.OutputPath, "TRAINFLOW_MODEL_ARTIFACT_BUCKET")
	overrideString(&s.Training.KMSKeyID, "TRAINFLOW_KMS_KEY_ID")
	overrideString(&s.Training.ImagePlaceholder, "TRAINFLOW_IMAGE_PLACEHOLDER")
	overrideString(&s.Training.InstanceType, "TRAINFLOW_TRAINING_INSTANCE_TYPE")
	overrideString(&s.Hosting.InstanceType, "TRAINFLOW_HOSTING_INSTANCE_TYPE")
	overrideString(&s.Publish.Region, "TRAINFLOW_AWS_REGION")
	overrideString(&s.Publish.VersionDescription, "TRAINFLOW_VERSION_DESCRIPTION")

	var err error
	if s.Training.InstanceCount, err = env.Int("TRAINFLOW_TRAINING_INSTANCE_COUNT", s.Training.InstanceCount); err != nil {
		return err
	}
	if s.Training.VolumeSizeGB, err = env.Int("TRAINFLOW_TRAINING_VOLUME_GB", s.Training.VolumeSizeGB); err != nil {
		return err
	}
	if s.Hosting.InitialInstanceCount, err = env.Int("TRAINFLOW_HOSTING_INSTANCE_COUNT", s.Hosting.InitialInstanceCount); err != nil {
		return err
	}
	if s.Patch.Lenient, err = env.Bool("TRAINFLOW_LENIENT_PATCH", s.Patch.Lenient); err != nil {
		return err
	}
	if s.Publish.CreateIfMissing, err = env.Bool("TRAINFLOW_CREATE_IF_MISSING", s.Publish.CreateIfMissing); err != nil {
		return err
	}
	if s.Publish.PublishVersion, err = env.Bool("TRAINFLOW_PUBLISH_VERSION", s.Publish.PublishVersion); err != nil {
		return err
	}
	if s.Publish.Preflight, err = env.Bool("TRAINFLOW_PREFLIGHT", s.Publish.Preflight); err != nil {
		return err
	}
	if s.Publish.Timeout, err = env.Duration("TRAINFLOW_PUBLISH_TIMEOUT", s.Publish.Timeout); err != nil {
		return err
	}
	if s.Retry.Throttling.BackoffRate, err = env.Float("TRAINFLOW_THROTTLING_BACKOFF_RATE", s.Retry.Throttling.BackoffRate); err != nil {
		return err
	}
	if s.Archive.Enabled, err = env.Bool("TRAINFLOW_ARCHIVE_ENABLED", s.Archive.Enabled); err != nil {
		return err
	}
	if s.Ledger.Enabled, err = env.Bool("TRAINFLOW_LEDGER_ENABLED", s.Ledger.Enabled); err != nil {
		return err
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := strings.TrimSpace(env.String(key, "")); v != "" {
		*dst = v
	}
}
