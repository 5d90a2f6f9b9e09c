package builder

import (
	"strings"

	"github.com/animus-labs/trainflow/internal/domain"
	"github.com/animus-labs/trainflow/internal/settings"
)

const (
	trainingChannel      = "training"
	trainingInputMode    = "File"
	s3DataType           = "S3Prefix"
	s3DataDistribution   = "FullyReplicated"
	accuracyPlaceholder  = "0"
	ddbString            = "S"
	ddbNumber            = "N"
	formatSingleArgument = "{}"
)

// ExpectedModelData is where a training job reports its model artifact,
// relative to the training job's own output document.
func ExpectedModelData() domain.PathExpr {
	return domain.StatePath("$['ModelArtifacts']['S3ModelArtifacts']")
}

// TrainResultPath returns a path under the training step's result.
func TrainResultPath(member string) domain.PathExpr {
	return domain.StatePath(ResultTrain).Child(member)
}

func trainStep(s settings.Settings, in *binder) domain.Step {
	t := s.Training
	resourceConfig := domain.Object{
		domain.Param("InstanceCount", t.InstanceCount),
		domain.Param("InstanceType", t.InstanceType),
		domain.Param("VolumeSizeInGB", t.VolumeSizeGB),
	}
	if kms := strings.TrimSpace(t.KMSKeyID); kms != "" {
		resourceConfig = resourceConfig.With("VolumeKmsKeyId", kms)
	}

	return domain.Step{
		Kind: domain.StepTrain,
		Name: NameTrain,
		Parameters: domain.Object{
			domain.Param("AlgorithmSpecification", domain.Object{
				domain.Param("TrainingImage", t.ImagePlaceholder),
				domain.Param("TrainingInputMode", trainingInputMode),
			}),
			domain.Param("OutputDataConfig", domain.Object{
				domain.Param("S3OutputPath", t.OutputPath),
			}),
			domain.Param("StoppingCondition", domain.Object{
				domain.Param("MaxRuntimeInSeconds", t.MaxRuntimeSeconds),
			}),
			domain.Param("ResourceConfig", resourceConfig),
			domain.Param("RoleArn", s.SageMakerRoleARN),
			domain.Param("InputDataConfig", []any{
				domain.Object{
					domain.Param("DataSource", domain.Object{
						domain.Param("S3DataSource", domain.Object{
							domain.Param("S3DataType", s3DataType),
							domain.Param("S3Uri", in.v(domain.InputDataPath)),
							domain.Param("S3DataDistributionType", s3DataDistribution),
						}),
					}),
					domain.Param("ContentType", t.ContentType),
					domain.Param("ChannelName", trainingChannel),
				},
			}),
			domain.Param("TrainingJobName", in.v(domain.InputJob)),
		},
		ResultPath: ResultTrain,
	}
}

// saveModelStep registers the trained artifact as a hosting model. modelData
// must be a path so the artifact location is read when the step runs.
func saveModelStep(s settings.Settings, in *binder, modelData domain.PathExpr) domain.Step {
	return domain.Step{
		Kind: domain.StepSaveModel,
		Name: NameSaveModel,
		Parameters: domain.Object{
			domain.Param("ExecutionRoleArn", s.SageMakerRoleARN),
			domain.Param("ModelName", in.v(domain.InputModel)),
			domain.Param("PrimaryContainer", domain.Object{
				domain.Param("Environment", domain.Object{}),
				domain.Param("Image", s.Training.ImagePlaceholder),
				domain.Param("ModelDataUrl", modelData),
			}),
		},
		ResultPath: ResultSaveModel,
	}
}

// artifactRecord is the catalog item written for a training run. Literal
// fields come from the binding; timing and artifact location are read from
// the training result when the step runs.
func artifactRecord(in *binder) domain.Object {
	str := func(v any) domain.Object {
		return domain.Object{domain.Param(ddbString, v)}
	}
	formatted := func(member string) domain.Object {
		return str(domain.Format(formatSingleArgument, TrainResultPath(member)))
	}
	return domain.Object{
		domain.Param("RunId", str(in.v(domain.InputModel))),
		domain.Param("authorDate", str(in.v(domain.InputAuthorDate))),
		domain.Param("commitId", str(in.v(domain.InputCommitID))),
		domain.Param("JobId", str(in.v(domain.InputJob))),
		domain.Param("trainingDataObjectPath", str(in.v(domain.InputDataPath))),
		domain.Param("modelArtifactObjectPath", formatted("ModelArtifacts.S3ModelArtifacts")),
		domain.Param("ecrImageTag", str(in.v(domain.InputBuildID))),
		domain.Param("trainingStartTime", formatted("TrainingStartTime")),
		domain.Param("trainingEndTime", formatted("TrainingEndTime")),
		domain.Param("endpointName", str(in.v(domain.InputEndpoint))),
		domain.Param("triggerSource", str(in.v(domain.InputTriggerSource))),
		domain.Param("Accuracy", domain.Object{domain.Param(ddbNumber, accuracyPlaceholder)}),
	}
}

func registerArtifactStep(s settings.Settings, in *binder) domain.Step {
	return domain.Step{
		Kind: domain.StepPutRecord,
		Name: NameRegister,
		Parameters: domain.Object{
			domain.Param("Item", artifactRecord(in)),
			domain.Param("TableName", s.CatalogTable),
		},
		ResultPath: ResultRegister,
	}
}

func endpointConfigStep(s settings.Settings, in *binder) domain.Step {
	h := s.Hosting
	return domain.Step{
		Kind: domain.StepCreateEndpointConfig,
		Name: NameEndpointConfig,
		Parameters: domain.Object{
			domain.Param("EndpointConfigName", in.v(domain.InputModel)),
			domain.Param("ProductionVariants", []any{
				domain.Object{
					domain.Param("InitialInstanceCount", h.InitialInstanceCount),
					domain.Param("InstanceType", h.InstanceType),
					domain.Param("ModelName", in.v(domain.InputModel)),
					domain.Param("VariantName", h.VariantName),
				},
			}),
		},
		ResultPath: ResultEndpointConfig,
	}
}

func endpointStep(in *binder) domain.Step {
	return domain.Step{
		Kind: domain.StepCreateEndpoint,
		Name: NameEndpoint,
		Parameters: domain.Object{
			domain.Param("EndpointConfigName", in.v(domain.InputModel)),
			domain.Param("EndpointName", in.v(domain.InputEndpoint)),
		},
		ResultPath: ResultEndpoint,
	}
}

// invokeFunctionStep calls function with the whole current state as payload.
func invokeFunctionStep(name, function, resultPath string) domain.Step {
	return domain.Step{
		Kind: domain.StepInvokeFunction,
		Name: name,
		Parameters: domain.Object{
			domain.Param("FunctionName", function),
			domain.Param("Payload", domain.Object{
				domain.Param("Input", domain.WholeState),
			}),
		},
		ResultPath: resultPath,
	}
}

// ArtifactRecord builds the catalog item for binding on its own.
func ArtifactRecord(binding domain.InputBinding) (domain.Object, error) {
	in := &binder{in: binding}
	item := artifactRecord(in)
	if in.err != nil {
		return nil, in.err
	}
	return item, nil
}
