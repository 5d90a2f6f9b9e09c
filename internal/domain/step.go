package domain

import "strings"

type StepKind string

const (
	StepTrain                StepKind = "train"
	StepSaveModel            StepKind = "save_model"
	StepPutRecord            StepKind = "put_record"
	StepCreateEndpointConfig StepKind = "create_endpoint_config"
	StepCreateEndpoint       StepKind = "create_endpoint"
	StepInvokeFunction       StepKind = "invoke_function"
)

// Service integration resources for each step kind.
const (
	ResourceCreateTrainingJobSync = "arn:aws:states:::sagemaker:createTrainingJob.sync"
	ResourceCreateModel           = "arn:aws:states:::sagemaker:createModel"
	ResourcePutItem               = "arn:aws:states:::dynamodb:putItem"
	ResourceCreateEndpointConfig  = "arn:aws:states:::sagemaker:createEndpointConfig"
	ResourceCreateEndpoint        = "arn:aws:states:::sagemaker:createEndpoint"
	ResourceLambdaInvoke          = "arn:aws:states:::lambda:invoke"
)

// Resource returns the service integration a step kind calls.
func (k StepKind) Resource() string {
	switch k {
	case StepTrain:
		return ResourceCreateTrainingJobSync
	case StepSaveModel:
		return ResourceCreateModel
	case StepPutRecord:
		return ResourcePutItem
	case StepCreateEndpointConfig:
		return ResourceCreateEndpointConfig
	case StepCreateEndpoint:
		return ResourceCreateEndpoint
	case StepInvokeFunction:
		return ResourceLambdaInvoke
	default:
		return ""
	}
}

// Step is one task state of the workflow graph.
type Step struct {
	Kind       StepKind
	Name       string
	Parameters Object
	ResultPath string
	Retry      *RetryPolicy
}

func (s Step) Resource() string {
	return s.Kind.Resource()
}

// WithRetry returns s with a private copy of policy attached.
func (s Step) WithRetry(policy RetryPolicy) Step {
	p := policy.Clone()
	s.Retry = &p
	return s
}

// ResultKey is the top-level state member a step writes to, "train_step_result"
// for a result path of "$.train_step_result".
func (s Step) ResultKey() string {
	return strings.TrimPrefix(s.ResultPath, "$.")
}
