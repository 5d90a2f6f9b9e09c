package awsconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
)

// Load resolves credentials and region from the default chain. A non-empty
// region overrides AWS_REGION and shared config.
func Load(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if r := strings.TrimSpace(region); r != "" {
		opts = append(opts, config.WithRegion(r))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region == "" {
		return aws.Config{}, fmt.Errorf("aws region is not configured")
	}
	return cfg, nil
}

// Clients bundles the service clients the provisioner talks to.
type Clients struct {
	StepFunctions *sfn.Client
	DynamoDB      *dynamodb.Client
	Lambda        *lambda.Client
}

func NewClients(cfg aws.Config) Clients {
	return Clients{
		StepFunctions: sfn.NewFromConfig(cfg),
		DynamoDB:      dynamodb.NewFromConfig(cfg),
		Lambda:        lambda.NewFromConfig(cfg),
	}
}
