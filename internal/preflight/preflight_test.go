package preflight

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	sfntypes "github.com/aws/aws-sdk-go-v2/service/sfn/types"
)

type fakeValidator struct {
	out *sfn.ValidateStateMachineDefinitionOutput
	err error
}

func (f fakeValidator) ValidateStateMachineDefinition(context.Context, *sfn.ValidateStateMachineDefinitionInput, ...func(*sfn.Options)) (*sfn.ValidateStateMachineDefinitionOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.out == nil {
		return &sfn.ValidateStateMachineDefinitionOutput{Result: sfntypes.ValidateStateMachineDefinitionResultCodeOk}, nil
	}
	return f.out, nil
}

type fakeTables map[string]ddbtypes.TableStatus

func (f fakeTables) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	status, ok := f[aws.ToString(in.TableName)]
	if !ok {
		return nil, &ddbtypes.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &ddbtypes.TableDescription{TableStatus: status}}, nil
}

type fakeFunctions map[string]lambdatypes.State

func (f fakeFunctions) GetFunction(_ context.Context, in *lambda.GetFunctionInput, _ ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error) {
	state, ok := f[aws.ToString(in.FunctionName)]
	if !ok {
		return nil, &lambdatypes.ResourceNotFoundException{Message: aws.String("function not found")}
	}
	return &lambda.GetFunctionOutput{Configuration: &lambdatypes.FunctionConfiguration{State: state}}, nil
}

func healthyChecker() *Checker {
	return &Checker{
		Definitions: fakeValidator{},
		Tables:      fakeTables{"model-catalog": ddbtypes.TableStatusActive},
		Functions: fakeFunctions{
			"endpoint-wait": lambdatypes.StateActive,
			"model-test":    lambdatypes.StateActive,
		},
	}
}

func targets() Targets {
	return Targets{
		Definition: `{"StartAt":"Train step"}`,
		Table:      "model-catalog",
		Functions:  []string{"endpoint-wait", "model-test"},
	}
}

func TestRun_AllHealthy(t *testing.T) {
	report, err := healthyChecker().Run(context.Background(), targets())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Findings) != 0 {
		t.Fatalf("unexpected findings: %+v", report.Findings)
	}
}

func TestRun_MissingResources(t *testing.T) {
	c := healthyChecker()
	tg := targets()
	tg.Table = "other-table"
	tg.Functions = append(tg.Functions, "missing-fn")

	report, err := c.Run(context.Background(), tg)
	var failed *FailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected *FailedError, got %v", err)
	}
	if len(failed.Findings) != 2 {
		t.Fatalf("errors = %+v", failed.Findings)
	}
	if failed.Findings[0].Check != CheckTable || failed.Findings[1].Target != "missing-fn" {
		t.Fatalf("unexpected findings: %+v", failed.Findings)
	}
	if len(report.Errors()) != 2 {
		t.Fatalf("report errors = %d", len(report.Errors()))
	}
}

func TestRun_NotReadyIsWarning(t *testing.T) {
	c := healthyChecker()
	c.Tables = fakeTables{"model-catalog": ddbtypes.TableStatusUpdating}
	c.Functions = fakeFunctions{"endpoint-wait": lambdatypes.StatePending, "model-test": lambdatypes.StateActive}

	report, err := c.Run(context.Background(), targets())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Findings) != 2 {
		t.Fatalf("findings = %+v", report.Findings)
	}
	for _, f := range report.Findings {
		if f.Severity != SeverityWarning {
			t.Fatalf("expected warning, got %+v", f)
		}
	}
}

func TestRun_DefinitionDiagnostics(t *testing.T) {
	c := healthyChecker()
	c.Definitions = fakeValidator{out: &sfn.ValidateStateMachineDefinitionOutput{
		Result: sfntypes.ValidateStateMachineDefinitionResultCodeFail,
		Diagnostics: []sfntypes.ValidateStateMachineDefinitionDiagnostic{
			{
				Severity: sfntypes.ValidateStateMachineDefinitionSeverityError,
				Code:     aws.String("SCHEMA_VALIDATION_FAILED"),
				Message:  aws.String("unknown field"),
				Location: aws.String("/States/Save model/Parameters"),
			},
			{
				Severity: sfntypes.ValidateStateMachineDefinitionSeverityWarning,
				Code:     aws.String("NO_RETRY"),
				Message:  aws.String("no retrier"),
			},
		},
	}}

	report, err := c.Run(context.Background(), targets())
	var failed *FailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected *FailedError, got %v", err)
	}
	if len(failed.Findings) != 1 || failed.Findings[0].Target != "/States/Save model/Parameters" {
		t.Fatalf("unexpected errors: %+v", failed.Findings)
	}
	if len(report.Findings) != 2 || report.Findings[1].Target != "definition" {
		t.Fatalf("unexpected findings: %+v", report.Findings)
	}
}

func TestRun_DefinitionRejectedWithoutDiagnostics(t *testing.T) {
	c := healthyChecker()
	c.Definitions = fakeValidator{out: &sfn.ValidateStateMachineDefinitionOutput{Result: sfntypes.ValidateStateMachineDefinitionResultCodeFail}}
	if _, err := c.Run(context.Background(), targets()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRun_ValidatorCallFails(t *testing.T) {
	c := healthyChecker()
	c.Definitions = fakeValidator{err: errors.New("access denied")}
	_, err := c.Run(context.Background(), targets())
	var failed *FailedError
	if !errors.As(err, &failed) || failed.Findings[0].Check != CheckDefinition {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_RequiresClients(t *testing.T) {
	if _, err := (&Checker{}).Run(context.Background(), targets()); err == nil {
		t.Fatalf("expected error")
	}
}
