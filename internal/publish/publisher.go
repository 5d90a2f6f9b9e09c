// Package publish pushes a rendered workflow definition to AWS Step Functions.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
)

const (
	opUpdate = "UpdateStateMachine"
	opCreate = "CreateStateMachine"

	ActionUpdated = "updated"
	ActionCreated = "created"
)

// StateMachineAPI is the subset of the Step Functions client used here.
type StateMachineAPI interface {
	UpdateStateMachine(ctx context.Context, params *sfn.UpdateStateMachineInput, optFns ...func(*sfn.Options)) (*sfn.UpdateStateMachineOutput, error)
	CreateStateMachine(ctx context.Context, params *sfn.CreateStateMachineInput, optFns ...func(*sfn.Options)) (*sfn.CreateStateMachineOutput, error)
}

type Request struct {
	StateMachineARN string
	// Name and RoleARN are needed only to create a missing state machine;
	// RoleARN is also sent on update when set.
	Name               string
	RoleARN            string
	Definition         string
	CreateIfMissing    bool
	PublishVersion     bool
	VersionDescription string
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.StateMachineARN) == "" {
		return errors.New("state machine arn is required")
	}
	if strings.TrimSpace(r.Definition) == "" {
		return errors.New("definition is required")
	}
	if r.CreateIfMissing && (strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.RoleARN) == "") {
		return errors.New("name and role arn are required to create a missing state machine")
	}
	return nil
}

type Result struct {
	Action          string
	StateMachineARN string
	RevisionID      string
	VersionARN      string
	At              time.Time
}

type Publisher struct {
	client  StateMachineAPI
	logger  *slog.Logger
	timeout time.Duration
}

func New(client StateMachineAPI, logger *slog.Logger, timeout time.Duration) (*Publisher, error) {
	if client == nil {
		return nil, errors.New("state machine client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		return nil, errors.New("timeout must be positive")
	}
	return &Publisher{client: client, logger: logger, timeout: timeout}, nil
}

// Publish replaces the definition of the target state machine. Every failure,
// a panicking client included, comes back as a *PublishError after a single
// diagnostic log line; nothing is retried here.
func (p *Publisher) Publish(ctx context.Context, req Request) (res Result, err error) {
	op := opUpdate
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = p.fail(req, &PublishError{Op: op, Kind: KindPanic, Message: fmt.Sprint(r)})
		}
	}()

	if verr := req.Validate(); verr != nil {
		return Result{}, p.fail(req, &PublishError{Op: op, Kind: KindUnknown, Message: verr.Error(), Cause: verr})
	}

	p.logger.Info("publishing workflow definition",
		"state_machine_arn", req.StateMachineARN,
		"definition", req.Definition,
	)

	res, err = p.update(ctx, req)
	if err == nil {
		return res, nil
	}

	var missing *types.StateMachineDoesNotExist
	if req.CreateIfMissing && errors.As(err, &missing) {
		p.logger.Info("state machine does not exist, creating", "name", req.Name)
		op = opCreate
		res, err = p.create(ctx, req)
		if err == nil {
			return res, nil
		}
	}
	return Result{}, p.fail(req, classify(op, err))
}

func (p *Publisher) update(ctx context.Context, req Request) (Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	in := &sfn.UpdateStateMachineInput{
		StateMachineArn: aws.String(req.StateMachineARN),
		Definition:      aws.String(req.Definition),
		Publish:         req.PublishVersion,
	}
	if role := strings.TrimSpace(req.RoleARN); role != "" {
		in.RoleArn = aws.String(role)
	}
	if req.PublishVersion && strings.TrimSpace(req.VersionDescription) != "" {
		in.VersionDescription = aws.String(req.VersionDescription)
	}

	out, err := p.client.UpdateStateMachine(callCtx, in)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Action:          ActionUpdated,
		StateMachineARN: req.StateMachineARN,
		RevisionID:      aws.ToString(out.RevisionId),
		VersionARN:      aws.ToString(out.StateMachineVersionArn),
		At:              aws.ToTime(out.UpdateDate),
	}
	p.logger.Info("workflow definition updated",
		"state_machine_arn", res.StateMachineARN,
		"update_date", res.At,
		"revision_id", res.RevisionID,
		"version_arn", res.VersionARN,
	)
	return res, nil
}

func (p *Publisher) create(ctx context.Context, req Request) (Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	in := &sfn.CreateStateMachineInput{
		Name:       aws.String(req.Name),
		Definition: aws.String(req.Definition),
		RoleArn:    aws.String(req.RoleARN),
		Type:       types.StateMachineTypeStandard,
		Publish:    req.PublishVersion,
	}
	if req.PublishVersion && strings.TrimSpace(req.VersionDescription) != "" {
		in.VersionDescription = aws.String(req.VersionDescription)
	}

	out, err := p.client.CreateStateMachine(callCtx, in)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Action:          ActionCreated,
		StateMachineARN: aws.ToString(out.StateMachineArn),
		VersionARN:      aws.ToString(out.StateMachineVersionArn),
		At:              aws.ToTime(out.CreationDate),
	}
	p.logger.Info("workflow state machine created",
		"state_machine_arn", res.StateMachineARN,
		"creation_date", res.At,
		"version_arn", res.VersionARN,
	)
	return res, nil
}

func (p *Publisher) fail(req Request, pe *PublishError) error {
	p.logger.Error("workflow definition publish failed",
		"state_machine_arn", req.StateMachineARN,
		"op", pe.Op,
		"kind", pe.Kind,
		"code", pe.Code,
		"error", pe.Message,
	)
	return pe
}
