package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/animus-labs/trainflow/internal/domain"
)

const (
	stateTypeTask = "Task"
	indent        = "    "
)

// Definition renders wf as an indented ASL document.
func Definition(wf domain.Workflow) ([]byte, error) {
	if len(wf.Steps) == 0 {
		return nil, fmt.Errorf("workflow has no steps")
	}

	states := make(orderedObject, 0, len(wf.Steps))
	for i, step := range wf.Steps {
		state, err := taskState(step, wf.Next(i))
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", step.Name, err)
		}
		states = append(states, member{key: step.Name, value: state})
	}

	doc := make(orderedObject, 0, 3)
	if wf.Comment != "" {
		doc = append(doc, member{key: "Comment", value: wf.Comment})
	}
	doc = append(doc,
		member{key: "StartAt", value: wf.Steps[0].Name},
		member{key: "States", value: states},
	)

	compact, err := encode(doc)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", indent); err != nil {
		return nil, fmt.Errorf("indent definition: %w", err)
	}
	return out.Bytes(), nil
}

func taskState(step domain.Step, next string) (orderedObject, error) {
	params, err := parameters(step.Parameters)
	if err != nil {
		return nil, err
	}
	state := orderedObject{
		{key: "Resource", value: step.Resource()},
		{key: "Parameters", value: params},
		{key: "Type", value: stateTypeTask},
	}
	if next != "" {
		state = append(state, member{key: "Next", value: next})
	} else {
		state = append(state, member{key: "End", value: true})
	}
	state = append(state, member{key: "ResultPath", value: step.ResultPath})
	if step.Retry != nil {
		state = append(state, member{key: "Retry", value: []any{retrier(*step.Retry)}})
	}
	return state, nil
}

func retrier(p domain.RetryPolicy) orderedObject {
	return orderedObject{
		{key: "ErrorEquals", value: append([]string{}, p.ErrorEquals...)},
		{key: "IntervalSeconds", value: p.IntervalSeconds},
		{key: "MaxAttempts", value: p.MaxAttempts},
		{key: "BackoffRate", value: p.BackoffRate},
	}
}

// SHA256 returns the hex digest used to identify a rendered definition.
func SHA256(definition []byte) string {
	sum := sha256.Sum256(definition)
	return hex.EncodeToString(sum[:])
}
