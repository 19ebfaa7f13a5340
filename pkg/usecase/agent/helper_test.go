package agent_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/toolagent/pkg/model"
	"github.com/m-mizutani/toolagent/pkg/tool"
	"github.com/m-mizutani/toolagent/pkg/usecase/agent"
	"github.com/m-mizutani/toolagent/pkg/utils/term"
)

// spyTool records calls and returns a configured output
type spyTool struct {
	name     string
	danger   *tool.Danger
	output   any
	err      error
	panicMsg string

	calls []json.RawMessage
}

func (x *spyTool) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        x.name,
		Description: "spy tool",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"value": {Type: "string"},
			},
			Required: []string{"value"},
		},
		Danger: x.danger,
	}
}

func (x *spyTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	x.calls = append(x.calls, args)
	if x.panicMsg != "" {
		panic(x.panicMsg)
	}
	return x.output, x.err
}

// scriptedLLM replies with prepared turns in order and records requests
type scriptedLLM struct {
	replies  []*model.Turn
	errs     []error
	requests []*model.CompletionRequest
}

func (x *scriptedLLM) Complete(ctx context.Context, req *model.CompletionRequest) (*model.Turn, error) {
	i := len(x.requests)
	x.requests = append(x.requests, req)
	if i < len(x.errs) && x.errs[i] != nil {
		return nil, x.errs[i]
	}
	if i >= len(x.replies) {
		return &model.Turn{Role: model.RoleAssistant, Content: "done"}, nil
	}
	return x.replies[i], nil
}

// fixedApprover answers every request with the same decision
type fixedApprover struct {
	allow    bool
	requests []string
}

func (x *fixedApprover) RequestApproval(ctx context.Context, action, detail string) bool {
	x.requests = append(x.requests, action+": "+detail)
	return x.allow
}

func newConsole() (*term.Console, *bytes.Buffer) {
	var buf bytes.Buffer
	return term.NewConsole(&buf, &buf), &buf
}

func newGate(t *testing.T, input string) (*agent.Gate, *bytes.Buffer) {
	t.Helper()
	console, buf := newConsole()
	return agent.NewGate(term.NewScanReader(strings.NewReader(input), buf), console), buf
}

func decodeContent(t *testing.T, content string) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		t.Fatalf("content is not a JSON object: %s", content)
	}
	return v
}
