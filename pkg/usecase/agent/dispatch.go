package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/model"
	"github.com/m-mizutani/toolagent/pkg/tool"
	"github.com/m-mizutani/toolagent/pkg/utils/logging"
	"github.com/m-mizutani/toolagent/pkg/utils/term"
)

// Dispatcher routes tool call requests to tools. Every request yields exactly
// one result; failures become error results fed back to the model.
type Dispatcher struct {
	registry *tool.Registry
	approver Approver
	console  *term.Console
}

func NewDispatcher(registry *tool.Registry, approver Approver, console *term.Console) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		approver: approver,
		console:  console,
	}
}

// Dispatch runs calls one by one in the given order
func (d *Dispatcher) Dispatch(ctx context.Context, calls []model.ToolCallRequest) []*model.ToolResult {
	results := make([]*model.ToolResult, 0, len(calls))
	for _, call := range calls {
		result := d.dispatch(ctx, call)
		d.console.ToolResult(result.CallID, result.Name, result.Content)
		results = append(results, result)
	}
	return results
}

func (d *Dispatcher) dispatch(ctx context.Context, call model.ToolCallRequest) *model.ToolResult {
	logger := logging.From(ctx).With("tool", call.Name, "call_id", call.ID)

	raw := call.Arguments
	if raw == "" {
		raw = "{}"
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		d.console.ToolRequest(call.Name, nil, call.Arguments)
		d.console.Error("Cannot execute tool '%s' due to invalid arguments.", call.Name)
		logger.Warn("tool arguments are not a JSON object", "arguments", call.Arguments, "error", err)
		return errorResult(call, model.DispatchInvalidArguments, model.ExitCodeInvalidArguments,
			"Invalid arguments provided to tool.")
	}
	d.console.ToolRequest(call.Name, args, call.Arguments)

	t, ok := d.registry.Lookup(call.Name)
	if !ok {
		d.console.Error("Unsupported function called: %s", call.Name)
		return errorResult(call, model.DispatchUnsupportedTool, model.ExitCodeUnsupportedTool,
			fmt.Sprintf("Unsupported function: %s", call.Name))
	}

	if err := d.registry.Validate(call.Name, args); err != nil {
		d.console.Error("Cannot execute tool '%s' due to invalid arguments.", call.Name)
		logger.Warn("tool arguments do not match schema", "error", err)
		return errorResult(call, model.DispatchInvalidArguments, model.ExitCodeInvalidArguments,
			fmt.Sprintf("Invalid arguments provided to tool: %v", err))
	}

	spec := t.Spec()
	if spec.Dangerous() {
		if !d.approver.RequestApproval(ctx, spec.Danger.Action, tool.ApprovalDetail(spec, args)) {
			d.console.Dim("Action skipped by user.")
			logger.Info("tool call denied by operator")
			return errorResult(call, model.DispatchDenied, model.ExitCodeDenied, "Action denied by user.")
		}
	}

	d.console.Dim("Running tool: %s...", call.Name)
	output, err := execute(ctx, t, json.RawMessage(raw))
	if err != nil {
		d.console.Error("Error executing tool '%s': %v", call.Name, err)
		logger.Warn("tool execution failed", "error", err)
		return errorResult(call, model.DispatchToolFailed, model.ExitCodeToolFailed,
			fmt.Sprintf("Tool execution failed: %v", err))
	}
	d.console.Dim("Tool %s finished.", call.Name)

	content, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to serialize tool result", "error", err)
		return &model.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: mustMarshal(map[string]any{"error": "Failed to serialize tool result.", "original_content": fmt.Sprintf("%+v", output)}),
		}
	}

	if !bytes.HasPrefix(bytes.TrimSpace(content), []byte("{")) {
		d.console.Error("Tool '%s' returned unexpected type. Content: %s", call.Name, content)
		msg := "Tool returned invalid data type."
		return &model.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: mustMarshal(map[string]any{"error": msg, "tool_output": string(content), "exit_code": model.ExitCodeToolFailed}),
			Err: &model.DispatchError{
				Kind:     model.DispatchInvalidToolOutput,
				ExitCode: model.ExitCodeToolFailed,
				Message:  msg,
			},
		}
	}

	return &model.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: string(content),
	}
}

// execute runs the tool, converting a panic into an error
func execute(ctx context.Context, t tool.Tool, args json.RawMessage) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = goerr.New(fmt.Sprintf("panic: %v", r), goerr.V("tool", t.Spec().Name))
		}
	}()
	return t.Execute(ctx, args)
}

func errorResult(call model.ToolCallRequest, kind model.DispatchErrorKind, code int, msg string) *model.ToolResult {
	return &model.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: mustMarshal(map[string]any{"error": msg, "exit_code": code}),
		Err: &model.DispatchError{
			Kind:     kind,
			ExitCode: code,
			Message:  msg,
		},
	}
}

// mustMarshal encodes maps of plain values, which can not fail
func mustMarshal(v map[string]any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(raw)
}
