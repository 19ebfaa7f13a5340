package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/tool"
	"github.com/m-mizutani/toolagent/pkg/utils/logging"
)

const defaultTimeout = 60

// Exit codes reported when the command did not produce its own status
const (
	ExitCodeTimeout  = -1
	ExitCodeNotFound = -2
	ExitCodeFailed   = -3
)

type executeInput struct {
	Command          string  `json:"command"`
	WorkingDirectory *string `json:"working_directory"`
	TimeoutSeconds   int     `json:"timeout_seconds"`
}

type executeOutput struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode *int   `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

// Execute runs a command through the platform shell
type Execute struct {
	goos string
}

// New creates a new execute_shell_command tool
func New() *Execute {
	return &Execute{goos: runtime.GOOS}
}

func (x *Execute) Spec() *tool.Spec {
	syntax := "sh/bash"
	if x.goos == "windows" {
		syntax = "cmd.exe"
	}

	return &tool.Spec{
		Name:        "execute_shell_command",
		Description: fmt.Sprintf("Execute a shell command and return its stdout, stderr, and exit code. Use OS-specific commands (%s syntax on this host). Requires user approval.", syntax),
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"command": {
					Type:        "string",
					Description: "The shell command string to execute.",
				},
				"working_directory": {
					Types:       []string{"string", "null"},
					Description: "Optional directory path to execute the command in.",
				},
				"timeout_seconds": {
					Type:        "integer",
					Description: fmt.Sprintf("Optional timeout in seconds (default: %d).", defaultTimeout),
				},
			},
			Required: []string{"command"},
		},
		Danger: &tool.Danger{
			Action:    "Execute Shell Command",
			DetailArg: "command",
		},
	}
}

func (x *Execute) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	input := executeInput{TimeoutSeconds: defaultTimeout}
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.TimeoutSeconds <= 0 {
		input.TimeoutSeconds = defaultTimeout
	}

	cwd := ""
	if input.WorkingDirectory != nil {
		cwd = *input.WorkingDirectory
	}
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get working directory")
		}
		cwd = wd
	}

	logging.From(ctx).Debug("execute shell command", "command", input.Command, "cwd", cwd)

	if st, err := os.Stat(cwd); err != nil || !st.IsDir() {
		return &executeOutput{
			ExitCode: intPtr(ExitCodeNotFound),
			Error:    fmt.Sprintf("Working directory not found: %s", cwd),
		}, nil
	}

	timeout := time.Duration(input.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := x.command(ctx, input.Command)
	cmd.Dir = cwd
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	output := &executeOutput{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		output.ExitCode = intPtr(ExitCodeTimeout)
		output.Error = fmt.Sprintf("Timeout (%ds)", input.TimeoutSeconds)
	case err == nil:
		output.ExitCode = intPtr(cmd.ProcessState.ExitCode())
	case errors.As(err, &exitErr):
		output.ExitCode = intPtr(exitErr.ExitCode())
	case errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist):
		output.ExitCode = intPtr(ExitCodeNotFound)
		output.Error = fmt.Sprintf("Command or executable not found: '%s'", firstWord(input.Command))
	default:
		output.ExitCode = intPtr(ExitCodeFailed)
		output.Error = fmt.Sprintf("Execution failed: %v", err)
		if output.Stderr == "" {
			output.Stderr = err.Error()
		}
	}

	return output, nil
}

func (x *Execute) command(ctx context.Context, command string) *exec.Cmd {
	if x.goos == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

func firstWord(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "<empty command>"
	}
	return fields[0]
}

func intPtr(v int) *int {
	return &v
}
