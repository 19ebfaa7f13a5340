package python

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/tool"
	"github.com/urfave/cli/v3"
)

const defaultTimeout = 30

type executeInput struct {
	Code           string `json:"code"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type executeOutput struct {
	Stdout *string `json:"stdout"`
	Stderr *string `json:"stderr"`
	Error  string  `json:"error,omitempty"`
}

// Execute runs a Python snippet in a separate interpreter process
type Execute struct {
	interpreter string
}

// New creates a new execute_python_code tool
func New() *Execute {
	return &Execute{interpreter: "python3"}
}

// Flags returns CLI flags for this tool
func (x *Execute) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "python",
			Usage:       "Python interpreter used by execute_python_code",
			Value:       "python3",
			Sources:     cli.EnvVars("TOOLAGENT_PYTHON"),
			Destination: &x.interpreter,
		},
	}
}

// Interpreter returns the configured interpreter
func (x *Execute) Interpreter() string {
	return x.interpreter
}

// SetInterpreter replaces the interpreter, e.g. from a config file
func (x *Execute) SetInterpreter(interpreter string) {
	if interpreter != "" {
		x.interpreter = interpreter
	}
}

func (x *Execute) Spec() *tool.Spec {
	return &tool.Spec{
		Name: "execute_python_code",
		Description: "Executes a given snippet of Python code in a separate process and returns its stdout and stderr. " +
			"WARNING: This is highly dangerous and executes with the agent's permissions. Requires careful user approval.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"code": {
					Type:        "string",
					Description: "The Python code snippet to execute.",
				},
				"timeout_seconds": {
					Type:        "integer",
					Description: fmt.Sprintf("Optional timeout in seconds for the execution (default: %d).", defaultTimeout),
				},
			},
			Required: []string{"code"},
		},
		Danger: &tool.Danger{
			Action:    "Execute Python Code",
			DetailArg: "code",
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

	if input.Code == "" {
		return &executeOutput{Error: "No code provided to execute."}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(input.TimeoutSeconds)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, x.interpreter, "-c", input.Code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	outStr := strings.TrimSpace(stdout.String())
	errStr := strings.TrimSpace(stderr.String())
	output := &executeOutput{}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		output.Error = fmt.Sprintf("Python code execution timed out after %d seconds.", input.TimeoutSeconds)
	case err == nil:
		output.Stdout, output.Stderr = &outStr, &errStr
	case errors.As(err, &exitErr):
		if errStr == "" {
			errStr = fmt.Sprintf("Python process exited with non-zero code: %d", exitErr.ExitCode())
		}
		output.Stdout, output.Stderr = &outStr, &errStr
	case errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist):
		output.Error = fmt.Sprintf("Python executable not found: %s", x.interpreter)
	default:
		output.Error = fmt.Sprintf("Failed to execute Python code: %v", err)
		if errStr == "" {
			errStr = err.Error()
		}
		output.Stderr = &errStr
	}

	return output, nil
}
