package cli

import (
	"context"
	"io"
	"os"

	"github.com/m-mizutani/toolagent/pkg/adapter"
	"github.com/m-mizutani/toolagent/pkg/tool/python"
	"github.com/m-mizutani/toolagent/pkg/tool/web"
	"github.com/m-mizutani/toolagent/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

// Option customizes Run, mainly for tests
type Option func(*runtimeEnv)

type runtimeEnv struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	llm    adapter.LLM
}

// WithIO replaces stdin, stdout and stderr
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(env *runtimeEnv) {
		env.in = in
		env.out = out
		env.errOut = errOut
	}
}

// WithLLM uses llm instead of building a client from flags
func WithLLM(llm adapter.LLM) Option {
	return func(env *runtimeEnv) {
		env.llm = llm
	}
}

func Run(ctx context.Context, argv []string, opts ...Option) *Error {
	env := &runtimeEnv{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(env)
	}

	var cfg config
	tools := &configurableTools{
		python: python.New(),
		fetch:  web.New(),
	}

	flags := configFlags(&cfg)
	flags = append(flags, tools.Flags()...)

	cmd := &cli.Command{
		Name:      "toolagent",
		Usage:     "CLI agent interacting with OpenAI-compatible APIs using tools",
		ArgsUsage: "[prompt]",
		Description: "Runs the given prompt as a single task. " +
			"If the prompt is omitted, enters interactive mode.",
		Flags:     flags,
		Reader:    env.in,
		Writer:    env.out,
		ErrWriter: env.errOut,
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, c, &cfg, tools, env)
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.New("info", env.errOut).Error("failed to run toolagent", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
