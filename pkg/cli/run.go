package cli

import (
	"context"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/tool"
	"github.com/m-mizutani/toolagent/pkg/tool/ask"
	"github.com/m-mizutani/toolagent/pkg/tool/file"
	memtool "github.com/m-mizutani/toolagent/pkg/tool/memory"
	"github.com/m-mizutani/toolagent/pkg/tool/shell"
	"github.com/m-mizutani/toolagent/pkg/usecase/agent"
	"github.com/m-mizutani/toolagent/pkg/usecase/memory"
	"github.com/m-mizutani/toolagent/pkg/utils/logging"
	"github.com/m-mizutani/toolagent/pkg/utils/term"
	"github.com/urfave/cli/v3"
)

func run(ctx context.Context, c *cli.Command, cfg *config, tools *configurableTools, env *runtimeEnv) error {
	if err := cfg.load(c, tools); err != nil {
		return err
	}

	logger := logging.New(cfg.logLevel, env.errOut)
	logging.SetDefault(logger)
	ctx = logging.With(ctx, logger)

	llm := env.llm
	if llm == nil {
		var err error
		if llm, err = cfg.newLLM(ctx); err != nil {
			return err
		}
	}

	store, err := cfg.newMemoryStore(ctx)
	if err != nil {
		return err
	}

	console := term.NewConsole(env.out, env.errOut)
	reader, closeReader, err := newLineReader(env)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeReader(); err != nil {
			logger.Warn("failed to close line reader", "error", err)
		}
	}()

	defer func() {
		if !store.Enabled() {
			return
		}
		if err := store.Close(ctx); err != nil {
			console.Error("Failed to save memory to %s: %v", store.Location(), err)
			return
		}
		console.Printf("Memory saved to %s\n", store.Location())
	}()

	registry := newRegistry(tools, reader, console, store)
	dispatcher := agent.NewDispatcher(registry, agent.NewGate(reader, console), console)

	prompt := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	task := agent.TaskInteractive
	if prompt != "" {
		task = agent.TaskSingle
	}

	systemPrompt, err := agent.BuildSystemPrompt(ctx, registry, task, time.Now())
	if err != nil {
		return err
	}

	session := agent.New(llm, dispatcher,
		agent.WithSystemPrompt(systemPrompt),
		agent.WithModel(cfg.model),
		agent.WithTemperature(float32(cfg.temperature)),
		agent.WithTopP(float32(cfg.topP)),
		agent.WithConsole(console),
	)

	mode := "interactive session"
	if prompt != "" {
		mode = "single prompt"
	}
	console.Printf("Starting %s (Model: %s, Temp: %g, Top-P: %g, OS: %s/%s)\n",
		mode, cfg.model, cfg.temperature, cfg.topP, runtime.GOOS, runtime.GOARCH)
	if store.Enabled() {
		console.Printf("Using memory file: %s\n", store.Location())
	}
	if prompt == "" {
		console.Println("Type 'quit' or 'exit' to end.")
	}
	console.Warn("Review ALL actions requiring approval VERY carefully, especially code/shell execution.")
	if runtime.GOOS == "windows" {
		console.Warn("Ensure requested shell commands use cmd.exe syntax (e.g., 'dir', 'copy').")
	}

	if prompt != "" {
		if err := session.Send(ctx, prompt); err != nil {
			return goerr.Wrap(err, "task failed")
		}
		console.Println("\nTask finished.")
		return nil
	}

	return interactive(ctx, session, reader, console)
}

func interactive(ctx context.Context, session *agent.Session, reader term.LineReader, console *term.Console) error {
	for {
		console.Printf("\n%s\n", console.UserPrompt("User:"))
		line, err := reader.ReadLine("> ")
		if err != nil {
			// EOF or Ctrl-C
			console.Println("\nExiting...")
			return nil
		}

		input := strings.TrimSpace(line)
		switch strings.ToLower(input) {
		case "quit", "exit":
			return nil
		case "":
			continue
		}

		if err := session.Send(ctx, input); err != nil {
			if ctx.Err() != nil {
				console.Println("\nExiting...")
				return nil
			}
			console.Error("%v", err)
			console.Error("API call failed. Cannot continue this turn.")
		}
	}
}

// newRegistry builds the fixed tool table
func newRegistry(tools *configurableTools, reader term.LineReader, console *term.Console, store *memory.Store) *tool.Registry {
	all := []tool.Tool{shell.New()}
	all = append(all, file.Tools()...)
	all = append(all,
		tools.fetch,
		ask.New(reader, console.Out()),
		tools.python,
	)
	all = append(all, memtool.Tools(store)...)
	return tool.New(all...)
}

// newLineReader uses readline on a terminal and plain line scanning otherwise
func newLineReader(env *runtimeEnv) (term.LineReader, func() error, error) {
	if f, ok := env.in.(*os.File); ok {
		return term.NewLineReader(f, env.out)
	}
	return term.NewScanReader(env.in, env.out), func() error { return nil }, nil
}
