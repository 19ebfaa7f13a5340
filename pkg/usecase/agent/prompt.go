package agent

import (
	"bytes"
	"context"
	_ "embed"
	"runtime"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/tool"
)

//go:embed prompt/system.md
var systemPromptRaw string

var systemPromptTmpl = template.Must(template.New("system").Parse(systemPromptRaw))

const (
	TaskInteractive = "ready for interactive user requests"
	TaskSingle      = "executing a single task given by the user"
)

// BuildSystemPrompt renders the first turn of a session. Tools implementing
// tool.Prompter, e.g. the memory tools when memory is enabled, append their
// instructions.
func BuildSystemPrompt(ctx context.Context, registry *tool.Registry, task string, now time.Time) (string, error) {
	shell := "sh/bash"
	if runtime.GOOS == "windows" {
		shell = "cmd.exe"
	}

	var buf bytes.Buffer
	if err := systemPromptTmpl.Execute(&buf, map[string]any{
		"OS":          hostInfo(),
		"Task":        task,
		"Now":         now.Format(time.DateTime),
		"Tools":       strings.Join(registry.Names(), ", "),
		"Shell":       shell,
		"ToolPrompts": registry.Prompts(ctx),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute system prompt template")
	}

	return buf.String(), nil
}
