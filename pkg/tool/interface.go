package tool

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/urfave/cli/v3"
)

// Tool represents an action that can be called by the LLM. Every tool decodes
// the raw arguments into its own input struct and returns its own output
// struct, which must encode to a JSON object.
type Tool interface {
	// Spec returns the static tool specification
	Spec() *Spec

	// Execute runs the tool. Expected failures (missing file, timeout, ...) are
	// reported inside the returned output; a returned error means the tool
	// itself could not run.
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}

// Prompter is implemented by tools that add information to the system prompt
type Prompter interface {
	// Prompt returns additional information for the system prompt, or empty string
	Prompt(ctx context.Context) string
}

// Flagger is implemented by tools having their own CLI flags
type Flagger interface {
	Flags() []cli.Flag
}

// Spec describes a tool
type Spec struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema

	// Danger is set when the tool requires operator approval before execution
	Danger *Danger
}

// Danger describes how an approval request is presented to the operator
type Danger struct {
	// Action is the human readable label, e.g. "Execute Shell Command"
	Action string

	// DetailArg is the argument shown as detail, e.g. "command"
	DetailArg string
}

// Dangerous reports whether the tool requires approval
func (x *Spec) Dangerous() bool {
	return x.Danger != nil
}
