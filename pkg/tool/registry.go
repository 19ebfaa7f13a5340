package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/model"
	"github.com/urfave/cli/v3"
)

var ErrInvalidArguments = goerr.New("invalid tool arguments")

type entry struct {
	tool     Tool
	spec     *Spec
	resolved *jsonschema.Resolved
}

// Registry is the fixed table of tools available to the LLM. It is built once
// by New and never modified.
type Registry struct {
	tools   map[string]*entry
	ordered []*entry
}

// New creates a new tool registry with the given tools. It panics on a
// duplicated name or an invalid parameter schema because the table is static.
func New(tools ...Tool) *Registry {
	r := &Registry{
		tools: make(map[string]*entry, len(tools)),
	}

	for _, t := range tools {
		spec := t.Spec()
		if spec == nil || spec.Name == "" {
			panic("tool spec must have a name")
		}
		if _, ok := r.tools[spec.Name]; ok {
			panic(fmt.Sprintf("duplicated tool name: %s", spec.Name))
		}

		e := &entry{tool: t, spec: spec}
		if spec.Parameters != nil {
			resolved, err := spec.Parameters.Resolve(nil)
			if err != nil {
				panic(fmt.Sprintf("invalid parameter schema of %s: %v", spec.Name, err))
			}
			e.resolved = resolved
		}

		r.tools[spec.Name] = e
		r.ordered = append(r.ordered, e)
	}

	return r
}

// Lookup returns the tool registered with name
func (r *Registry) Lookup(name string) (Tool, bool) {
	e, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return e.tool, true
}

// Names returns all tool names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.ordered))
	for i, e := range r.ordered {
		names[i] = e.spec.Name
	}
	return names
}

// Schemas returns declarations of all tools for the completion service
func (r *Registry) Schemas() []*model.ToolSchema {
	schemas := make([]*model.ToolSchema, len(r.ordered))
	for i, e := range r.ordered {
		schemas[i] = &model.ToolSchema{
			Name:        e.spec.Name,
			Description: e.spec.Description,
			Parameters:  e.spec.Parameters,
		}
	}
	return schemas
}

// Prompts returns all tool prompts concatenated
func (r *Registry) Prompts(ctx context.Context) string {
	var prompts []string
	for _, e := range r.ordered {
		if p, ok := e.tool.(Prompter); ok {
			if prompt := p.Prompt(ctx); prompt != "" {
				prompts = append(prompts, prompt)
			}
		}
	}
	return strings.Join(prompts, "\n\n")
}

// Flags returns all tool flags combined
func (r *Registry) Flags() []cli.Flag {
	var flags []cli.Flag
	for _, e := range r.ordered {
		if f, ok := e.tool.(Flagger); ok {
			flags = append(flags, f.Flags()...)
		}
	}
	return flags
}

// Validate checks parsed arguments against the parameter schema of the tool
func (r *Registry) Validate(name string, args map[string]any) error {
	e, ok := r.tools[name]
	if !ok {
		return goerr.New("tool not found", goerr.V("name", name))
	}
	if e.resolved == nil {
		return nil
	}

	if err := e.resolved.Validate(args); err != nil {
		return goerr.Wrap(ErrInvalidArguments, err.Error(), goerr.V("name", name))
	}
	return nil
}

// ApprovalDetail returns the text shown to the operator when approving a
// dangerous call: the value of the detail argument, or the whole argument
// payload when the tool has no detail argument or it is missing.
func ApprovalDetail(spec *Spec, args map[string]any) string {
	if spec.Danger != nil && spec.Danger.DetailArg != "" {
		switch v := args[spec.Danger.DetailArg].(type) {
		case nil:
		case string:
			return v
		default:
			if raw, err := json.Marshal(v); err == nil {
				return string(raw)
			}
		}
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(raw)
}
