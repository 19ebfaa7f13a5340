package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/tool"
)

type mkdirInput struct {
	Path string `json:"path"`
}

// Mkdir creates a directory with its parents
type Mkdir struct{}

// NewMkdir creates a new create_directory tool
func NewMkdir() *Mkdir {
	return &Mkdir{}
}

func (x *Mkdir) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        "create_directory",
		Description: "Creates a new directory, including any necessary parent directories. Requires user approval.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "The relative or absolute directory path to create.",
				},
			},
			Required: []string{"path"},
		},
		Danger: &tool.Danger{
			Action:    "Create Directory",
			DetailArg: "path",
		},
	}
}

func (x *Mkdir) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var input mkdirInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}

	if st, err := os.Stat(input.Path); err == nil && !st.IsDir() {
		return &resultOutput{Error: fmt.Sprintf("Create dir failed: Path exists but is a file: %s", input.Path)}, nil
	}

	if err := os.MkdirAll(input.Path, 0755); err != nil {
		return failed("Create dir failed: ", err), nil
	}

	return &resultOutput{Success: true}, nil
}
