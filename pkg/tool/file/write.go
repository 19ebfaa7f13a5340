package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/tool"
)

type writeInput struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Overwrite bool   `json:"overwrite"`
}

// Write writes content to a file, creating parent directories
type Write struct{}

// NewWrite creates a new write_file tool
func NewWrite() *Write {
	return &Write{}
}

func (x *Write) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        "write_file",
		Description: "Writes content to a specified file. Creates directories if needed. Requires user approval.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "The relative or absolute path to the file to write.",
				},
				"content": {
					Type:        "string",
					Description: "The content to write to the file.",
				},
				"overwrite": {
					Type:        "boolean",
					Description: "Whether to overwrite the file if it exists (default: false).",
				},
			},
			Required: []string{"path", "content"},
		},
		Danger: &tool.Danger{
			Action:    "Write to File",
			DetailArg: "path",
		},
	}
}

func (x *Write) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var input writeInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}

	if st, err := os.Stat(input.Path); err == nil {
		if st.IsDir() {
			return &resultOutput{Error: fmt.Sprintf("Write failed: Path is a directory: %s", input.Path)}, nil
		}
		if !input.Overwrite {
			return &resultOutput{Error: fmt.Sprintf("Write failed: File exists, overwrite=false: %s", input.Path)}, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(input.Path), 0755); err != nil {
		return failed("Write failed: ", err), nil
	}
	if err := os.WriteFile(input.Path, []byte(input.Content), 0644); err != nil {
		return failed("Write failed: ", err), nil
	}

	return &resultOutput{Success: true}, nil
}
