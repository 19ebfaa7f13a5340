package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/tool"
)

type readInput struct {
	Path string `json:"path"`
}

type readOutput struct {
	Content *string `json:"content"`
	Error   string  `json:"error,omitempty"`
}

// Read returns the whole content of a file
type Read struct{}

// NewRead creates a new read_file tool
func NewRead() *Read {
	return &Read{}
}

func (x *Read) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        "read_file",
		Description: "Reads the entire content of a specified file.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "The relative or absolute path to the file to read.",
				},
			},
			Required: []string{"path"},
		},
	}
}

func (x *Read) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var input readInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}

	st, err := os.Stat(input.Path)
	if err != nil {
		return &readOutput{Error: "Read failed: " + err.Error()}, nil
	}
	if !st.Mode().IsRegular() {
		return &readOutput{Error: fmt.Sprintf("Read failed: Not a file: %s", input.Path)}, nil
	}

	data, err := os.ReadFile(input.Path)
	if err != nil {
		return &readOutput{Error: "Read failed: " + err.Error()}, nil
	}

	// Invalid UTF-8 sequences are replaced rather than failing the read
	content := strings.ToValidUTF8(string(data), "�")
	return &readOutput{Content: &content}, nil
}
