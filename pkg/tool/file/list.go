package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/tool"
)

type listInput struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

type listOutput struct {
	Entries []string `json:"entries"`
	Error   string   `json:"error,omitempty"`
}

// List lists entries of a directory. Directories have a trailing separator.
type List struct{}

// NewList creates a new list_directory tool
func NewList() *List {
	return &List{}
}

func (x *List) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        "list_directory",
		Description: "Lists the files and subdirectories within a specified directory.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: `The relative or absolute path to the directory (default: ".").`,
				},
				"recursive": {
					Type:        "boolean",
					Description: "Whether to list contents recursively (use with caution, default: false).",
				},
			},
		},
	}
}

func (x *List) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	input := listInput{Path: "."}
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.Path == "" {
		input.Path = "."
	}

	st, err := os.Stat(input.Path)
	if err != nil {
		return &listOutput{Error: "List failed: " + err.Error()}, nil
	}
	if !st.IsDir() {
		return &listOutput{Error: fmt.Sprintf("List failed: Not a directory: %s", input.Path)}, nil
	}

	entries := []string{}
	if input.Recursive {
		err = filepath.WalkDir(input.Path, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == input.Path {
				return nil
			}
			rel, err := filepath.Rel(input.Path, path)
			if err != nil {
				return err
			}
			entries = append(entries, displayName(rel, d.IsDir()))
			return nil
		})
	} else {
		var dirEntries []os.DirEntry
		dirEntries, err = os.ReadDir(input.Path)
		for _, d := range dirEntries {
			entries = append(entries, displayName(d.Name(), d.IsDir()))
		}
	}
	if err != nil {
		return &listOutput{Error: "List failed: " + err.Error()}, nil
	}

	sort.Strings(entries)
	return &listOutput{Entries: entries}, nil
}

func displayName(name string, isDir bool) string {
	if isDir {
		return name + string(os.PathSeparator)
	}
	return name
}
