package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/tool"
)

type copyInput struct {
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
	Overwrite       bool   `json:"overwrite"`
}

// Copy copies a regular file preserving its mode and modification time
type Copy struct{}

// NewCopy creates a new copy_file tool
func NewCopy() *Copy {
	return &Copy{}
}

func (x *Copy) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        "copy_file",
		Description: "Copies a source file to a destination path. Creates destination directories if needed. Requires user approval.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source_path": {
					Type:        "string",
					Description: "The relative or absolute path of the file to copy.",
				},
				"destination_path": {
					Type:        "string",
					Description: "The relative or absolute path where the file should be copied.",
				},
				"overwrite": {
					Type:        "boolean",
					Description: "Whether to overwrite the destination file if it already exists (default: false).",
				},
			},
			Required: []string{"source_path", "destination_path"},
		},
		Danger: &tool.Danger{
			Action:    "Copy File",
			DetailArg: "destination_path",
		},
	}
}

func (x *Copy) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var input copyInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}

	src, err := os.Stat(input.SourcePath)
	if err != nil || !src.Mode().IsRegular() {
		return &resultOutput{Error: fmt.Sprintf("Copy failed: Source not found or not a file: %s", input.SourcePath)}, nil
	}

	if dst, err := os.Stat(input.DestinationPath); err == nil {
		switch {
		case dst.IsDir():
			return &resultOutput{Error: fmt.Sprintf("Copy failed: Destination is a directory: %s", input.DestinationPath)}, nil
		case !input.Overwrite:
			return &resultOutput{Error: fmt.Sprintf("Copy failed: Destination exists, overwrite=false: %s", input.DestinationPath)}, nil
		case !dst.Mode().IsRegular():
			return &resultOutput{Error: fmt.Sprintf("Copy failed: Cannot overwrite non-file destination: %s", input.DestinationPath)}, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(input.DestinationPath), 0755); err != nil {
		return failed("Copy failed: ", err), nil
	}
	if err := copyFile(input.SourcePath, input.DestinationPath, src); err != nil {
		return failed("Copy failed: ", err), nil
	}

	return &resultOutput{Success: true}, nil
}

func copyFile(srcPath, dstPath string, st os.FileInfo) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, st.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	return os.Chtimes(dstPath, st.ModTime(), st.ModTime())
}
