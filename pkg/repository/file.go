package repository

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/model"
)

// File stores memory nodes in a local JSON file
type File struct {
	path string
}

// NewFile creates a file repository. The file does not need to exist.
func NewFile(path string) *File {
	return &File{path: path}
}

func (x *File) Location() string {
	return x.path
}

func (x *File) LoadMemory(ctx context.Context) (map[model.NodeID]*model.MemoryNode, error) {
	data, err := os.ReadFile(x.path)
	if os.IsNotExist(err) {
		return map[model.NodeID]*model.MemoryNode{}, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read memory file", goerr.V("path", x.path))
	}

	nodes, err := decodeNodes(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory file", goerr.V("path", x.path))
	}
	return nodes, nil
}

func (x *File) SaveMemory(ctx context.Context, nodes map[model.NodeID]*model.MemoryNode) error {
	data, err := encodeNodes(nodes)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(x.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return goerr.Wrap(err, "failed to create memory directory", goerr.V("dir", dir))
		}
	}

	// Written to a sibling temp file and renamed into place
	tmp, err := os.CreateTemp(filepath.Dir(x.path), filepath.Base(x.path)+".*.tmp")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary memory file", goerr.V("path", x.path))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return goerr.Wrap(err, "failed to write memory file", goerr.V("path", tmp.Name()))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close memory file", goerr.V("path", tmp.Name()))
	}
	if err := os.Rename(tmp.Name(), x.path); err != nil {
		return goerr.Wrap(err, "failed to replace memory file", goerr.V("path", x.path))
	}

	return nil
}
