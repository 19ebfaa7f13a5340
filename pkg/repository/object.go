package repository

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/adapter"
	"github.com/m-mizutani/toolagent/pkg/model"
)

const objectScheme = "gs://"

// IsObjectURL reports whether location points to a Cloud Storage object
func IsObjectURL(location string) bool {
	return strings.HasPrefix(location, objectScheme)
}

// ParseObjectURL splits gs://bucket/key into bucket and key
func ParseObjectURL(location string) (bucket, key string, err error) {
	if !IsObjectURL(location) {
		return "", "", goerr.New("not a gs:// URL", goerr.V("location", location))
	}

	bucket, key, _ = strings.Cut(strings.TrimPrefix(location, objectScheme), "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", goerr.New("gs:// URL must be gs://<bucket>/<object>", goerr.V("location", location))
	}
	return bucket, key, nil
}

// Object stores memory nodes in a single Cloud Storage object
type Object struct {
	storage adapter.Storage
	key     string
}

// NewObject creates an object repository on top of storage
func NewObject(storage adapter.Storage, key string) *Object {
	return &Object{storage: storage, key: key}
}

func (x *Object) Location() string {
	return objectScheme + x.storage.Bucket() + "/" + x.key
}

func (x *Object) LoadMemory(ctx context.Context) (map[model.NodeID]*model.MemoryNode, error) {
	reader, err := x.storage.Get(ctx, x.key)
	if errors.Is(err, adapter.ErrObjectNotFound) {
		return map[model.NodeID]*model.MemoryNode{}, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open memory object", goerr.V("location", x.Location()))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read memory object", goerr.V("location", x.Location()))
	}

	nodes, err := decodeNodes(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory object", goerr.V("location", x.Location()))
	}
	return nodes, nil
}

func (x *Object) SaveMemory(ctx context.Context, nodes map[model.NodeID]*model.MemoryNode) error {
	data, err := encodeNodes(nodes)
	if err != nil {
		return err
	}

	writer, err := x.storage.Put(ctx, x.key)
	if err != nil {
		return goerr.Wrap(err, "failed to create storage writer", goerr.V("location", x.Location()))
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return goerr.Wrap(err, "failed to write memory object", goerr.V("location", x.Location()))
	}

	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage writer", goerr.V("location", x.Location()))
	}
	return nil
}
