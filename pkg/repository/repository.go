package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/model"
)

// ErrMalformedData is returned by LoadMemory when the persisted data can not be decoded
var ErrMalformedData = goerr.New("malformed memory data")

// Repository persists the whole set of memory nodes as a single document
type Repository interface {
	// LoadMemory returns all persisted nodes. An absent document is not an error
	// and yields an empty map.
	LoadMemory(ctx context.Context) (map[model.NodeID]*model.MemoryNode, error)

	// SaveMemory rewrites the whole document with nodes
	SaveMemory(ctx context.Context, nodes map[model.NodeID]*model.MemoryNode) error

	// Location returns a human readable location of the document
	Location() string
}
