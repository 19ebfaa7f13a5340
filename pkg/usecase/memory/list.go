package memory

import (
	"context"

	"github.com/m-mizutani/toolagent/pkg/model"
)

// ListInput contains filter and pagination parameters of List
type ListInput struct {
	FilterTags []string
	Limit      int
	Offset     int
}

// ListResult is a page of nodes
type ListResult struct {
	Nodes []*model.MemoryNode

	// TotalMatching is the number of matching nodes before pagination
	TotalMatching int
	Limit         int
	Offset        int
}

// List returns nodes having all FilterTags (every node when empty), most
// recently updated first, paginated by Offset and Limit.
func (s *Store) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if !s.Enabled() {
		return nil, ErrNotInitialized
	}

	limit := max(input.Limit, 0)
	offset := max(input.Offset, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := s.sortedNodes(input.FilterTags)
	start := min(offset, len(nodes))
	end := min(start+limit, len(nodes))

	return &ListResult{
		Nodes:         cloneNodes(nodes[start:end]),
		TotalMatching: len(nodes),
		Limit:         input.Limit,
		Offset:        input.Offset,
	}, nil
}
