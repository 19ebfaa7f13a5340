package memory

import (
	"context"

	"github.com/m-mizutani/toolagent/pkg/model"
)

// CreateInput contains parameters of a new node
type CreateInput struct {
	Tags       []string
	Content    string
	SourceChat *string
}

// Create stores a new node with a fresh ID
func (s *Store) Create(ctx context.Context, input CreateInput) (*model.MemoryNode, error) {
	if !s.Enabled() {
		return nil, ErrNotInitialized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.timestamp()
	node := &model.MemoryNode{
		ID:         model.NewNodeID(),
		Tags:       model.NormalizeTags(input.Tags),
		Content:    input.Content,
		SourceChat: input.SourceChat,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	for s.nodes[node.ID] != nil {
		node.ID = model.NewNodeID()
	}

	s.nodes[node.ID] = node
	s.persist(ctx)

	return node.Clone(), nil
}
