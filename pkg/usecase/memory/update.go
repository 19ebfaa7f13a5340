package memory

import (
	"context"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/model"
)

type UpdateStatus string

const (
	StatusUpdated   UpdateStatus = "updated"
	StatusNoChanges UpdateStatus = "no_changes_made"
)

// UpdateInput contains changes applied to a node. Nil fields are left unchanged.
type UpdateInput struct {
	ID         model.NodeID
	NewContent *string
	AddTags    []string
	RemoveTags []string
}

// UpdateResult is the outcome of Update
type UpdateResult struct {
	Node          *model.MemoryNode
	Status        UpdateStatus
	UpdatedFields []string
}

// Update replaces content, then adds tags, then removes tags. UpdatedAt is
// advanced and the store persisted only when at least one field changed;
// otherwise the node is returned as is with StatusNoChanges. Setting content
// to its current value still counts as a content change.
func (s *Store) Update(ctx context.Context, input UpdateInput) (*UpdateResult, error) {
	if !s.Enabled() {
		return nil, ErrNotInitialized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[input.ID]
	if !ok {
		return nil, goerr.Wrap(ErrNodeNotFound, "node not found", goerr.V("node_id", input.ID))
	}

	var updatedFields []string
	if input.NewContent != nil {
		node.Content = *input.NewContent
		updatedFields = append(updatedFields, "content")
	}

	tags := slices.Clone(node.Tags)
	tagsChanged := false
	for _, tag := range input.AddTags {
		if !slices.Contains(tags, tag) {
			tags = append(tags, tag)
			tagsChanged = true
		}
	}
	for _, tag := range input.RemoveTags {
		if idx := slices.Index(tags, tag); idx >= 0 {
			tags = slices.Delete(tags, idx, idx+1)
			tagsChanged = true
		}
	}
	if tagsChanged {
		node.Tags = model.NormalizeTags(tags)
		updatedFields = append(updatedFields, "tags")
	}

	if len(updatedFields) == 0 {
		return &UpdateResult{
			Node:   node.Clone(),
			Status: StatusNoChanges,
		}, nil
	}

	ts := s.timestamp()
	if ts.Before(node.CreatedAt) {
		ts = node.CreatedAt
	}
	node.UpdatedAt = ts
	s.persist(ctx)

	return &UpdateResult{
		Node:          node.Clone(),
		Status:        StatusUpdated,
		UpdatedFields: updatedFields,
	}, nil
}
