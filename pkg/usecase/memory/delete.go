package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/model"
)

const (
	previewTags    = 3
	previewContent = 50
)

// DeletePreview is a truncated snapshot of a deleted node
type DeletePreview struct {
	ID             model.NodeID `json:"node_id"`
	Tags           []string     `json:"tags"`
	ContentPreview string       `json:"content_preview"`
}

// Delete removes a node and returns a preview of it
func (s *Store) Delete(ctx context.Context, id model.NodeID) (*DeletePreview, error) {
	if !s.Enabled() {
		return nil, ErrNotInitialized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, goerr.Wrap(ErrNodeNotFound, "node not found", goerr.V("node_id", id))
	}

	tags := node.Tags
	if len(tags) > previewTags {
		tags = tags[:previewTags]
	}
	preview := &DeletePreview{
		ID:             id,
		Tags:           append([]string{}, tags...),
		ContentPreview: truncate(node.Content, previewContent) + "...",
	}

	delete(s.nodes, id)
	s.persist(ctx)

	return preview, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
