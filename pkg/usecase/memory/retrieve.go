package memory

import (
	"context"
	"strings"

	"github.com/m-mizutani/toolagent/pkg/model"
)

// RetrieveInput contains query parameters of Retrieve
type RetrieveInput struct {
	MatchAllTags   []string
	QueryInContent string
	Limit          int
}

// Retrieve returns up to Limit nodes having all MatchAllTags, most recently
// updated first. QueryInContent additionally filters by case-insensitive
// substring. At least one tag is required.
func (s *Store) Retrieve(ctx context.Context, input RetrieveInput) ([]*model.MemoryNode, error) {
	if !s.Enabled() {
		return nil, ErrNotInitialized
	}
	if len(input.MatchAllTags) == 0 {
		return nil, ErrEmptyTags
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := strings.ToLower(input.QueryInContent)
	results := make([]*model.MemoryNode, 0)
	for _, node := range s.sortedNodes(input.MatchAllTags) {
		if len(results) >= input.Limit {
			break
		}
		if query != "" && !strings.Contains(strings.ToLower(node.Content), query) {
			continue
		}
		results = append(results, node)
	}

	return cloneNodes(results), nil
}
