package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/model"
	"github.com/m-mizutani/toolagent/pkg/tool"
	"github.com/m-mizutani/toolagent/pkg/usecase/memory"
)

type listInput struct {
	FilterMatchAllTags []string `json:"filter_match_all_tags"`
	Limit              int      `json:"limit"`
	Offset             int      `json:"offset"`
}

type listOutput struct {
	Nodes         []*model.MemoryNode `json:"nodes"`
	TotalMatching int                 `json:"total_matching"`
	CountReturned int                 `json:"count_returned"`
	Limit         int                 `json:"limit"`
	Offset        int                 `json:"offset"`
}

// List pages through memory nodes
type List struct {
	store *memory.Store
}

func (x *List) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        "list_memory_nodes",
		Description: "Lists memory nodes, optionally filtered by tags. Nodes are returned sorted by last updated time (descending).",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"filter_match_all_tags": tagsSchema("Optional: If provided, only nodes having ALL these tags will be listed.", true),
				"limit": {
					Type:        "integer",
					Description: fmt.Sprintf("Maximum number of nodes to return (default: %d).", defaultListLimit),
				},
				"offset": {
					Type:        "integer",
					Description: "Number of nodes to skip for pagination (default: 0).",
				},
			},
		},
	}
}

func (x *List) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	input := listInput{Limit: defaultListLimit}
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}

	result, err := x.store.List(ctx, memory.ListInput{
		FilterTags: input.FilterMatchAllTags,
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return storeError("list", "", err), nil
	}

	return &listOutput{
		Nodes:         result.Nodes,
		TotalMatching: result.TotalMatching,
		CountReturned: len(result.Nodes),
		Limit:         result.Limit,
		Offset:        result.Offset,
	}, nil
}
