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

type retrieveInput struct {
	MatchAllTags   []string `json:"match_all_tags"`
	QueryInContent *string  `json:"query_in_content"`
	Limit          int      `json:"limit"`
}

type retrieveOutput struct {
	Nodes []*model.MemoryNode `json:"nodes"`
	Count int                 `json:"count"`
}

// Retrieve searches memory nodes by tags and content
type Retrieve struct {
	store *memory.Store
}

func (x *Retrieve) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        "retrieve_memory_nodes",
		Description: "Retrieves memory nodes that match ALL provided tags. Optionally, can filter by a query string within the node content. Returns full node objects.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"match_all_tags":   tagsSchema("A list of tags. Nodes must have ALL of these tags to be returned.", false),
				"query_in_content": nullableString("Optional: A string to search for within the content of the nodes (case-insensitive)."),
				"limit": {
					Type:        "integer",
					Description: fmt.Sprintf("Maximum number of nodes to return (default: %d).", defaultRetrieveLimit),
				},
			},
			Required: []string{"match_all_tags"},
		},
	}
}

func (x *Retrieve) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	input := retrieveInput{Limit: defaultRetrieveLimit}
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}

	query := ""
	if input.QueryInContent != nil {
		query = *input.QueryInContent
	}

	nodes, err := x.store.Retrieve(ctx, memory.RetrieveInput{
		MatchAllTags:   input.MatchAllTags,
		QueryInContent: query,
		Limit:          input.Limit,
	})
	if err != nil {
		return storeError("retrieve", "", err), nil
	}

	return &retrieveOutput{Nodes: nodes, Count: len(nodes)}, nil
}
