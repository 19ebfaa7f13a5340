package memory

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/model"
	"github.com/m-mizutani/toolagent/pkg/tool"
	"github.com/m-mizutani/toolagent/pkg/usecase/memory"
)

type createInput struct {
	Tags       []string `json:"tags"`
	Content    string   `json:"content"`
	SourceChat *string  `json:"source_chat"`
}

type createOutput struct {
	NodeID model.NodeID      `json:"node_id"`
	Status string            `json:"status"`
	Node   *model.MemoryNode `json:"node"`
}

// Create stores a new memory node
type Create struct {
	store *memory.Store
}

func (x *Create) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        "create_memory_node",
		Description: "Creates a new memory node. Nodes are used to store pieces of information with associated tags for later retrieval.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"tags":        tagsSchema("A list of tags to associate with the node (e.g., ['project:alpha', 'user_id:123', 'todo']).", false),
				"content":     {Type: "string", Description: "The textual content of the memory node."},
				"source_chat": nullableString("Optional: A reference to the source of this information (e.g., a chat ID, date, or session identifier)."),
			},
			Required: []string{"tags", "content"},
		},
	}
}

func (x *Create) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var input createInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}

	node, err := x.store.Create(ctx, memory.CreateInput{
		Tags:       input.Tags,
		Content:    input.Content,
		SourceChat: input.SourceChat,
	})
	if err != nil {
		return storeError("create", "", err), nil
	}

	return &createOutput{NodeID: node.ID, Status: "created", Node: node}, nil
}
