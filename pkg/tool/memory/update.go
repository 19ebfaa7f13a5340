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

type updateInput struct {
	NodeID     model.NodeID `json:"node_id"`
	NewContent *string      `json:"new_content"`
	AddTags    []string     `json:"add_tags"`
	RemoveTags []string     `json:"remove_tags"`
}

type updateOutput struct {
	NodeID        model.NodeID      `json:"node_id"`
	Status        string            `json:"status"`
	UpdatedFields []string          `json:"updated_fields,omitempty"`
	Node          *model.MemoryNode `json:"node"`
}

// Update modifies content and tags of a memory node
type Update struct {
	store *memory.Store
}

func (x *Update) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        "update_memory_node",
		Description: "Updates an existing memory node by its ID. Allows modification of content and tags.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"node_id":     {Type: "string", Description: "The ID of the memory node to update."},
				"new_content": nullableString("Optional: New content for the node. If null, content is not changed."),
				"add_tags":    tagsSchema("Optional: A list of tags to add to the node. Duplicates are ignored.", true),
				"remove_tags": tagsSchema("Optional: A list of tags to remove from the node.", true),
			},
			Required: []string{"node_id"},
		},
	}
}

func (x *Update) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var input updateInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}

	result, err := x.store.Update(ctx, memory.UpdateInput{
		ID:         input.NodeID,
		NewContent: input.NewContent,
		AddTags:    input.AddTags,
		RemoveTags: input.RemoveTags,
	})
	if err != nil {
		return storeError("update", string(input.NodeID), err), nil
	}

	return &updateOutput{
		NodeID:        result.Node.ID,
		Status:        string(result.Status),
		UpdatedFields: result.UpdatedFields,
		Node:          result.Node,
	}, nil
}
