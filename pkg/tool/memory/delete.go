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

type deleteInput struct {
	NodeID model.NodeID `json:"node_id"`
}

type deleteOutput struct {
	NodeID  model.NodeID          `json:"node_id"`
	Status  string                `json:"status"`
	Details *memory.DeletePreview `json:"details"`
}

// Delete removes a memory node
type Delete struct {
	store *memory.Store
}

func (x *Delete) Spec() *tool.Spec {
	return &tool.Spec{
		Name:        "delete_memory_node",
		Description: "Deletes a memory node by its ID.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"node_id": {Type: "string", Description: "The ID of the memory node to delete."},
			},
			Required: []string{"node_id"},
		},
	}
}

func (x *Delete) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var input deleteInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}

	preview, err := x.store.Delete(ctx, input.NodeID)
	if err != nil {
		return storeError("delete", string(input.NodeID), err), nil
	}

	return &deleteOutput{NodeID: input.NodeID, Status: "deleted", Details: preview}, nil
}
