package repository

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/model"
)

// encodeNodes serializes nodes as one JSON object keyed by node ID
func encodeNodes(nodes map[model.NodeID]*model.MemoryNode) ([]byte, error) {
	if nodes == nil {
		nodes = map[model.NodeID]*model.MemoryNode{}
	}
	data, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal memory nodes")
	}
	return data, nil
}

// decodeNodes parses a persisted document. The map key is authoritative for the node ID.
func decodeNodes(data []byte) (map[model.NodeID]*model.MemoryNode, error) {
	var raw map[model.NodeID]*model.MemoryNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(ErrMalformedData, "failed to unmarshal memory nodes", goerr.V("reason", err.Error()))
	}
	if raw == nil {
		// "null" is valid JSON but not a node map
		return nil, goerr.Wrap(ErrMalformedData, "memory document is not a JSON object")
	}

	nodes := make(map[model.NodeID]*model.MemoryNode, len(raw))
	for id, node := range raw {
		if node == nil {
			continue
		}
		node.ID = id
		node.Tags = model.NormalizeTags(node.Tags)
		nodes[id] = node
	}
	return nodes, nil
}
