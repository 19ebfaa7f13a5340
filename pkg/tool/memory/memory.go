// Package memory exposes the memory node store to the LLM as five tools.
package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/toolagent/pkg/tool"
	"github.com/m-mizutani/toolagent/pkg/usecase/memory"
)

const (
	defaultRetrieveLimit = 10
	defaultListLimit     = 20
)

// Tools returns all memory tools bound to store
func Tools(store *memory.Store) []tool.Tool {
	return []tool.Tool{
		&Create{store: store},
		&Retrieve{store: store},
		&Update{store: store},
		&Delete{store: store},
		&List{store: store},
	}
}

type errorOutput struct {
	Error string `json:"error"`
}

// storeError converts a store error into the output seen by the model
func storeError(action string, id string, err error) *errorOutput {
	switch {
	case errors.Is(err, memory.ErrNotInitialized):
		return &errorOutput{Error: "Memory system not initialized. Provide --memory-file."}
	case errors.Is(err, memory.ErrNodeNotFound):
		return &errorOutput{Error: fmt.Sprintf("Node with ID '%s' not found.", id)}
	case errors.Is(err, memory.ErrEmptyTags):
		return &errorOutput{Error: "The 'match_all_tags' parameter cannot be empty for retrieval."}
	case id != "":
		return &errorOutput{Error: fmt.Sprintf("Failed to %s memory node '%s': %v", action, id, err)}
	default:
		return &errorOutput{Error: fmt.Sprintf("Failed to %s memory node: %v", action, err)}
	}
}

func tagsSchema(description string, nullable bool) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:        "array",
		Items:       &jsonschema.Schema{Type: "string"},
		Description: description,
	}
	if nullable {
		s.Type = ""
		s.Types = []string{"array", "null"}
	}
	return s
}

func nullableString(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Types:       []string{"string", "null"},
		Description: description,
	}
}

// Prompt explains the memory system when the store is enabled
func (x *Create) Prompt(ctx context.Context) string {
	if !x.store.Enabled() {
		return ""
	}
	return `You also have access to a node-based memory system to persist and recall information across sessions. Assume prior memories exist. Use these tools to manage this memory:
- create_memory_node: To store a new piece of information. Assign relevant tags (e.g., 'project:alpha', 'user_preference:color_blue', 'concept:quantum_physics').
- retrieve_memory_nodes: To search for information using tags. It returns nodes that match ALL provided tags. You can also provide a query string to search within node content.
- update_memory_node: To modify existing information (content or tags) in a specific node using its ID.
- delete_memory_node: To remove a specific piece of information using its node ID.
- list_memory_nodes: To get a general overview of stored memories, possibly filtered by tags.
When storing information, make the content concise and the tags descriptive and specific. For example, if a user mentions their favorite book is 'Dune', you might create a node with tags like ['user_preference', 'favorite_book', 'book_title:Dune'] and content 'User's favorite book is Dune by Frank Herbert'.`
}
