package model

import (
	"github.com/google/jsonschema-go/jsonschema"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one entry of a conversation history. Turns are appended, never modified.
type Turn struct {
	Role Role

	// Content may be empty for assistant turns that only request tools
	Content string

	// ToolCalls is set only on assistant turns
	ToolCalls []ToolCallRequest

	// ToolCallID and Name are set only on tool turns
	ToolCallID string
	Name       string
}

// NewSystemTurn creates a system turn
func NewSystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

// NewUserTurn creates a user turn
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// NewToolTurn creates the tool turn answering a tool call
func NewToolTurn(result *ToolResult) Turn {
	return Turn{
		Role:       RoleTool,
		Content:    result.Content,
		ToolCallID: result.CallID,
		Name:       result.Name,
	}
}

// ToolCallRequest is a tool invocation requested by the model
type ToolCallRequest struct {
	ID        string
	Name      string
	Arguments string // raw JSON object text
}

// ToolSchema is the declaration of a tool sent to the completion service
type ToolSchema struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

const ToolChoiceAuto = "auto"

// CompletionRequest is a request to the completion service
type CompletionRequest struct {
	Model       string
	Turns       []Turn
	Tools       []*ToolSchema
	ToolChoice  string
	Temperature float32
	TopP        float32
}
