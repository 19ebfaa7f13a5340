package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type NodeID string

// NewNodeID generates a new unique NodeID
func NewNodeID() NodeID {
	return NodeID(uuid.New().String())
}

// MemoryNode is a tagged piece of information persisted across sessions
type MemoryNode struct {
	ID         NodeID    `json:"node_id"`
	Tags       []string  `json:"tags"`
	Content    string    `json:"content"`
	SourceChat *string   `json:"source_chat"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers can not mutate stored nodes
func (x *MemoryNode) Clone() *MemoryNode {
	if x == nil {
		return nil
	}
	c := *x
	c.Tags = slices.Clone(x.Tags)
	if x.SourceChat != nil {
		s := *x.SourceChat
		c.SourceChat = &s
	}
	return &c
}

// HasAllTags reports whether the node's tag set is a superset of tags
func (x *MemoryNode) HasAllTags(tags []string) bool {
	for _, tag := range tags {
		if !slices.Contains(x.Tags, tag) {
			return false
		}
	}
	return true
}

// NormalizeTags returns a deduplicated, sorted copy of tags. Tags are case-sensitive.
func NormalizeTags(tags []string) []string {
	out := slices.Clone(tags)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
