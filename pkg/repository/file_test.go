package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/toolagent/pkg/model"
	"github.com/m-mizutani/toolagent/pkg/repository"
)

func newNode(id model.NodeID, content string, tags ...string) *model.MemoryNode {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 600, time.UTC)
	return &model.MemoryNode{
		ID:        id,
		Tags:      tags,
		Content:   content,
		CreatedAt: ts,
		UpdatedAt: ts.Add(time.Minute),
	}
}

func TestFileLoadAbsent(t *testing.T) {
	repo := repository.NewFile(filepath.Join(t.TempDir(), "none.json"))

	nodes, err := repo.LoadMemory(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, len(nodes), 0)
}

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "memory.json")
	repo := repository.NewFile(path)
	gt.Equal(t, repo.Location(), path)

	src := "chat-42"
	n1 := newNode("n1", "first", "a", "b")
	n1.SourceChat = &src
	n2 := newNode("n2", "second", "b")

	gt.NoError(t, repo.SaveMemory(ctx, map[model.NodeID]*model.MemoryNode{
		n1.ID: n1,
		n2.ID: n2,
	}))

	loaded, err := repository.NewFile(path).LoadMemory(ctx)
	gt.NoError(t, err)
	gt.Equal(t, len(loaded), 2)
	gt.Equal(t, loaded["n1"].Content, "first")
	gt.Equal(t, loaded["n1"].Tags, []string{"a", "b"})
	gt.Equal(t, *loaded["n1"].SourceChat, "chat-42")
	gt.True(t, loaded["n1"].CreatedAt.Equal(n1.CreatedAt))
	gt.True(t, loaded["n1"].UpdatedAt.Equal(n1.UpdatedAt))
	gt.Nil(t, loaded["n2"].SourceChat)

	// No temporary files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	gt.NoError(t, err)
	gt.Equal(t, len(entries), 1)
}

func TestFileLoadMalformed(t *testing.T) {
	testCases := map[string]string{
		"invalid json": `{"n1": `,
		"array":        `[1, 2, 3]`,
		"null":         `null`,
	}

	for name, body := range testCases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "memory.json")
			gt.NoError(t, os.WriteFile(path, []byte(body), 0644))

			_, err := repository.NewFile(path).LoadMemory(context.Background())
			gt.Error(t, err)
			gt.True(t, errors.Is(err, repository.ErrMalformedData))
		})
	}
}

func TestFileLoadUsesKeyAsID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	body := `{
  "key-id": {
    "node_id": "other-id",
    "tags": ["b", "a", "b"],
    "content": "hello",
    "source_chat": null,
    "created_at": "2024-05-01T10:00:00.123456+00:00",
    "updated_at": "2024-05-01T10:00:00.123456+00:00"
  }
}`
	gt.NoError(t, os.WriteFile(path, []byte(body), 0644))

	nodes, err := repository.NewFile(path).LoadMemory(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, len(nodes), 1)

	node := nodes["key-id"]
	gt.V(t, node).NotNil()
	gt.Equal(t, node.ID, model.NodeID("key-id"))
	gt.Equal(t, node.Tags, []string{"a", "b"})
	gt.Equal(t, node.CreatedAt.Year(), 2024)
}
