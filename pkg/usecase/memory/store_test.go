package memory_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/toolagent/pkg/model"
	"github.com/m-mizutani/toolagent/pkg/repository"
	"github.com/m-mizutani/toolagent/pkg/usecase/memory"
)

// countingRepo wraps a file repository and counts writes
type countingRepo struct {
	*repository.File
	saves int
}

func (r *countingRepo) SaveMemory(ctx context.Context, nodes map[model.NodeID]*model.MemoryNode) error {
	r.saves++
	return r.File.SaveMemory(ctx, nodes)
}

// tickClock returns a clock advancing one second per call
func tickClock() func() time.Time {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func setupStore(t *testing.T) (*memory.Store, *countingRepo, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.json")
	repo := &countingRepo{File: repository.NewFile(path)}
	return memory.New(context.Background(), repo, memory.WithClock(tickClock())), repo, path
}

func ptr[T any](v T) *T {
	return &v
}

func TestDisabledStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New(ctx, nil)
	gt.False(t, store.Enabled())
	gt.Equal(t, store.Location(), "")

	_, err := store.Create(ctx, memory.CreateInput{Tags: []string{"a"}, Content: "x"})
	gt.True(t, errors.Is(err, memory.ErrNotInitialized))

	_, err = store.Retrieve(ctx, memory.RetrieveInput{MatchAllTags: []string{"a"}, Limit: 10})
	gt.True(t, errors.Is(err, memory.ErrNotInitialized))

	_, err = store.Update(ctx, memory.UpdateInput{ID: "x"})
	gt.True(t, errors.Is(err, memory.ErrNotInitialized))

	_, err = store.Delete(ctx, "x")
	gt.True(t, errors.Is(err, memory.ErrNotInitialized))

	_, err = store.List(ctx, memory.ListInput{Limit: 10})
	gt.True(t, errors.Is(err, memory.ErrNotInitialized))

	gt.NoError(t, store.Close(ctx))
}

func TestCreateNormalizesTags(t *testing.T) {
	ctx := context.Background()
	store, repo, _ := setupStore(t)

	node, err := store.Create(ctx, memory.CreateInput{
		Tags:    []string{"b", "a", "a", "B"},
		Content: "User likes Dune",
	})
	gt.NoError(t, err)
	gt.Equal(t, node.Tags, []string{"B", "a", "b"})
	gt.NotEqual(t, node.ID, model.NodeID(""))
	gt.True(t, node.CreatedAt.Equal(node.UpdatedAt))
	gt.Nil(t, node.SourceChat)
	gt.Equal(t, repo.saves, 1)

	node2, err := store.Create(ctx, memory.CreateInput{Tags: []string{"a", "b", "a"}, Content: "x"})
	gt.NoError(t, err)
	gt.Equal(t, node2.Tags, []string{"a", "b"})
	gt.NotEqual(t, node2.ID, node.ID)
	gt.Equal(t, store.Len(), 2)
}

func TestCreateReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	node, err := store.Create(ctx, memory.CreateInput{Tags: []string{"a"}, Content: "original"})
	gt.NoError(t, err)
	node.Content = "mutated"
	node.Tags[0] = "z"

	nodes, err := store.Retrieve(ctx, memory.RetrieveInput{MatchAllTags: []string{"a"}, Limit: 10})
	gt.NoError(t, err)
	gt.A(t, nodes).Length(1)
	gt.Equal(t, nodes[0].Content, "original")
}

func TestRetrieve(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	older, err := store.Create(ctx, memory.CreateInput{Tags: []string{"a", "x"}, Content: "old FOO note"})
	gt.NoError(t, err)
	newer, err := store.Create(ctx, memory.CreateInput{Tags: []string{"a"}, Content: "new foo note"})
	gt.NoError(t, err)
	_, err = store.Create(ctx, memory.CreateInput{Tags: []string{"a"}, Content: "unrelated"})
	gt.NoError(t, err)
	_, err = store.Create(ctx, memory.CreateInput{Tags: []string{"b"}, Content: "foo elsewhere"})
	gt.NoError(t, err)

	t.Run("empty tags always fail", func(t *testing.T) {
		_, err := store.Retrieve(ctx, memory.RetrieveInput{QueryInContent: "foo", Limit: 10})
		gt.True(t, errors.Is(err, memory.ErrEmptyTags))

		_, err = store.Retrieve(ctx, memory.RetrieveInput{MatchAllTags: []string{}, Limit: 10})
		gt.True(t, errors.Is(err, memory.ErrEmptyTags))
	})

	t.Run("limit keeps the most recently updated", func(t *testing.T) {
		nodes, err := store.Retrieve(ctx, memory.RetrieveInput{
			MatchAllTags:   []string{"a"},
			QueryInContent: "foo",
			Limit:          1,
		})
		gt.NoError(t, err)
		gt.A(t, nodes).Length(1)
		gt.Equal(t, nodes[0].ID, newer.ID)
	})

	t.Run("query is case-insensitive", func(t *testing.T) {
		nodes, err := store.Retrieve(ctx, memory.RetrieveInput{
			MatchAllTags:   []string{"a"},
			QueryInContent: "Foo",
			Limit:          10,
		})
		gt.NoError(t, err)
		gt.A(t, nodes).Length(2)
		gt.Equal(t, nodes[0].ID, newer.ID)
		gt.Equal(t, nodes[1].ID, older.ID)
	})

	t.Run("all tags must match", func(t *testing.T) {
		nodes, err := store.Retrieve(ctx, memory.RetrieveInput{MatchAllTags: []string{"a", "x"}, Limit: 10})
		gt.NoError(t, err)
		gt.A(t, nodes).Length(1)
		gt.Equal(t, nodes[0].ID, older.ID)
	})

	t.Run("zero limit returns nothing", func(t *testing.T) {
		nodes, err := store.Retrieve(ctx, memory.RetrieveInput{MatchAllTags: []string{"a"}, Limit: 0})
		gt.NoError(t, err)
		gt.A(t, nodes).Length(0)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		store, _, _ := setupStore(t)
		_, err := store.Update(ctx, memory.UpdateInput{ID: "missing", NewContent: ptr("x")})
		gt.True(t, errors.Is(err, memory.ErrNodeNotFound))
	})

	t.Run("no fields leaves node and file untouched", func(t *testing.T) {
		store, repo, path := setupStore(t)
		node, err := store.Create(ctx, memory.CreateInput{Tags: []string{"a"}, Content: "c"})
		gt.NoError(t, err)
		before, err := os.ReadFile(path)
		gt.NoError(t, err)

		result, err := store.Update(ctx, memory.UpdateInput{ID: node.ID})
		gt.NoError(t, err)
		gt.Equal(t, result.Status, memory.StatusNoChanges)
		gt.A(t, result.UpdatedFields).Length(0)
		gt.True(t, result.Node.UpdatedAt.Equal(node.UpdatedAt))
		gt.Equal(t, repo.saves, 1)

		after, err := os.ReadFile(path)
		gt.NoError(t, err)
		gt.Equal(t, string(after), string(before))
	})

	t.Run("ineffective tag changes are no-op", func(t *testing.T) {
		store, repo, _ := setupStore(t)
		node, err := store.Create(ctx, memory.CreateInput{Tags: []string{"a"}, Content: "c"})
		gt.NoError(t, err)

		result, err := store.Update(ctx, memory.UpdateInput{
			ID:         node.ID,
			AddTags:    []string{"a"},
			RemoveTags: []string{"zzz"},
		})
		gt.NoError(t, err)
		gt.Equal(t, result.Status, memory.StatusNoChanges)
		gt.True(t, result.Node.UpdatedAt.Equal(node.UpdatedAt))
		gt.Equal(t, repo.saves, 1)
	})

	t.Run("present tag with new content still counts", func(t *testing.T) {
		store, repo, _ := setupStore(t)
		node, err := store.Create(ctx, memory.CreateInput{Tags: []string{"a"}, Content: "c"})
		gt.NoError(t, err)

		result, err := store.Update(ctx, memory.UpdateInput{
			ID:         node.ID,
			NewContent: ptr("c2"),
			AddTags:    []string{"a"},
		})
		gt.NoError(t, err)
		gt.Equal(t, result.Status, memory.StatusUpdated)
		gt.Equal(t, result.UpdatedFields, []string{"content"})
		gt.Equal(t, result.Node.Content, "c2")
		gt.Equal(t, result.Node.Tags, []string{"a"})
		gt.True(t, result.Node.UpdatedAt.After(node.UpdatedAt))
		gt.True(t, result.Node.CreatedAt.Equal(node.CreatedAt))
		gt.Equal(t, repo.saves, 2)
	})

	t.Run("adds then removes tags", func(t *testing.T) {
		store, _, _ := setupStore(t)
		node, err := store.Create(ctx, memory.CreateInput{Tags: []string{"b", "a"}, Content: "c"})
		gt.NoError(t, err)

		result, err := store.Update(ctx, memory.UpdateInput{
			ID:         node.ID,
			AddTags:    []string{"d", "c", "d"},
			RemoveTags: []string{"a", "d"},
		})
		gt.NoError(t, err)
		gt.Equal(t, result.Status, memory.StatusUpdated)
		gt.Equal(t, result.UpdatedFields, []string{"tags"})
		gt.Equal(t, result.Node.Tags, []string{"b", "c"})
		gt.Equal(t, result.Node.ID, node.ID)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store, repo, _ := setupStore(t)

	_, err := store.Delete(ctx, "missing")
	gt.True(t, errors.Is(err, memory.ErrNodeNotFound))

	long := ""
	for i := 0; i < 20; i++ {
		long += "abcde"
	}
	node, err := store.Create(ctx, memory.CreateInput{Tags: []string{"t1", "t2", "t3", "t4"}, Content: long})
	gt.NoError(t, err)

	preview, err := store.Delete(ctx, node.ID)
	gt.NoError(t, err)
	gt.Equal(t, preview.ID, node.ID)
	gt.Equal(t, preview.Tags, []string{"t1", "t2", "t3"})
	gt.Equal(t, preview.ContentPreview, long[:50]+"...")
	gt.Equal(t, store.Len(), 0)
	gt.Equal(t, repo.saves, 2)

	_, err = store.Delete(ctx, node.ID)
	gt.True(t, errors.Is(err, memory.ErrNodeNotFound))
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	const n = 7
	ids := make([]model.NodeID, 0, n)
	for i := 0; i < n; i++ {
		tags := []string{"all"}
		if i%2 == 0 {
			tags = append(tags, "even")
		}
		node, err := store.Create(ctx, memory.CreateInput{Tags: tags, Content: fmt.Sprintf("node %d", i)})
		gt.NoError(t, err)
		ids = append(ids, node.ID)
	}

	testCases := []struct {
		limit, offset int
		want          int
	}{
		{limit: 3, offset: 0, want: 3},
		{limit: 3, offset: 6, want: 1},
		{limit: 3, offset: 7, want: 0},
		{limit: 3, offset: 100, want: 0},
		{limit: 0, offset: 0, want: 0},
		{limit: 20, offset: 2, want: 5},
		{limit: -1, offset: 0, want: 0},
		{limit: 2, offset: -5, want: 2},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("limit=%d,offset=%d", tc.limit, tc.offset), func(t *testing.T) {
			result, err := store.List(ctx, memory.ListInput{Limit: tc.limit, Offset: tc.offset})
			gt.NoError(t, err)
			gt.A(t, result.Nodes).Length(tc.want)
			gt.Equal(t, result.TotalMatching, n)
		})
	}

	t.Run("ordered by updated_at desc", func(t *testing.T) {
		result, err := store.List(ctx, memory.ListInput{Limit: n})
		gt.NoError(t, err)
		for i, node := range result.Nodes {
			gt.Equal(t, node.ID, ids[n-1-i])
		}
	})

	t.Run("filtered total", func(t *testing.T) {
		result, err := store.List(ctx, memory.ListInput{FilterTags: []string{"even"}, Limit: 2, Offset: 1})
		gt.NoError(t, err)
		gt.Equal(t, result.TotalMatching, 4)
		gt.A(t, result.Nodes).Length(2)
		gt.Equal(t, result.Nodes[0].ID, ids[4])
		gt.Equal(t, result.Nodes[1].ID, ids[2])
	})

	t.Run("update moves node to front", func(t *testing.T) {
		_, err := store.Update(ctx, memory.UpdateInput{ID: ids[0], NewContent: ptr("touched")})
		gt.NoError(t, err)

		result, err := store.List(ctx, memory.ListInput{Limit: 1})
		gt.NoError(t, err)
		gt.Equal(t, result.Nodes[0].ID, ids[0])
	})
}

func TestPersistAndReload(t *testing.T) {
	ctx := context.Background()
	store, _, path := setupStore(t)

	src := "session-1"
	n1, err := store.Create(ctx, memory.CreateInput{Tags: []string{"x", "y"}, Content: "one", SourceChat: &src})
	gt.NoError(t, err)
	n2, err := store.Create(ctx, memory.CreateInput{Tags: []string{"y"}, Content: "two"})
	gt.NoError(t, err)
	_, err = store.Update(ctx, memory.UpdateInput{ID: n2.ID, AddTags: []string{"z"}})
	gt.NoError(t, err)
	gt.NoError(t, store.Close(ctx))

	before, err := store.List(ctx, memory.ListInput{Limit: 10})
	gt.NoError(t, err)

	reloaded := memory.New(ctx, repository.NewFile(path))
	gt.True(t, reloaded.Enabled())
	gt.Equal(t, reloaded.Location(), path)
	after, err := reloaded.List(ctx, memory.ListInput{Limit: 10})
	gt.NoError(t, err)

	gt.Equal(t, after.TotalMatching, before.TotalMatching)
	for i := range before.Nodes {
		b, a := before.Nodes[i], after.Nodes[i]
		gt.Equal(t, a.ID, b.ID)
		gt.Equal(t, a.Tags, b.Tags)
		gt.Equal(t, a.Content, b.Content)
		gt.True(t, a.CreatedAt.Equal(b.CreatedAt))
		gt.True(t, a.UpdatedAt.Equal(b.UpdatedAt))
	}
	gt.Equal(t, *after.Nodes[1].SourceChat, "session-1")
	gt.Equal(t, after.Nodes[1].ID, n1.ID)
}

func TestMalformedFileStartsFresh(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory.json")
	gt.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	store := memory.New(ctx, repository.NewFile(path))
	gt.True(t, store.Enabled())
	gt.Equal(t, store.Len(), 0)

	_, err := store.Create(ctx, memory.CreateInput{Tags: []string{"a"}, Content: "fresh"})
	gt.NoError(t, err)

	reloaded := memory.New(ctx, repository.NewFile(path))
	gt.Equal(t, reloaded.Len(), 1)
}
