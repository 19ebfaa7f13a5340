package repository_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/toolagent/pkg/adapter"
	"github.com/m-mizutani/toolagent/pkg/model"
	"github.com/m-mizutani/toolagent/pkg/repository"
)

// Mock Storage
type mockStorage struct {
	data map[string][]byte
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		data: make(map[string][]byte),
	}
}

func (m *mockStorage) Bucket() string {
	return "test-bucket"
}

func (m *mockStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return &mockWriteCloser{
		Buffer:  &bytes.Buffer{},
		storage: m,
		key:     key,
	}, nil
}

type mockWriteCloser struct {
	*bytes.Buffer
	storage *mockStorage
	key     string
}

func (m *mockWriteCloser) Close() error {
	m.storage.data[m.key] = m.Buffer.Bytes()
	return nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, goerr.Wrap(adapter.ErrObjectNotFound, "data not found", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestObjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	repo := repository.NewObject(storage, "agent/memory.json")
	gt.Equal(t, repo.Location(), "gs://test-bucket/agent/memory.json")

	nodes, err := repo.LoadMemory(ctx)
	gt.NoError(t, err)
	gt.Equal(t, len(nodes), 0)

	n1 := newNode("n1", "stored in bucket", "cloud")
	gt.NoError(t, repo.SaveMemory(ctx, map[model.NodeID]*model.MemoryNode{n1.ID: n1}))
	gt.Map(t, storage.data).HasKey("agent/memory.json")

	loaded, err := repo.LoadMemory(ctx)
	gt.NoError(t, err)
	gt.Equal(t, loaded["n1"].Content, "stored in bucket")
	gt.Equal(t, loaded["n1"].Tags, []string{"cloud"})
}

func TestObjectLoadMalformed(t *testing.T) {
	storage := newMockStorage()
	storage.data["memory.json"] = []byte("not json")

	_, err := repository.NewObject(storage, "memory.json").LoadMemory(context.Background())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, repository.ErrMalformedData))
}

func TestParseObjectURL(t *testing.T) {
	testCases := []struct {
		url     string
		bucket  string
		key     string
		wantErr bool
	}{
		{url: "gs://bucket/memory.json", bucket: "bucket", key: "memory.json"},
		{url: "gs://bucket/a/b/memory.json", bucket: "bucket", key: "a/b/memory.json"},
		{url: "gs://bucket", wantErr: true},
		{url: "gs://bucket/", wantErr: true},
		{url: "gs:///memory.json", wantErr: true},
		{url: "./memory.json", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			bucket, key, err := repository.ParseObjectURL(tc.url)
			if tc.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, bucket, tc.bucket)
			gt.Equal(t, key, tc.key)
		})
	}
}

func TestObjectWithCloudStorage(t *testing.T) {
	bucket := os.Getenv("TEST_STORAGE_BUCKET")
	if bucket == "" {
		t.Skip("TEST_STORAGE_BUCKET is not set")
	}

	ctx := context.Background()
	storage, err := adapter.NewStorage(ctx, bucket)
	gt.NoError(t, err)

	repo := repository.NewObject(storage, "toolagent-test/"+string(model.NewNodeID())+".json")
	n1 := newNode(model.NewNodeID(), "live test", "test")
	gt.NoError(t, repo.SaveMemory(ctx, map[model.NodeID]*model.MemoryNode{n1.ID: n1}))

	loaded, err := repo.LoadMemory(ctx)
	gt.NoError(t, err)
	gt.Equal(t, loaded[n1.ID].Content, "live test")
}
