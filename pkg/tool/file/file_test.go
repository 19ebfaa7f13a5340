package file_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/toolagent/pkg/tool"
	"github.com/m-mizutani/toolagent/pkg/tool/file"
)

func run(t *testing.T, x tool.Tool, args map[string]any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(args)
	gt.NoError(t, err)

	out, err := x.Execute(context.Background(), raw)
	gt.NoError(t, err)

	data, err := json.Marshal(out)
	gt.NoError(t, err)
	var v map[string]any
	gt.NoError(t, json.Unmarshal(data, &v))
	return v
}

func TestTools(t *testing.T) {
	registry := tool.New(file.Tools()...)
	gt.Equal(t, registry.Names(), []string{"read_file", "write_file", "copy_file", "list_directory", "create_directory"})

	for _, name := range []string{"write_file", "copy_file", "create_directory"} {
		x, ok := registry.Lookup(name)
		gt.True(t, ok)
		gt.True(t, x.Spec().Dangerous())
	}
	for _, name := range []string{"read_file", "list_directory"} {
		x, ok := registry.Lookup(name)
		gt.True(t, ok)
		gt.False(t, x.Spec().Dangerous())
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	gt.NoError(t, os.WriteFile(path, []byte("hello\nworld"), 0644))

	t.Run("content", func(t *testing.T) {
		out := run(t, file.NewRead(), map[string]any{"path": path})
		gt.Equal(t, out["content"], any("hello\nworld"))
	})

	t.Run("missing file", func(t *testing.T) {
		out := run(t, file.NewRead(), map[string]any{"path": filepath.Join(dir, "none.txt")})
		gt.Nil(t, out["content"])
		gt.S(t, out["error"].(string)).Contains("Read failed")
	})

	t.Run("directory", func(t *testing.T) {
		out := run(t, file.NewRead(), map[string]any{"path": dir})
		gt.S(t, out["error"].(string)).Contains("Not a file")
	})
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "b.txt")

	out := run(t, file.NewWrite(), map[string]any{"path": path, "content": "first"})
	gt.Equal(t, out["success"], any(true))
	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.Equal(t, string(data), "first")

	t.Run("existing file without overwrite", func(t *testing.T) {
		out := run(t, file.NewWrite(), map[string]any{"path": path, "content": "second"})
		gt.Equal(t, out["success"], any(false))
		gt.S(t, out["error"].(string)).Contains("overwrite=false")
	})

	t.Run("existing file with overwrite", func(t *testing.T) {
		out := run(t, file.NewWrite(), map[string]any{"path": path, "content": "second", "overwrite": true})
		gt.Equal(t, out["success"], any(true))
		data, err := os.ReadFile(path)
		gt.NoError(t, err)
		gt.Equal(t, string(data), "second")
	})

	t.Run("directory", func(t *testing.T) {
		out := run(t, file.NewWrite(), map[string]any{"path": dir, "content": "x", "overwrite": true})
		gt.S(t, out["error"].(string)).Contains("Path is a directory")
	})
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.sh")
	gt.NoError(t, os.WriteFile(src, []byte("#!/bin/sh\necho hi\n"), 0755))
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	gt.NoError(t, os.Chtimes(src, mtime, mtime))

	dst := filepath.Join(dir, "nested", "dst.sh")
	out := run(t, file.NewCopy(), map[string]any{"source_path": src, "destination_path": dst})
	gt.Equal(t, out["success"], any(true))

	st, err := os.Stat(dst)
	gt.NoError(t, err)
	gt.True(t, st.ModTime().Equal(mtime))
	gt.Equal(t, st.Mode().Perm(), os.FileMode(0755))

	t.Run("destination exists", func(t *testing.T) {
		out := run(t, file.NewCopy(), map[string]any{"source_path": src, "destination_path": dst})
		gt.S(t, out["error"].(string)).Contains("Destination exists")
	})

	t.Run("missing source", func(t *testing.T) {
		out := run(t, file.NewCopy(), map[string]any{"source_path": filepath.Join(dir, "none"), "destination_path": dst, "overwrite": true})
		gt.S(t, out["error"].(string)).Contains("Source not found or not a file")
	})
}

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	gt.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "deep"), 0755))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0644))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), nil, 0644))

	sep := string(os.PathSeparator)

	t.Run("flat", func(t *testing.T) {
		out := run(t, file.NewList(), map[string]any{"path": dir})
		gt.Equal(t, out["entries"], any([]any{"a.txt", "sub" + sep}))
	})

	t.Run("recursive", func(t *testing.T) {
		out := run(t, file.NewList(), map[string]any{"path": dir, "recursive": true})
		gt.Equal(t, out["entries"], any([]any{
			"a.txt",
			"sub" + sep,
			filepath.Join("sub", "b.txt"),
			filepath.Join("sub", "deep") + sep,
		}))
	})

	t.Run("not a directory", func(t *testing.T) {
		out := run(t, file.NewList(), map[string]any{"path": filepath.Join(dir, "a.txt")})
		gt.S(t, out["error"].(string)).Contains("Not a directory")
	})
}

func TestCreateDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x", "y")

	out := run(t, file.NewMkdir(), map[string]any{"path": path})
	gt.Equal(t, out["success"], any(true))
	st, err := os.Stat(path)
	gt.NoError(t, err)
	gt.True(t, st.IsDir())

	t.Run("existing directory is fine", func(t *testing.T) {
		out := run(t, file.NewMkdir(), map[string]any{"path": path})
		gt.Equal(t, out["success"], any(true))
	})

	t.Run("path is a file", func(t *testing.T) {
		filePath := filepath.Join(dir, "f")
		gt.NoError(t, os.WriteFile(filePath, nil, 0644))
		out := run(t, file.NewMkdir(), map[string]any{"path": filePath})
		gt.S(t, out["error"].(string)).Contains("Path exists but is a file")
	})
}
