package storage_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/fsys"
	"github.com/arthur-debert/nanotask/nanotask/storage"
	"github.com/google/go-cmp/cmp"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

const treeSlot = `{"tasks":[{"id":1,"parent_id":0,"name":"Buy milk","status":"DONE"}]}`

func TestFileBackends(t *testing.T) {
	for _, path := range []string{"tasks.json", "tasks.yaml"} {
		t.Run(path, func(t *testing.T) {
			mockFS := fsys.NewMockFileSystem()

			shelf, err := storage.OpenPath(path, storage.WithFileSystem(mockFS), storage.WithTimeFunc(clock))
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if !mockFS.FileExists(path) {
				t.Fatal("expected open to bootstrap the file")
			}
			if shelf.Has("task_tree") {
				t.Error("fresh shelf should be empty")
			}

			if err := shelf.Set("task_tree", []byte(treeSlot)); err != nil {
				t.Fatal(err)
			}
			if err := shelf.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			if mockFS.FileExists(path + ".tmp") {
				t.Error("temp file left behind")
			}

			reopened, err := storage.OpenPath(path, storage.WithFileSystem(mockFS))
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			got, ok := reopened.Get("task_tree")
			if !ok {
				t.Fatal("slot lost across close")
			}
			if diff := cmp.Diff(treeSlot, string(got)); diff != "" {
				t.Errorf("slot changed (-want +got):\n%s", diff)
			}
			meta := reopened.Metadata()
			if meta.Version != storage.Version || !meta.CreatedAt.Equal(fixedNow) {
				t.Errorf("unexpected metadata: %+v", meta)
			}
		})
	}
}

func TestJSONFileIsReadable(t *testing.T) {
	mockFS := fsys.NewMockFileSystem()
	shelf, err := storage.OpenPath("tasks.json", storage.WithFileSystem(mockFS))
	if err != nil {
		t.Fatal(err)
	}
	_ = shelf.Set("task_tree", []byte(treeSlot))
	if err := shelf.Sync(); err != nil {
		t.Fatal(err)
	}

	content, _ := mockFS.GetFileContent("tasks.json")
	if !strings.Contains(string(content), `"name": "Buy milk"`) {
		t.Errorf("expected slot embedded as JSON, got:\n%s", content)
	}
}

func TestOpenErrors(t *testing.T) {
	t.Run("corrupt file", func(t *testing.T) {
		mockFS := fsys.NewMockFileSystem()
		_ = mockFS.WriteFile("tasks.json", []byte("{not json"), 0o644)

		_, err := storage.OpenPath("tasks.json", storage.WithFileSystem(mockFS))
		var openErr *storage.OpenError
		if !errors.As(err, &openErr) {
			t.Fatalf("expected *OpenError, got %v", err)
		}
		if openErr.Path != "tasks.json" {
			t.Errorf("unexpected path %q", openErr.Path)
		}
	})

	t.Run("read failure", func(t *testing.T) {
		mockFS := fsys.NewMockFileSystem()
		injected := errors.New("permission denied")
		mockFS.ReadFileError = injected

		_, err := storage.OpenPath("tasks.json", storage.WithFileSystem(mockFS))
		if !errors.Is(err, injected) {
			t.Errorf("expected injected error, got %v", err)
		}
	})

	t.Run("write failure on bootstrap", func(t *testing.T) {
		mockFS := fsys.NewMockFileSystem()
		mockFS.WriteFileError = errors.New("read-only")

		if _, err := storage.OpenPath("tasks.json", storage.WithFileSystem(mockFS)); err == nil {
			t.Error("expected bootstrap failure")
		}
	})
}

func TestClosedShelf(t *testing.T) {
	mockFS := fsys.NewMockFileSystem()
	shelf, err := storage.OpenPath("tasks.json", storage.WithFileSystem(mockFS))
	if err != nil {
		t.Fatal(err)
	}
	if err := shelf.Close(); err != nil {
		t.Fatal(err)
	}
	if err := shelf.Close(); err != nil {
		t.Errorf("second close should be a no-op: %v", err)
	}
	if err := shelf.Set("k", []byte("{}")); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := shelf.Sync(); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestDiscardDoesNotWrite(t *testing.T) {
	mockFS := fsys.NewMockFileSystem()
	shelf, err := storage.OpenPath("tasks.json", storage.WithFileSystem(mockFS))
	if err != nil {
		t.Fatal(err)
	}
	before, _ := mockFS.GetFileContent("tasks.json")

	_ = shelf.Set("task_tree", []byte(treeSlot))
	if err := shelf.Discard(); err != nil {
		t.Fatal(err)
	}

	after, _ := mockFS.GetFileContent("tasks.json")
	if string(before) != string(after) {
		t.Error("discard wrote the snapshot")
	}
}

func TestSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")

	shelf, err := storage.OpenPath(path, storage.WithTimeFunc(clock))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = shelf.Set("task_tree", []byte(treeSlot))
	_ = shelf.Set("workspaces", []byte(`{"workspaces":[]}`))
	if err := shelf.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := storage.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Discard() }()

	if diff := cmp.Diff([]string{"task_tree", "workspaces"}, reopened.Keys()); diff != "" {
		t.Errorf("unexpected keys (-want +got):\n%s", diff)
	}
	got, _ := reopened.Get("task_tree")
	if string(got) != treeSlot {
		t.Errorf("unexpected slot %s", got)
	}
	if !reopened.Metadata().CreatedAt.Equal(fixedNow) {
		t.Errorf("metadata lost: %+v", reopened.Metadata())
	}
}

func TestBackendFor(t *testing.T) {
	tests := map[string]string{
		"a.json":   "*storage.FileBackend",
		"a.yml":    "*storage.FileBackend",
		"a.db":     "*storage.SQLiteBackend",
		"a.sqlite": "*storage.SQLiteBackend",
		"noext":    "*storage.FileBackend",
	}
	for path, want := range tests {
		got := storage.BackendFor(path, nil)
		if name := typeName(got); name != want {
			t.Errorf("%s: expected %s, got %s", path, want, name)
		}
	}
}

func typeName(b storage.Backend) string {
	switch b.(type) {
	case *storage.FileBackend:
		return "*storage.FileBackend"
	case *storage.SQLiteBackend:
		return "*storage.SQLiteBackend"
	}
	return "unknown"
}
