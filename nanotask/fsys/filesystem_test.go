package fsys_test

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/fsys"
)

func TestMockLinkIsCreateOrFail(t *testing.T) {
	m := fsys.NewMockFileSystem()

	if err := m.WriteFile("a.tmp", []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Link("a.tmp", "a.lock"); err != nil {
		t.Fatalf("first link should succeed: %v", err)
	}

	if err := m.WriteFile("b.tmp", []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := m.Link("b.tmp", "a.lock")
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("expected ErrExist, got %v", err)
	}

	content, _ := m.GetFileContent("a.lock")
	if string(content) != "one" {
		t.Errorf("link target was overwritten: %q", content)
	}
}

func TestMockModTimes(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := fsys.NewMockFileSystem()
	m.TimeFunc = func() time.Time { return now }

	_ = m.WriteFile("store.json", []byte("{}"), 0o644)
	info, err := m.Stat("store.json")
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(now) {
		t.Errorf("expected mod time %v, got %v", now, info.ModTime())
	}

	earlier := now.Add(-time.Hour)
	if err := m.SetModTime("store.json", earlier); err != nil {
		t.Fatal(err)
	}
	info, _ = m.Stat("store.json")
	if !info.ModTime().Equal(earlier) {
		t.Errorf("expected mod time %v, got %v", earlier, info.ModTime())
	}

	if err := m.SetModTime("missing", now); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMockErrors(t *testing.T) {
	m := fsys.NewMockFileSystem()

	if _, err := m.ReadFile("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	if err := m.Remove("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}

	injected := errors.New("disk full")
	m.WriteFileError = injected
	if err := m.WriteFile("x", nil, 0o644); !errors.Is(err, injected) {
		t.Errorf("expected injected error, got %v", err)
	}
	if m.FileExists("x") {
		t.Error("failed write must not create the file")
	}
}

func TestMockDirectories(t *testing.T) {
	m := fsys.NewMockFileSystem()
	dir := filepath.Join("data", "nanotask")
	if err := m.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, d := range []string{"data", dir} {
		info, err := m.Stat(d)
		if err != nil || !info.IsDir() {
			t.Errorf("expected %s to be a directory, got %v", d, err)
		}
	}
	if !fsys.Exists(m, dir) || fsys.Exists(m, "other") {
		t.Error("Exists disagrees with Stat")
	}
}

func TestOSFileSystemLink(t *testing.T) {
	dir := t.TempDir()
	osfs := &fsys.OSFileSystem{}

	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := osfs.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := osfs.Link(src, dst); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := osfs.Link(src, dst); !errors.Is(err, fs.ErrExist) {
		t.Errorf("expected ErrExist on second link, got %v", err)
	}
}
