package service

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// buildTestTree writes a small nested tree and returns its root.
func buildTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := []string{
		"index.html",
		"about.html",
		filepath.Join("css", "main.css"),
		filepath.Join("img", "icons", "logo.png"),
	}
	for _, rel := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(path, []byte(rel), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	return root
}

func collectKeys(t *testing.T, root string) []string {
	t.Helper()
	var keys []string
	err := WalkTree(root, func(path, key string) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		t.Fatalf("WalkTree() error = %v", err)
	}
	sort.Strings(keys)
	return keys
}

// TestWalkTree_Keys verifies every regular file is yielded with a
// forward-slash relative key.
func TestWalkTree_Keys(t *testing.T) {
	root := buildTestTree(t)

	got := collectKeys(t, root)
	want := []string{"about.html", "css/main.css", "img/icons/logo.png", "index.html"}

	if len(got) != len(want) {
		t.Fatalf("WalkTree yielded %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Key %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestWalkTree_SkipsSymlinks verifies symlinks are not yielded, including
// links pointing at regular files.
func TestWalkTree_SkipsSymlinks(t *testing.T) {
	root := buildTestTree(t)

	if err := os.Symlink(filepath.Join(root, "index.html"), filepath.Join(root, "link.html")); err != nil {
		t.Skipf("Cannot create symlinks here: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "broken.html")); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	got := collectKeys(t, root)
	for _, key := range got {
		if key == "link.html" || key == "broken.html" {
			t.Errorf("Symlink %q was yielded as a file", key)
		}
	}
	if len(got) != 4 {
		t.Errorf("Expected the 4 regular files only, got %v", got)
	}
}

// TestWalkTree_UnreadableDirectoryContinues verifies one unreadable
// directory never aborts the rest of the walk.
func TestWalkTree_UnreadableDirectoryContinues(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("Permission checks do not apply to root")
	}

	root := buildTestTree(t)
	locked := filepath.Join(root, "locked")
	if err := os.Mkdir(locked, 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(locked, "secret.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	got := collectKeys(t, root)
	if len(got) != 4 {
		t.Errorf("Expected the 4 readable files, got %v", got)
	}
}

// TestWalkTree_CallbackErrorStops verifies only the callback can abort
// the walk.
func TestWalkTree_CallbackErrorStops(t *testing.T) {
	root := buildTestTree(t)

	calls := 0
	err := WalkTree(root, func(path, key string) error {
		calls++
		return os.ErrClosed
	})
	if err == nil {
		t.Fatal("Expected callback error to propagate")
	}
	if calls != 1 {
		t.Errorf("Expected walk to stop after first callback error, got %d calls", calls)
	}
}
