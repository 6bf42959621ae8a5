package fsops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRealFS_AtomicWrite(t *testing.T) {
	fs := NewRealFS()

	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "recents.json")

		if err := fs.AtomicWrite(path, []byte("[]"), 0644); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		data, err := fs.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("content = %q, want []", data)
		}
	})

	t.Run("replaces existing content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "recents.json")

		if err := fs.AtomicWrite(path, []byte("first"), 0644); err != nil {
			t.Fatalf("first write failed: %v", err)
		}
		if err := fs.AtomicWrite(path, []byte("second"), 0644); err != nil {
			t.Fatalf("second write failed: %v", err)
		}

		data, _ := fs.ReadFile(path)
		if string(data) != "second" {
			t.Errorf("content = %q, want second", data)
		}
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "recents.json")

		if err := fs.AtomicWrite(path, []byte("x"), 0644); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir failed: %v", err)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".bootspace-tmp-") {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
		if len(entries) != 1 {
			t.Errorf("expected exactly one entry, got %d", len(entries))
		}
	})
}

func TestRealFS_ExistsAndRemove(t *testing.T) {
	fs := NewRealFS()
	path := filepath.Join(t.TempDir(), "file")

	exists, err := fs.Exists(path)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("file should not exist yet")
	}

	if err := fs.Remove(path); err != nil {
		t.Errorf("Remove of missing file should not fail: %v", err)
	}

	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	exists, _ = fs.Exists(path)
	if !exists {
		t.Error("file should exist")
	}

	if err := fs.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	exists, _ = fs.Exists(path)
	if exists {
		t.Error("file should be gone after Remove")
	}
}
