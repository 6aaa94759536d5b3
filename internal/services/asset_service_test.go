package services

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAssetStoreRejectsBadMime(t *testing.T) {
	svc := NewAssetService(t.TempDir())
	file, header := makeUpload(t, "anim.gif", "image/gif", []byte("gif-bytes"))

	_, err := svc.Store(file, header)
	if got := errStatus(t, err); got != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", got)
	}
}

func TestAssetStoreAndRemove(t *testing.T) {
	root := t.TempDir()
	svc := NewAssetService(root)
	file, header := makeUpload(t, "my pic.png", "image/png", []byte("png-bytes"))

	ref, err := svc.Store(file, header)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if !strings.HasPrefix(ref, "images/") {
		t.Fatalf("unexpected reference %q", ref)
	}
	if strings.Contains(ref, " ") {
		t.Fatalf("reference should not contain spaces: %q", ref)
	}

	name := strings.TrimPrefix(ref, "images/")
	data, err := os.ReadFile(filepath.Join(root, name))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("stored content mismatch: %q", data)
	}

	svc.Remove(ref)
	if _, err := os.Stat(filepath.Join(root, name)); !os.IsNotExist(err) {
		t.Fatal("expected file to be removed")
	}
}

func TestAssetStoreUniqueNames(t *testing.T) {
	svc := NewAssetService(t.TempDir())

	fileA, headerA := makeUpload(t, "same.png", "image/png", []byte("a"))
	fileB, headerB := makeUpload(t, "same.png", "image/png", []byte("b"))

	refA, err := svc.Store(fileA, headerA)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	refB, err := svc.Store(fileB, headerB)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if refA == refB {
		t.Fatalf("expected distinct references, got %q twice", refA)
	}
}

func TestAssetRemoveRefusesTraversal(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "victim.txt")
	if err := os.WriteFile(outside, []byte("keep me"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	svc := NewAssetService(root)
	svc.Remove("images/../" + filepath.Base(filepath.Dir(outside)) + "/victim.txt")

	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("file outside the root must not be touched: %v", err)
	}
}

func TestAssetSweep(t *testing.T) {
	root := t.TempDir()
	svc := NewAssetService(root)

	old := time.Now().Add(-2 * time.Hour)
	write := func(name string) string {
		path := filepath.Join(root, name)
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		return path
	}

	referenced := write("referenced.png")
	orphanOld := write("orphan-old.png")
	orphanNew := write("orphan-new.png")
	for _, path := range []string{referenced, orphanOld} {
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}

	removed := svc.Sweep(map[string]bool{"images/referenced.png": true}, time.Hour)
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(referenced); err != nil {
		t.Fatal("referenced file must survive the sweep")
	}
	if _, err := os.Stat(orphanNew); err != nil {
		t.Fatal("files younger than the grace age must survive the sweep")
	}
	if _, err := os.Stat(orphanOld); !os.IsNotExist(err) {
		t.Fatal("old orphan should have been swept")
	}
}
