package service

import (
	"os"
	"strings"
	"testing"
)

func TestPhotoService_SaveAndResolve(t *testing.T) {
	svc := NewPhotoService(t.TempDir(), 1024)

	key, size, err := svc.Save("tomato.JPG", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != int64(len("fake image bytes")) {
		t.Errorf("size = %d", size)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Errorf("key %q does not carry the lowered extension", key)
	}
	if strings.Contains(key, "\\") {
		t.Errorf("key %q is not slash-separated", key)
	}

	full, err := svc.Path(key)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "fake image bytes" {
		t.Errorf("content = %q", data)
	}
}

func TestPhotoService_SaveRejectsOversized(t *testing.T) {
	svc := NewPhotoService(t.TempDir(), 8)

	if _, _, err := svc.Save("big.png", strings.NewReader("way more than eight bytes")); err == nil {
		t.Error("expected error for oversized upload")
	}
}

func TestPhotoService_PathRejectsTraversal(t *testing.T) {
	svc := NewPhotoService(t.TempDir(), 1024)

	for _, key := range []string{
		"../etc/passwd",
		"..",
		"/etc/passwd",
		"2026/01/../../../../etc/passwd",
	} {
		if _, err := svc.Path(key); err == nil {
			t.Errorf("Path(%q) accepted a key escaping the upload dir", key)
		}
	}
}

func TestPhotoService_PathUnknownKey(t *testing.T) {
	svc := NewPhotoService(t.TempDir(), 1024)

	if _, err := svc.Path("2026/01/02/nope.jpg"); err == nil {
		t.Error("expected error for missing photo")
	}
}
