package photo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalUploader(t *testing.T) {
	dir := t.TempDir()
	u := NewLocalUploader(dir, "http://localhost:8080/uploads/")

	url, err := u.Upload(context.Background(), "2026/01/abc.jpg", "image/jpeg", strings.NewReader("jpegdata"), 8)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "http://localhost:8080/uploads/2026/01/abc.jpg" {
		t.Errorf("url = %q", url)
	}

	b, err := os.ReadFile(filepath.Join(dir, "2026", "01", "abc.jpg"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) != "jpegdata" {
		t.Errorf("content = %q", b)
	}
}

func TestAllowedContentType(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/png", "image/webp"} {
		if !AllowedContentType(ct) {
			t.Errorf("AllowedContentType(%q) = false", ct)
		}
	}
	for _, ct := range []string{"application/pdf", "text/html", ""} {
		if AllowedContentType(ct) {
			t.Errorf("AllowedContentType(%q) = true", ct)
		}
	}
}
