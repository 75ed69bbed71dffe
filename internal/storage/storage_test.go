package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	obj, err := store.Save(ctx, FolderDocuments, "Jahres Bericht.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(obj.Key, "documents/") || !strings.HasSuffix(obj.Key, "_Jahres_Bericht.pdf") {
		t.Errorf("Key = %q", obj.Key)
	}
	if obj.Size != 8 {
		t.Errorf("Size = %d, want 8", obj.Size)
	}
	if got := store.URL(obj.Key); got != "/media/"+obj.Key {
		t.Errorf("URL() = %q", got)
	}

	rc, err := store.Open(ctx, obj.Key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "%PDF-1.4" {
		t.Errorf("content = %q", data)
	}
	if _, ok := rc.(io.ReadSeeker); !ok {
		t.Error("local files should be seekable")
	}

	if err := store.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Open(ctx, obj.Key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, obj.Key); err != nil {
		t.Errorf("deleting a missing file should succeed, got %v", err)
	}
}

func TestLocalRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"../secret", "/etc/passwd", "news/../../x", ""} {
		if _, err := store.Open(context.Background(), key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Open(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestIsPublicKey(t *testing.T) {
	tests := map[string]bool{
		"news/abc_bild.jpg":             true,
		"gallery/x.png":                 true,
		"announcements/music/lied.mp3":  true,
		"documents/satzung.pdf":         false,
		"certificates/lz-2025-001.pdf":  false,
		"news/../documents/satzung.pdf": false,
		"news":                          false,
		"unknown/file.jpg":              false,
	}
	for key, want := range tests {
		if got := IsPublicKey(key); got != want {
			t.Errorf("IsPublicKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"Bericht 2025.pdf":     "Bericht_2025.pdf",
		`C:\Users\a\Plan.xlsx`: "Plan.xlsx",
		"../../etc/passwd":     "passwd",
		"Übersicht.docx":       "bersicht.docx",
		"...":                  "datei",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url     string
		rt, id  string
		wantErr bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345/news/ab12cd34_bild.jpg", "image", "news/ab12cd34_bild", false},
		{"https://res.cloudinary.com/demo/raw/upload/v1/documents/ab12cd34_plan.xlsx", "raw", "documents/ab12cd34_plan.xlsx", false},
		{"https://res.cloudinary.com/demo/video/upload/announcements/music/lied.mp3", "video", "announcements/music/lied", false},
		{"https://res.cloudinary.com/demo/image/fetch/x.jpg", "", "", true},
		{"https://example.org/a.jpg", "", "", true},
	}
	for _, tt := range tests {
		rt, id, err := publicIDFromURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("publicIDFromURL(%q) error = %v", tt.url, err)
			continue
		}
		if rt != tt.rt || id != tt.id {
			t.Errorf("publicIDFromURL(%q) = %q, %q, want %q, %q", tt.url, rt, id, tt.rt, tt.id)
		}
	}
}
