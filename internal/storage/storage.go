package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Folders used for uploads.
const (
	FolderEvents        = "events"
	FolderNews          = "news"
	FolderTeam          = "team"
	FolderGallery       = "gallery"
	FolderAnnouncements = "announcements"
	FolderMusic         = "announcements/music"
	FolderDocuments     = "documents"
	FolderCertificates  = "certificates"
)

// publicFolders may be served under /media. Documents and certificates
// are only handed out through their download handlers.
var publicFolders = map[string]bool{
	FolderEvents:        true,
	FolderNews:          true,
	FolderTeam:          true,
	FolderGallery:       true,
	FolderAnnouncements: true,
}

var (
	ErrNotFound   = errors.New("file not found")
	ErrInvalidKey = errors.New("invalid storage key")
)

// Object describes a stored file.
type Object struct {
	Key  string
	Size int64
}

// Store keeps uploaded media. Keys are opaque to callers: a relative path
// for local storage, the secure URL for Cloudinary.
type Store interface {
	Save(ctx context.Context, folder, filename string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// IsPublicKey reports whether a local key may be served as public media.
func IsPublicKey(key string) bool {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key {
		return false
	}
	folder, _, ok := strings.Cut(clean, "/")
	return ok && publicFolders[folder]
}

// SanitizeFilename keeps letters, digits, dots, dashes and underscores.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "datei"
	}
	return out
}

func uniqueName(filename string) string {
	return uuid.NewString()[:8] + "_" + SanitizeFilename(filename)
}
