package utils

import (
	"fmt"
	"path"
	"strings"
)

// FormatFileSize renders a byte count with one decimal, e.g. "1.5 MB".
func FormatFileSize(size int64) string {
	if size <= 0 {
		return "Unbekannt"
	}

	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.1f TB", value)
}

// FileExtension returns the lower-cased extension of name including the dot.
func FileExtension(name string) string {
	if i := strings.IndexAny(name, "?#"); i != -1 {
		name = name[:i]
	}
	return strings.ToLower(path.Ext(name))
}

// BaseName returns the last path element of a storage key or URL.
func BaseName(name string) string {
	if i := strings.IndexAny(name, "?#"); i != -1 {
		name = name[:i]
	}
	return path.Base(strings.ReplaceAll(name, "\\", "/"))
}
