package util

import (
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// ExtensionOrDefault returns the lower-cased extension of path, or fallback
// when the name carries none.
func ExtensionOrDefault(path, fallback string) string {
	ext := filepath.Ext(path)
	if ext == "" || ext == "." {
		return fallback
	}
	return strings.ToLower(ext)
}
