package model

import (
	"path/filepath"
	"strings"
)

// File is an uploaded file that has not been stored yet. Forms carry it as a
// field value; uploading is the caller's responsibility.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Ext returns the lower-cased extension of the original file name without the
// leading dot, or "bin" when the name has none.
func (f *File) Ext() string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
	if ext == "" {
		return "bin"
	}
	return ext
}
