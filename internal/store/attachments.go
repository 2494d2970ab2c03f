package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// AttachmentStore persists attachment bytes under
// <root>/attachments/<recordID>/<filename> and hands back store-relative
// paths for embedding in records.
type AttachmentStore struct {
	root string
}

// NewAttachmentStore creates the attachments directory under root if
// needed.
func NewAttachmentStore(root string) (*AttachmentStore, error) {
	dir := filepath.Join(root, "attachments")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: dir, Err: err}
	}
	return &AttachmentStore{root: root}, nil
}

// Save writes the attachment bytes under a directory scoped to
// recordID and returns the path relative to the store root. Any path
// components in the declared filename are stripped, so a crafted name
// cannot escape the record's directory.
func (s *AttachmentStore) Save(recordID, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.root, "attachments", recordID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &StorageError{Op: "mkdir", Path: dir, Err: err}
	}

	safeName := filepath.Base(filepath.ToSlash(filename))
	if safeName == "." || safeName == string(filepath.Separator) || safeName == "" {
		return "", &StorageError{Op: "save", Path: filename, Err: fmt.Errorf("unusable attachment filename")}
	}

	path := filepath.Join(dir, safeName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &StorageError{Op: "write", Path: path, Err: err}
	}

	return filepath.ToSlash(filepath.Join("attachments", recordID, safeName)), nil
}
