package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Record is the durable, JSON-serializable result of processing one
// message. Attachment bytes live in the attachment store; the record
// keeps only their metadata and store-relative locations.
type Record struct {
	ID          string          `json:"id"`
	Metadata    Metadata        `json:"metadata"`
	Content     string          `json:"content"`
	Attachments []AttachmentRef `json:"attachments"`
}

// Metadata holds the extracted header fields of a record.
type Metadata struct {
	Sender       string   `json:"sender"`
	Recipients   []string `json:"recipients"`
	Subject      string   `json:"subject"`
	Date         string   `json:"date"`
	OriginalFile string   `json:"original_file"`
	ProcessedAt  string   `json:"processed_date"`
}

// AttachmentRef points at one stored attachment.
type AttachmentRef struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Location string `json:"location"`
}

// RecordStore persists one JSON file per record under
// <root>/processed/<id>.json plus the running summary document.
type RecordStore struct {
	root         string
	processedDir string
}

// NewRecordStore creates the processed directory under root if needed.
func NewRecordStore(root string) (*RecordStore, error) {
	dir := filepath.Join(root, "processed")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: dir, Err: err}
	}
	return &RecordStore{root: root, processedDir: dir}, nil
}

// Save writes the record as pretty-printed JSON. Records are written
// once and never mutated in place; the dedup gate keeps identical
// content from reaching Save twice.
func (s *RecordStore) Save(record *Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return &StorageError{Op: "marshal", Path: record.ID, Err: err}
	}

	path := s.recordPath(record.ID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Get loads a record by id. Returns ErrNotFound if no record exists.
func (s *RecordStore) Get(id string) (*Record, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, &StorageError{Op: "read", Path: s.recordPath(id), Err: err}
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &StorageError{Op: "unmarshal", Path: s.recordPath(id), Err: err}
	}
	return &record, nil
}

func (s *RecordStore) recordPath(id string) string {
	return filepath.Join(s.processedDir, id+".json")
}
