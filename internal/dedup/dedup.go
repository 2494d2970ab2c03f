// Package dedup gates the ingestion pipeline on content fingerprints.
// A fingerprint is registered at most once; re-ingesting the same bytes
// is reported as Duplicate, a normal outcome rather than an error.
package dedup

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/felo/inboxforge/internal/logging"
)

// Result is the outcome of a dedup check.
type Result int

const (
	// Accepted means the id was unseen and is now registered.
	Accepted Result = iota
	// Duplicate means the id was registered by an earlier ingest.
	Duplicate
)

// Store tracks the set of fingerprints seen so far. Ids are never
// forgotten for the lifetime of a store.
type Store interface {
	// CheckAndRegister registers id if unseen and reports the outcome.
	CheckAndRegister(id string) (Result, error)
	// Contains reports whether id has been registered.
	Contains(id string) bool
	// Count returns the number of registered ids.
	Count() int
	// IDs returns the registered ids in sorted order.
	IDs() []string
}

// MemoryStore is an in-memory Store with no durability. It backs tests
// and dry runs.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (s *MemoryStore) CheckAndRegister(id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return Duplicate, nil
	}
	s.seen[id] = struct{}{}
	return Accepted, nil
}

func (s *MemoryStore) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok
}

func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *MemoryStore) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedIDs(s.seen)
}

// FileStore is a Store backed by an append-only id log, one fingerprint
// per line. The log is appended and synced on every accept, so a crash
// mid-batch leaves it consistent with exactly the records persisted so
// far.
type FileStore struct {
	mu   sync.Mutex
	path string
	seen map[string]struct{}
}

// OpenFileStore opens the id log at path, seeding the in-memory set
// from its lines. A missing log starts the store empty; an unreadable
// line is skipped with a warning rather than failing the open.
func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create id log directory: %w", err)
	}

	store := &FileStore{
		path: path,
		seen: make(map[string]struct{}),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("failed to open id log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			store.seen[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		// Tolerate a truncated or corrupt tail: keep what was read.
		logging.Log.WithError(err).WithField("path", path).Warn("Id log partially unreadable, continuing with loaded ids")
	}

	return store, nil
}

func (s *FileStore) CheckAndRegister(id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return Duplicate, nil
	}

	if err := s.appendLine(id); err != nil {
		return Accepted, fmt.Errorf("failed to append id log: %w", err)
	}

	s.seen[id] = struct{}{}
	return Accepted, nil
}

// appendLine appends one id and syncs before the in-memory set is
// updated, never batched.
func (s *FileStore) appendLine(id string) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(id + "\n"); err != nil {
		return err
	}
	return f.Sync()
}

func (s *FileStore) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok
}

func (s *FileStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *FileStore) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedIDs(s.seen)
}

// Save rewrites the id log in full, sorted. Called at the end of an
// ingest batch; the in-memory set is the source of truth.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create id log: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, id := range sortedIDs(s.seen) {
		if _, err := w.WriteString(id + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("failed to write id log: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush id log: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync id log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close id log: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace id log: %w", err)
	}
	return nil
}

func sortedIDs(seen map[string]struct{}) []string {
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
