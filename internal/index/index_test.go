package index

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felo/inboxforge/internal/store"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "search_index"))
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

func testDocument(id, subject, content, date string) *store.Record {
	return &store.Record{
		ID: id,
		Metadata: store.Metadata{
			Sender:     "sender@test.com",
			Recipients: []string{"recipient@test.com"},
			Subject:    subject,
			Date:       date,
		},
		Content: content,
	}
}

// TestOpen_CreatesSchema tests initialization of a fresh index
func TestOpen_CreatesSchema(t *testing.T) {
	ix := setupTestIndex(t)

	count, err := ix.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// TestOpen_Idempotent tests that an existing index is loaded, not
// recreated
func TestOpen_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "search_index")

	ix, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, ix.IndexDocument(testDocument("aaaa111122223333", "Kept", "still here", "2024-01-01T00:00:00Z")))
	require.NoError(t, ix.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "Reopening must load the existing index")
}

// TestOpen_ForeignSchemaFails tests that a schema mismatch is a fatal
// initialization failure
func TestOpen_ForeignSchemaFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "search_index")

	ix, err := Open(dir)
	require.NoError(t, err)
	_, err = ix.db.Exec(`DROP TABLE documents`)
	require.NoError(t, err)
	_, err = ix.db.Exec(`CREATE TABLE documents (id TEXT PRIMARY KEY, body TEXT)`)
	require.NoError(t, err)
	require.NoError(t, ix.Close())

	_, err = Open(dir)
	require.Error(t, err)
	var searchErr *SearchError
	assert.True(t, errors.As(err, &searchErr), "Schema mismatch should be a SearchError")
}

// TestIndexDocument_Upsert tests that re-indexing an id replaces the
// prior document
func TestIndexDocument_Upsert(t *testing.T) {
	ix := setupTestIndex(t)

	require.NoError(t, ix.IndexDocument(testDocument("dead000000000001", "Old Subject", "same body", "2024-03-01T00:00:00Z")))
	require.NoError(t, ix.IndexDocument(testDocument("dead000000000002", "Neighbor A", "other body", "2024-03-02T00:00:00Z")))
	require.NoError(t, ix.IndexDocument(testDocument("dead000000000003", "Neighbor B", "other body", "2024-03-03T00:00:00Z")))
	require.NoError(t, ix.IndexDocument(testDocument("dead000000000001", "New Subject", "same body", "2024-03-01T00:00:00Z")))

	count, err := ix.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count, "Upsert must not duplicate the document")

	results, err := ix.Search(Query{Text: "subject", Fields: []string{"subject"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "New Subject", results[0].Subject)

	// The old subject is no longer findable
	results, err = ix.Search(Query{Text: "old", Fields: []string{"subject"}})
	require.NoError(t, err)
	assert.Empty(t, results)
}

// TestIndexDocument_Validation tests required-field validation before
// any write
func TestIndexDocument_Validation(t *testing.T) {
	ix := setupTestIndex(t)

	tests := []struct {
		name   string
		record *store.Record
	}{
		{
			name:   "missing id",
			record: testDocument("", "Subject", "content", "2024-01-01T00:00:00Z"),
		},
		{
			name:   "missing content",
			record: testDocument("beef000000000001", "Subject", "", "2024-01-01T00:00:00Z"),
		},
		{
			name:   "missing metadata",
			record: &store.Record{ID: "beef000000000002", Content: "content"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ix.IndexDocument(tt.record)
			require.Error(t, err)

			var validationErr *ValidationError
			assert.True(t, errors.As(err, &validationErr), "Error should be a ValidationError")
		})
	}

	// No partial writes happened
	count, err := ix.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
