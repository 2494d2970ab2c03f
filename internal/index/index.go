// Package index maintains the full-text search index over processed
// email records. SQLite's FTS5 engine supplies tokenization and
// ranking; this package owns the schema, the upsert contract and query
// construction.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/felo/inboxforge/internal/store"
)

const dbFileName = "index.db"

// SearchError wraps an index initialization, write or query failure.
type SearchError struct {
	Op  string
	Err error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search index %s: %v", e.Op, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// ValidationError reports malformed or incomplete data presented to the
// index, before anything is written or queried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Index is the search index over processed records.
type Index struct {
	db  *sql.DB
	dir string
}

// Open initializes the index at dir. A missing directory is created
// with a fresh schema; an existing one is loaded and its stored schema
// verified against the expected one, any mismatch being a fatal
// initialization failure. Open is idempotent.
func Open(dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &SearchError{Op: "init", Err: err}
	}

	sqlDB, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, &SearchError{Op: "init", Err: err}
	}

	// Single connection: SQLite works best this way and it serializes
	// the index write path.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	ix := &Index{db: sqlDB, dir: dir}
	if err := ix.initSchema(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return ix, nil
}

func (ix *Index) initSchema() error {
	var name string
	err := ix.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'documents'`,
	).Scan(&name)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := ix.db.Exec(schema); err != nil {
			return &SearchError{Op: "create schema", Err: err}
		}
		return nil
	case err != nil:
		return &SearchError{Op: "init", Err: err}
	default:
		return ix.verifySchema()
	}
}

// verifySchema checks that an existing documents table carries exactly
// the expected columns and that the FTS table is present.
func (ix *Index) verifySchema() error {
	rows, err := ix.db.Query(`PRAGMA table_info(documents)`)
	if err != nil {
		return &SearchError{Op: "verify schema", Err: err}
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, columnType string
			defaultValue     sql.NullString
		)
		if err := rows.Scan(&cid, &name, &columnType, &notNull, &defaultValue, &pk); err != nil {
			return &SearchError{Op: "verify schema", Err: err}
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return &SearchError{Op: "verify schema", Err: err}
	}

	if strings.Join(columns, ",") != strings.Join(expectedColumns, ",") {
		return &SearchError{Op: "verify schema", Err: fmt.Errorf(
			"documents table has columns [%s], expected [%s]",
			strings.Join(columns, " "), strings.Join(expectedColumns, " "))}
	}

	var ftsName string
	err = ix.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'documents_fts'`,
	).Scan(&ftsName)
	if errors.Is(err, sql.ErrNoRows) {
		return &SearchError{Op: "verify schema", Err: fmt.Errorf("documents_fts table missing")}
	}
	if err != nil {
		return &SearchError{Op: "verify schema", Err: err}
	}
	return nil
}

// IndexDocument adds or updates a record in the index. Writes are
// upserts keyed by id: re-indexing an id replaces its prior document.
func (ix *Index) IndexDocument(record *store.Record) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	date, err := normalizeDate(record.Metadata.Date)
	if err != nil {
		return &ValidationError{Reason: fmt.Sprintf("unparseable record date %q", record.Metadata.Date)}
	}

	_, err = ix.db.Exec(`
		INSERT INTO documents (id, sender, recipients, subject, content, date)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sender = excluded.sender,
			recipients = excluded.recipients,
			subject = excluded.subject,
			content = excluded.content,
			date = excluded.date
	`, record.ID,
		record.Metadata.Sender,
		strings.Join(record.Metadata.Recipients, " "),
		record.Metadata.Subject,
		record.Content,
		date,
	)
	if err != nil {
		return &SearchError{Op: "index", Err: err}
	}
	return nil
}

func validateRecord(record *store.Record) error {
	var missing []string
	if record.ID == "" {
		missing = append(missing, "id")
	}
	if metadataEmpty(record.Metadata) {
		missing = append(missing, "metadata")
	}
	if record.Content == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return &ValidationError{Reason: "missing required fields: " + strings.Join(missing, ", ")}
	}
	return nil
}

// metadataEmpty is what a missing metadata object looks like after
// decoding into a struct.
func metadataEmpty(m store.Metadata) bool {
	return m.Sender == "" && m.Subject == "" && m.Date == "" && len(m.Recipients) == 0
}

// normalizeDate converts a record's ISO-8601 date to UTC RFC3339 so
// that string comparison in SQL orders by time.
func normalizeDate(value string) (string, error) {
	date, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "", err
	}
	return date.UTC().Format(time.RFC3339), nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count() (int, error) {
	var count int
	if err := ix.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, &SearchError{Op: "count", Err: err}
	}
	return count, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}
