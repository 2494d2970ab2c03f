package index

// Search documents live in a plain table keyed by record id, with an
// external-content FTS5 table over the four text fields. Triggers keep
// the FTS index in sync, so a single upsert statement is the whole
// write path and no partially indexed document is ever observable.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    sender TEXT NOT NULL,
    recipients TEXT NOT NULL,
    subject TEXT NOT NULL,
    content TEXT NOT NULL,
    date TEXT NOT NULL
);

-- Full-text search virtual table
CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
    sender,
    recipients,
    subject,
    content,
    content='documents'
);

-- Triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
    INSERT INTO documents_fts(rowid, sender, recipients, subject, content)
    VALUES (new.rowid, new.sender, new.recipients, new.subject, new.content);
END;

CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
    INSERT INTO documents_fts(documents_fts, rowid, sender, recipients, subject, content)
    VALUES ('delete', old.rowid, old.sender, old.recipients, old.subject, old.content);
END;

CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE ON documents BEGIN
    INSERT INTO documents_fts(documents_fts, rowid, sender, recipients, subject, content)
    VALUES ('delete', old.rowid, old.sender, old.recipients, old.subject, old.content);
    INSERT INTO documents_fts(rowid, sender, recipients, subject, content)
    VALUES (new.rowid, new.sender, new.recipients, new.subject, new.content);
END;

-- Index for date range filters
CREATE INDEX IF NOT EXISTS idx_documents_date ON documents(date);
`

// expectedColumns is the column set of the documents table, used to
// verify that an existing index directory belongs to this schema.
var expectedColumns = []string{"id", "sender", "recipients", "subject", "content", "date"}
