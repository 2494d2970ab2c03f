package index

import (
	"fmt"
	"strings"
	"time"
)

// SearchableFields are the field names a query may be scoped to.
var SearchableFields = []string{"subject", "content", "sender", "recipients"}

// DefaultMaxResults caps result sets when the caller does not set an
// explicit limit.
const DefaultMaxResults = 100

// Query describes one search. Zero values mean: match everything, all
// fields, no date bounds, default result cap.
type Query struct {
	// Text holds the search terms. Empty matches every document.
	Text string
	// Fields restricts text matching to a subset of SearchableFields.
	Fields []string
	// From and To bound the document date; either side may be nil for
	// a half-open range.
	From *time.Time
	To   *time.Time
	// MaxResults caps the result set; 0 means DefaultMaxResults.
	MaxResults int
}

// Result is one matched document. Content is not retrievable; Snippet
// carries a highlighted fragment of it when the query had search terms.
type Result struct {
	ID         string
	Sender     string
	Recipients string
	Subject    string
	Date       time.Time
	Snippet    string
}

// Search runs a field-scoped, date-bounded text query. Terms are ANDed
// together, each term matching in any of the selected fields.
func (ix *Index) Search(q Query) ([]Result, error) {
	fields, err := selectFields(q.Fields)
	if err != nil {
		return nil, err
	}

	limit := q.MaxResults
	if limit == 0 {
		limit = DefaultMaxResults
	}
	if limit < 0 {
		return nil, &ValidationError{Reason: fmt.Sprintf("negative result cap %d", q.MaxResults)}
	}

	var conditions []string
	var args []interface{}

	text := strings.TrimSpace(q.Text)
	if text != "" {
		conditions = append(conditions, "documents_fts MATCH ?")
		args = append(args, buildMatchExpr(text, fields))
	}
	if q.From != nil {
		conditions = append(conditions, "d.date >= ?")
		args = append(args, q.From.UTC().Format(time.RFC3339))
	}
	if q.To != nil {
		conditions = append(conditions, "d.date <= ?")
		args = append(args, q.To.UTC().Format(time.RFC3339))
	}

	sqlQuery := `SELECT d.id, d.sender, d.recipients, d.subject, d.date`
	if text != "" {
		sqlQuery += `,
			snippet(documents_fts, 3, '<mark>', '</mark>', '...', 32) AS snippet
		FROM documents d
		JOIN documents_fts ON d.rowid = documents_fts.rowid
		`
	} else {
		sqlQuery += `, '' AS snippet
		FROM documents d
		`
	}

	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	// FTS5 rank orders text matches; pure date/match-all queries come
	// back newest first.
	if text != "" {
		sqlQuery += " ORDER BY rank"
	} else {
		sqlQuery += " ORDER BY d.date DESC"
	}

	sqlQuery += " LIMIT ?"
	args = append(args, limit)

	rows, err := ix.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, &SearchError{Op: "query", Err: err}
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var result Result
		var date string
		if err := rows.Scan(&result.ID, &result.Sender, &result.Recipients,
			&result.Subject, &date, &result.Snippet); err != nil {
			return nil, &SearchError{Op: "scan result", Err: err}
		}
		if result.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return nil, &SearchError{Op: "scan result", Err: err}
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, &SearchError{Op: "query", Err: err}
	}

	return results, nil
}

// selectFields validates an explicit field subset, defaulting to all
// searchable fields.
func selectFields(fields []string) ([]string, error) {
	if len(fields) == 0 {
		return SearchableFields, nil
	}

	valid := make(map[string]bool, len(SearchableFields))
	for _, f := range SearchableFields {
		valid[f] = true
	}
	for _, f := range fields {
		if !valid[f] {
			return nil, &ValidationError{Reason: fmt.Sprintf("invalid search field %q", f)}
		}
	}
	return fields, nil
}

// buildMatchExpr builds the FTS5 MATCH expression: every term must
// match, each in any of the selected fields.
// Example: {subject content} : "quarterly" AND {subject content} : "report"
func buildMatchExpr(text string, fields []string) string {
	scope := "{" + strings.Join(fields, " ") + "}"

	terms := strings.Fields(text)
	clauses := make([]string, len(terms))
	for i, term := range terms {
		// Escape embedded quotes for the FTS5 string syntax
		term = strings.ReplaceAll(term, `"`, `""`)
		clauses[i] = fmt.Sprintf(`%s : "%s"`, scope, term)
	}
	return strings.Join(clauses, " AND ")
}
