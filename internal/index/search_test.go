package index

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(value string) *time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &d
}

// TestSearch_FieldScoped tests that a field-scoped query only matches
// within the selected fields
func TestSearch_FieldScoped(t *testing.T) {
	ix := setupTestIndex(t)

	require.NoError(t, ix.IndexDocument(testDocument("1111000000000001", "Quarterly Report", "lunch menu attached", "2024-01-10T00:00:00Z")))
	require.NoError(t, ix.IndexDocument(testDocument("1111000000000002", "Lunch Plans", "quarterly numbers attached", "2024-01-11T00:00:00Z")))

	results, err := ix.Search(Query{Text: "Quarterly", Fields: []string{"subject"}})
	require.NoError(t, err)

	require.Len(t, results, 1, "Only the subject match should be returned")
	assert.Equal(t, "1111000000000001", results[0].ID)

	// The same term across all fields finds both
	results, err = ix.Search(Query{Text: "Quarterly"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

// TestSearch_TermsAreANDed tests multi-term queries
func TestSearch_TermsAreANDed(t *testing.T) {
	ix := setupTestIndex(t)

	require.NoError(t, ix.IndexDocument(testDocument("2222000000000001", "Project Meeting", "agenda for the project meeting", "2024-02-01T00:00:00Z")))
	require.NoError(t, ix.IndexDocument(testDocument("2222000000000002", "Project Update", "status only", "2024-02-02T00:00:00Z")))

	results, err := ix.Search(Query{Text: "project meeting"})
	require.NoError(t, err)

	require.Len(t, results, 1, "Both terms must match")
	assert.Equal(t, "2222000000000001", results[0].ID)
}

// TestSearch_CrossFieldAND tests that different terms may match in
// different fields of the same document
func TestSearch_CrossFieldAND(t *testing.T) {
	ix := setupTestIndex(t)

	require.NoError(t, ix.IndexDocument(testDocument("3333000000000001", "Budget", "please review the forecast", "2024-02-01T00:00:00Z")))

	results, err := ix.Search(Query{Text: "budget forecast"})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "3333000000000001", results[0].ID)
}

// TestSearch_DateRange tests date-bounded queries with an empty text
// query
func TestSearch_DateRange(t *testing.T) {
	ix := setupTestIndex(t)

	require.NoError(t, ix.IndexDocument(testDocument("4444000000000001", "New Year", "january email", "2024-01-01T09:00:00Z")))
	require.NoError(t, ix.IndexDocument(testDocument("4444000000000002", "Midsummer", "june email", "2024-06-15T09:00:00Z")))
	require.NoError(t, ix.IndexDocument(testDocument("4444000000000003", "New Year's Eve", "december email", "2024-12-31T09:00:00Z")))

	results, err := ix.Search(Query{From: date("2024-02-01"), To: date("2024-07-01")})
	require.NoError(t, err)

	require.Len(t, results, 1, "Only the mid-range document should match")
	assert.Equal(t, "4444000000000002", results[0].ID)
	assert.Equal(t, "Midsummer", results[0].Subject)
}

// TestSearch_HalfOpenDateRange tests ranges with one unspecified bound
func TestSearch_HalfOpenDateRange(t *testing.T) {
	ix := setupTestIndex(t)

	require.NoError(t, ix.IndexDocument(testDocument("5555000000000001", "Early", "early", "2024-01-01T09:00:00Z")))
	require.NoError(t, ix.IndexDocument(testDocument("5555000000000002", "Late", "late", "2024-12-31T09:00:00Z")))

	results, err := ix.Search(Query{From: date("2024-06-01")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Late", results[0].Subject)

	results, err = ix.Search(Query{To: date("2024-06-01")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Early", results[0].Subject)
}

// TestSearch_TextAndDateCombined tests that a date range ANDs with the
// text query
func TestSearch_TextAndDateCombined(t *testing.T) {
	ix := setupTestIndex(t)

	require.NoError(t, ix.IndexDocument(testDocument("6666000000000001", "Invoice March", "invoice attached", "2024-03-01T00:00:00Z")))
	require.NoError(t, ix.IndexDocument(testDocument("6666000000000002", "Invoice October", "invoice attached", "2024-10-01T00:00:00Z")))

	results, err := ix.Search(Query{Text: "invoice", To: date("2024-06-01")})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Invoice March", results[0].Subject)
}

// TestSearch_EmptyQueryMatchesAll tests that an empty query returns
// every document, newest first
func TestSearch_EmptyQueryMatchesAll(t *testing.T) {
	ix := setupTestIndex(t)

	require.NoError(t, ix.IndexDocument(testDocument("7777000000000001", "Older", "first", "2024-01-01T00:00:00Z")))
	require.NoError(t, ix.IndexDocument(testDocument("7777000000000002", "Newer", "second", "2024-05-01T00:00:00Z")))

	results, err := ix.Search(Query{})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Newer", results[0].Subject)
	assert.Equal(t, "Older", results[1].Subject)
}

// TestSearch_RecipientsSearchable tests that the joined recipients
// string is matched
func TestSearch_RecipientsSearchable(t *testing.T) {
	ix := setupTestIndex(t)

	record := testDocument("8888000000000001", "Hello", "body text", "2024-04-01T00:00:00Z")
	record.Metadata.Recipients = []string{"alice@corp.example", "bob@corp.example"}
	require.NoError(t, ix.IndexDocument(record))

	results, err := ix.Search(Query{Text: "bob", Fields: []string{"recipients"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "8888000000000001", results[0].ID)
}

// TestSearch_Snippet tests that text matches carry a highlighted
// content snippet
func TestSearch_Snippet(t *testing.T) {
	ix := setupTestIndex(t)

	require.NoError(t, ix.IndexDocument(testDocument("9999000000000001", "Notes",
		"the meeting covered the roadmap and the meeting notes were shared", "2024-04-01T00:00:00Z")))

	results, err := ix.Search(Query{Text: "meeting", Fields: []string{"content"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Snippet, "<mark>")
	assert.Contains(t, results[0].Snippet, "</mark>")
}

// TestSearch_InvalidField tests field-name validation
func TestSearch_InvalidField(t *testing.T) {
	ix := setupTestIndex(t)

	_, err := ix.Search(Query{Text: "anything", Fields: []string{"body"}})
	require.Error(t, err)

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

// TestSearch_NegativeCap tests result-cap validation
func TestSearch_NegativeCap(t *testing.T) {
	ix := setupTestIndex(t)

	_, err := ix.Search(Query{MaxResults: -1})
	require.Error(t, err)

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

// TestSearch_ResultCap tests that the cap limits results
func TestSearch_ResultCap(t *testing.T) {
	ix := setupTestIndex(t)

	for i := 0; i < 5; i++ {
		id := string(rune('a'+i)) + "aaa000000000000"
		require.NoError(t, ix.IndexDocument(testDocument(id, "Bulk", "bulk content", "2024-01-01T00:00:00Z")))
	}

	results, err := ix.Search(Query{Text: "bulk", MaxResults: 3})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}
