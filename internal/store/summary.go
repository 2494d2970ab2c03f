package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/felo/inboxforge/internal/logging"
)

// Summary is the running overview of everything processed so far. It is
// the only store object mutated after creation: each processed record
// appends an entry and bumps the counters, and the file is rewritten in
// full on every update.
type Summary struct {
	TotalEmails int            `json:"total_emails"`
	LastUpdated string         `json:"last_updated"`
	Emails      []SummaryEntry `json:"emails"`
}

// SummaryEntry is the lightweight per-email index entry.
type SummaryEntry struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
}

func (s *RecordStore) summaryPath() string {
	return filepath.Join(s.processedDir, "email_summary.json")
}

// ReadSummary loads the summary, creating a zero-value default on first
// access. A corrupt summary file is not fatal: the store logs the
// condition and falls back to a fresh default, trading history for
// availability.
func (s *RecordStore) ReadSummary() (*Summary, error) {
	data, err := os.ReadFile(s.summaryPath())
	if err != nil {
		if os.IsNotExist(err) {
			return s.createDefaultSummary()
		}
		logging.Log.WithError(err).Warn("Could not read summary file, starting fresh")
		return s.createDefaultSummary()
	}

	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		logging.Log.WithError(err).Warn("Summary file corrupt, starting fresh")
		return s.createDefaultSummary()
	}
	return &summary, nil
}

// AppendToSummary increments the count, refreshes the timestamp and
// appends a lightweight entry for the record.
func (s *RecordStore) AppendToSummary(record *Record) error {
	summary, err := s.ReadSummary()
	if err != nil {
		return err
	}

	summary.TotalEmails++
	summary.LastUpdated = time.Now().Format(time.RFC3339)
	summary.Emails = append(summary.Emails, SummaryEntry{
		ID:      record.ID,
		Subject: record.Metadata.Subject,
		Date:    record.Metadata.Date,
	})

	return s.writeSummary(summary)
}

func (s *RecordStore) createDefaultSummary() (*Summary, error) {
	summary := &Summary{
		TotalEmails: 0,
		LastUpdated: time.Now().Format(time.RFC3339),
		Emails:      []SummaryEntry{},
	}
	if err := s.writeSummary(summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *RecordStore) writeSummary(summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return &StorageError{Op: "marshal", Path: s.summaryPath(), Err: err}
	}
	if err := os.WriteFile(s.summaryPath(), data, 0644); err != nil {
		return &StorageError{Op: "write", Path: s.summaryPath(), Err: err}
	}
	return nil
}
