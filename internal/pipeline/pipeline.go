// Package pipeline orchestrates ingestion: parse, dedup gate,
// attachment and record persistence, summary update, index write. Files
// are processed strictly sequentially; every record's durable side
// effects are committed before the next file begins, so an interrupted
// batch can simply be re-run and already-processed ids come back as
// duplicates.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-mbox"

	"github.com/felo/inboxforge/internal/dedup"
	"github.com/felo/inboxforge/internal/index"
	"github.com/felo/inboxforge/internal/logging"
	"github.com/felo/inboxforge/internal/parser"
	"github.com/felo/inboxforge/internal/store"
)

// Status is the per-file outcome.
type Status int

const (
	StatusIngested Status = iota
	StatusDuplicate
	StatusFailed
)

// Result contains statistics about an ingestion batch
type Result struct {
	TotalFound  int
	Ingested    int
	Duplicates  int
	Failed      int
	FailedFiles []string
}

// Pipeline wires the ingestion components together.
type Pipeline struct {
	parser      *parser.Parser
	dedup       dedup.Store
	attachments *store.AttachmentStore
	records     *store.RecordStore
	index       *index.Index
	includeHTML bool
}

// New creates a pipeline over the given components.
func New(p *parser.Parser, d dedup.Store, attachments *store.AttachmentStore,
	records *store.RecordStore, ix *index.Index, includeHTML bool) *Pipeline {
	return &Pipeline{
		parser:      p,
		dedup:       d,
		attachments: attachments,
		records:     records,
		index:       ix,
		includeHTML: includeHTML,
	}
}

// Run processes the given files one at a time. A failed file is counted
// and logged; it never aborts the batch.
func (p *Pipeline) Run(files []string) *Result {
	result := &Result{
		TotalFound:  len(files),
		FailedFiles: make([]string, 0),
	}

	for i, path := range files {
		logging.Log.WithFields(map[string]interface{}{
			"file": filepath.Base(path),
			"n":    i + 1,
			"of":   result.TotalFound,
		}).Info("Processing email")

		status, err := p.ProcessFile(path)
		result.record(status, path)
		if err != nil {
			logging.Log.WithError(err).WithField("file", path).Error("Failed to process email")
		}
	}

	return result
}

// ProcessFile runs one .eml file through the pipeline.
func (p *Pipeline) ProcessFile(path string) (Status, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return p.Process(raw, filepath.Base(path))
}

// Process runs one raw message through parse, dedup, persistence and
// indexing. originalName is recorded in the result's metadata.
//
// The id is registered in the dedup log before the record is written.
// A storage failure after the gate leaves the id logged with no record,
// and re-ingesting those bytes reports Duplicate; recovery is removing
// the id line from the log.
func (p *Pipeline) Process(raw []byte, originalName string) (Status, error) {
	parsed, err := p.parser.Parse(raw)
	if err != nil {
		return StatusFailed, err
	}

	outcome, err := p.dedup.CheckAndRegister(parsed.ID)
	if err != nil {
		return StatusFailed, err
	}
	if outcome == dedup.Duplicate {
		logging.Log.WithField("id", parsed.ID).Debug("Skipping duplicate email")
		return StatusDuplicate, nil
	}

	record := p.buildRecord(parsed, originalName)

	for _, att := range parsed.Attachments {
		location, err := p.attachments.Save(record.ID, att.Filename, att.Data)
		if err != nil {
			return StatusFailed, err
		}
		record.Attachments = append(record.Attachments, store.AttachmentRef{
			Name:     att.Filename,
			Type:     att.ContentType,
			Size:     att.Size,
			Location: location,
		})
	}

	if err := p.records.Save(record); err != nil {
		return StatusFailed, err
	}

	// A summary update failure costs history, not the record itself.
	if err := p.records.AppendToSummary(record); err != nil {
		logging.Log.WithError(err).WithField("id", record.ID).Warn("Failed to update summary")
	}

	if err := p.index.IndexDocument(record); err != nil {
		return StatusFailed, err
	}

	return StatusIngested, nil
}

// RunMbox feeds every message of an mbox archive through the pipeline.
// A message that cannot be read or processed is counted as failed and
// the archive continues; a broken archive structure stops the run with
// the partial result.
func (p *Pipeline) RunMbox(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mbox: %w", err)
	}
	defer f.Close()

	result := &Result{FailedFiles: make([]string, 0)}
	reader := mbox.NewReader(f)

	for idx := 0; ; idx++ {
		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return result, nil
			}
			return result, fmt.Errorf("failed to read mbox message %d: %w", idx, err)
		}

		name := fmt.Sprintf("%s#%d", filepath.Base(path), idx)
		result.TotalFound++

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			result.record(StatusFailed, name)
			logging.Log.WithError(err).WithField("message", name).Error("Failed to read mbox message")
			continue
		}

		status, err := p.Process(raw, name)
		result.record(status, name)
		if err != nil {
			logging.Log.WithError(err).WithField("message", name).Error("Failed to process mbox message")
		}
	}
}

func (p *Pipeline) buildRecord(parsed *parser.ParsedEmail, originalName string) *store.Record {
	content := parsed.BodyText
	if p.includeHTML && parsed.BodyHTML != "" {
		content = content + "\n\n" + parsed.BodyHTML
	}

	return &store.Record{
		ID: parsed.ID,
		Metadata: store.Metadata{
			Sender:       parsed.Sender,
			Recipients:   parsed.Recipients,
			Subject:      parsed.Subject,
			Date:         parsed.Date.Format(time.RFC3339),
			OriginalFile: originalName,
			ProcessedAt:  time.Now().Format(time.RFC3339),
		},
		Content:     content,
		Attachments: []store.AttachmentRef{},
	}
}

func (r *Result) record(status Status, name string) {
	switch status {
	case StatusIngested:
		r.Ingested++
	case StatusDuplicate:
		r.Duplicates++
	case StatusFailed:
		r.Failed++
		r.FailedFiles = append(r.FailedFiles, name)
	}
}
