package parser

import "time"

// ParsedEmail represents a parsed email with all its components
type ParsedEmail struct {
	ID          string
	Sender      string
	Recipients  []string
	Subject     string
	Date        time.Time
	BodyText    string
	BodyHTML    string
	Attachments []ParsedAttachment
}

// ParsedAttachment represents an email attachment
type ParsedAttachment struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// Defaults holds the fallback values substituted when header or body
// extraction comes up empty. Injected at construction so tests can
// override individual values.
type Defaults struct {
	Subject    string
	Sender     string
	Recipients []string
	Body       string
}

// DefaultValues returns the standard fallback table.
func DefaultValues() Defaults {
	return Defaults{
		Subject:    "[No Subject]",
		Sender:     "[No Sender]",
		Recipients: []string{"[No Recipients]"},
		Body:       "[Could not extract email body]",
	}
}
