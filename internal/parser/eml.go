package parser

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/mail"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/charmap"

	"github.com/felo/inboxforge/internal/logging"
)

// htmlOnlyNotice replaces the plain-text body when a message carries
// only an HTML part.
const htmlOnlyNotice = "This email contains HTML content only."

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// ParseError reports unrecoverable structural corruption in a raw
// message. Field-level extraction problems never surface as errors;
// they degrade to the parser's default values instead.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse email: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Fingerprint derives the content id for a raw message: sha256 of the
// bytes, truncated to the first 16 hex characters. Distinct messages
// sharing a truncated hash are treated as identical downstream; the
// shorter id is an accepted trade-off against collision resistance.
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:16]
}

// Parser turns raw message bytes into a ParsedEmail.
type Parser struct {
	defaults Defaults

	// fallbackDate is fixed at construction, so every message in a run
	// that lacks a usable Date header shares the same timestamp.
	fallbackDate time.Time
}

// New creates a parser with the given fallback values.
func New(defaults Defaults) *Parser {
	return &Parser{
		defaults:     defaults,
		fallbackDate: time.Now(),
	}
}

// ParseFile reads and parses a single .eml file
func (p *Parser) ParseFile(path string) (*ParsedEmail, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return p.Parse(raw)
}

// Parse parses an email from its raw bytes
func (p *Parser) Parse(raw []byte) (*ParsedEmail, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, &ParseError{Err: err}
	}

	parsed := &ParsedEmail{
		ID:         Fingerprint(raw),
		Sender:     p.extractSender(entity.Header),
		Recipients: p.extractRecipients(entity.Header),
		Subject:    p.extractSubject(entity.Header),
		Date:       p.extractDate(entity.Header),
	}

	parts, err := collectLeafParts(entity)
	if err != nil {
		// Broken MIME structure below the top level: keep the headers
		// and fall back to the default body rather than failing the
		// whole message.
		logging.Log.WithError(err).WithField("id", parsed.ID).Warn("Body extraction failed")
		parsed.BodyText = p.defaults.Body
		return parsed, nil
	}

	for _, part := range parts {
		if part.filename != "" {
			parsed.Attachments = append(parsed.Attachments, ParsedAttachment{
				Filename:    part.filename,
				ContentType: part.mediaType,
				Size:        int64(len(part.data)),
				Data:        part.data,
			})
			continue
		}

		// Only unnamed text parts contribute to the body; any other
		// subtype without a filename is ignored.
		switch part.mediaType {
		case "text/plain":
			parsed.BodyText = decodeText(part.data)
		case "text/html":
			parsed.BodyHTML = decodeText(part.data)
		}
	}

	if parsed.BodyText == "" && parsed.BodyHTML != "" {
		parsed.BodyText = htmlOnlyNotice
	}

	return parsed, nil
}

func (p *Parser) extractSubject(h message.Header) string {
	if subject := decodeMIMEWord(h.Get("Subject")); subject != "" {
		return subject
	}
	return p.defaults.Subject
}

func (p *Parser) extractSender(h message.Header) string {
	if from := decodeMIMEWord(h.Get("From")); from != "" {
		return from
	}
	return p.defaults.Sender
}

// extractRecipients concatenates the To, Cc and Bcc header values,
// splitting each on commas and trimming whitespace.
func (p *Parser) extractRecipients(h message.Header) []string {
	var recipients []string
	for _, key := range []string{"To", "Cc", "Bcc"} {
		value := decodeMIMEWord(h.Get(key))
		if value == "" {
			continue
		}
		for _, addr := range strings.Split(value, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				recipients = append(recipients, addr)
			}
		}
	}

	if len(recipients) == 0 {
		return append([]string(nil), p.defaults.Recipients...)
	}
	return recipients
}

func (p *Parser) extractDate(h message.Header) time.Time {
	value := h.Get("Date")
	if value == "" {
		return p.fallbackDate
	}

	date, err := mail.ParseDate(value)
	if err != nil {
		logging.Log.WithField("date", value).Debug("Date parsing failed, using fallback")
		return p.fallbackDate
	}
	return date
}

// leafPart is one non-multipart node of the MIME tree, annotated with
// its declared content type and optional filename.
type leafPart struct {
	mediaType string
	filename  string
	data      []byte
}

// collectLeafParts flattens the MIME tree into its leaf parts. A
// non-multipart message yields a single leaf.
func collectLeafParts(e *message.Entity) ([]leafPart, error) {
	var parts []leafPart
	if err := walkEntity(e, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

func walkEntity(e *message.Entity, parts *[]leafPart) error {
	if mr := e.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil && !message.IsUnknownCharset(err) {
				return fmt.Errorf("failed to read part: %w", err)
			}
			// Each part's body must be consumed before the next call
			// to NextPart, so recurse immediately.
			if err := walkEntity(part, parts); err != nil {
				return err
			}
		}
	}

	mediaType, _, _ := e.Header.ContentType()
	data, err := io.ReadAll(e.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	*parts = append(*parts, leafPart{
		mediaType: mediaType,
		filename:  partFilename(e.Header),
		data:      data,
	})
	return nil
}

// partFilename returns the declared filename of a part, or "" if the
// part carries none.
func partFilename(h message.Header) string {
	if _, params, err := h.ContentDisposition(); err == nil {
		if name := params["filename"]; name != "" {
			return decodeMIMEWord(name)
		}
	}
	if _, params, err := h.ContentType(); err == nil {
		if name := params["name"]; name != "" {
			return decodeMIMEWord(name)
		}
	}
	return ""
}

// decodeText interprets payload bytes as UTF-8, falling back to
// Latin-1 when they are not valid UTF-8.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// decodeMIMEWord decodes MIME-encoded words (RFC 2047)
// Example: =?UTF-8?Q?Invitaci=C3=B3n?= -> Invitación
func decodeMIMEWord(s string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		// If decoding fails, return original string
		return s
	}
	return decoded
}
