// Package emlparse reads user-selected .eml files and pulls the sender and
// subject out of the header block so the form can be pre-filled.
package emlparse

import (
	"errors"
	"fmt"
	"mime"
	"regexp"
	"strings"

	"github.com/emersion/go-message/charset"
	"github.com/mikey/sender-protect/internal/form"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Extension is the accepted message file suffix
const Extension = ".eml"

// ErrNotEML is returned for files without the .eml suffix
var ErrNotEML = errors.New("file is not an .eml message")

var (
	blankLine = regexp.MustCompile(`\r?\n\r?\n`)
	lineBreak = regexp.MustCompile(`\r?\n`)
)

// Extracted holds what the parser found in a message
type Extracted struct {
	From       string
	Subject    string
	Body       string
	RawHeaders string
}

// ValidateFileName accepts names ending in .eml, ignoring case
func ValidateFileName(name string) error {
	if !strings.HasSuffix(strings.ToLower(name), Extension) {
		return fmt.Errorf("%w: %q", ErrNotEML, name)
	}
	return nil
}

// DecodeFile reads raw file bytes as text. UTF-8 is assumed unless a
// byte order mark says UTF-16.
func DecodeFile(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("failed to decode message file: %w", err)
	}
	return string(out), nil
}

// Parse splits a message at the first blank line and scans the header block
// for From and Subject. Later header lines overwrite earlier ones.
func Parse(text string) Extracted {
	parts := blankLine.Split(text, -1)

	e := Extracted{
		RawHeaders: parts[0],
		Body:       strings.TrimSpace(strings.Join(parts[1:], "\n\n")),
	}

	for _, line := range lineBreak.Split(e.RawHeaders, -1) {
		l := strings.TrimSpace(line)
		if hasPrefixFold(l, "from:") {
			e.From = strings.TrimSpace(l[len("from:"):])
		} else if hasPrefixFold(l, "subject:") {
			e.Subject = strings.TrimSpace(l[len("subject:"):])
		}
	}

	return e
}

// Content is the text sent for classification: the subject, a blank line
// and the body, or the body alone without a subject.
func (e Extracted) Content() string {
	if e.Subject != "" {
		return e.Subject + "\n\n" + e.Body
	}
	return e.Body
}

// Autofill merges the non-empty extracted values into the form
func Autofill(s *form.State, e Extracted) {
	content := e.Content()
	s.Update(func(d *form.Data) {
		if e.From != "" {
			d.SenderEmail = e.From
		}
		if content != "" {
			d.EmailContent = content
		}
		if e.RawHeaders != "" {
			d.RawHeaders = e.RawHeaders
		}
	})
}

// DecodeHeader decodes RFC 2047 encoded words for display. The value is
// returned unchanged when it cannot be decoded.
func DecodeHeader(value string) string {
	dec := mime.WordDecoder{CharsetReader: charset.Reader}
	out, err := dec.DecodeHeader(value)
	if err != nil {
		return value
	}
	return out
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
