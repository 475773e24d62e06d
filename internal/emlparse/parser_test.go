package emlparse

import (
	"errors"
	"testing"

	"github.com/mikey/sender-protect/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFileName(t *testing.T) {
	for _, name := range []string{"msg.eml", "MSG.EML", "a.b.Eml", ".eml"} {
		assert.NoError(t, ValidateFileName(name), name)
	}
	for _, name := range []string{"msg.txt", "msg.eml.txt", "eml", "msg.emlx", "", "msg.em"} {
		err := ValidateFileName(name)
		assert.True(t, errors.Is(err, ErrNotEML), name)
	}
}

func TestParseLineEndings(t *testing.T) {
	cases := map[string]string{
		"lf":    "From: alice@example.com\nTo: bob@example.com\nSubject: Lunch?\n\nAre you free at noon?\n",
		"crlf":  "From: alice@example.com\r\nTo: bob@example.com\r\nSubject: Lunch?\r\n\r\nAre you free at noon?\r\n",
		"mixed": "From: alice@example.com\r\nTo: bob@example.com\nSubject: Lunch?\r\n\nAre you free at noon?",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			e := Parse(text)
			assert.Equal(t, "alice@example.com", e.From)
			assert.Equal(t, "Lunch?", e.Subject)
			assert.Equal(t, "Are you free at noon?", e.Body)
			assert.Equal(t, "Lunch?\n\nAre you free at noon?", e.Content())
		})
	}
}

func TestParseCaseInsensitiveAndLastWins(t *testing.T) {
	text := "FROM: first@example.com\nsubject: one\n  from:   second@example.com  \nSUBJECT:two\n\nbody"

	e := Parse(text)

	assert.Equal(t, "second@example.com", e.From)
	assert.Equal(t, "two", e.Subject)
}

func TestParseBodyKeepsLaterParagraphs(t *testing.T) {
	text := "From: a@b.c\r\n\r\nfirst paragraph\r\n\r\nsecond paragraph\n\n"

	e := Parse(text)

	assert.Equal(t, "first paragraph\n\nsecond paragraph", e.Body)
	assert.Equal(t, "From: a@b.c", e.RawHeaders)
}

func TestParseWithoutBlankLine(t *testing.T) {
	e := Parse("From: a@b.c\nSubject: hi")

	assert.Equal(t, "a@b.c", e.From)
	assert.Equal(t, "hi", e.Subject)
	assert.Empty(t, e.Body)
	assert.Equal(t, "hi\n\n", e.Content())
}

func TestParseIgnoresLookalikeHeaders(t *testing.T) {
	e := Parse("X-Original-From: spoof@evil.test\nReply-To: r@b.c\n\nbody")

	assert.Empty(t, e.From)
	assert.Empty(t, e.Subject)
	assert.Equal(t, "body", e.Content())
}

func TestAutofillKeepsManualEntryWhenMissing(t *testing.T) {
	s := form.New()
	require.NoError(t, s.SetField(form.FieldSenderEmail, "manual@example.com"))
	require.NoError(t, s.SetField(form.FieldEmailContent, "typed content"))

	Autofill(s, Parse("To: bob@example.com\n\n"))

	d := s.Data()
	assert.Equal(t, "manual@example.com", d.SenderEmail)
	assert.Equal(t, "typed content", d.EmailContent)
	assert.Equal(t, "To: bob@example.com", d.RawHeaders)
}

func TestAutofillOverwritesWhenFound(t *testing.T) {
	s := form.New()
	require.NoError(t, s.SetField(form.FieldSenderEmail, "manual@example.com"))
	require.NoError(t, s.SetField(form.FieldUseEnhanced, "true"))

	Autofill(s, Parse("From: promo@deals.test\nSubject: WIN\n\nclaim now"))

	d := s.Data()
	assert.Equal(t, "promo@deals.test", d.SenderEmail)
	assert.Equal(t, "WIN\n\nclaim now", d.EmailContent)
	assert.True(t, d.UseEnhanced)
}

func TestDecodeFile(t *testing.T) {
	plain, err := DecodeFile([]byte("From: a@b.c\n\nhi"))
	require.NoError(t, err)
	assert.Equal(t, "From: a@b.c\n\nhi", plain)

	bom, err := DecodeFile(append([]byte{0xEF, 0xBB, 0xBF}, []byte("From: a@b.c")...))
	require.NoError(t, err)
	assert.Equal(t, "From: a@b.c", bom)

	// "Hi" as UTF-16LE with a byte order mark
	utf16, err := DecodeFile([]byte{0xFF, 0xFE, 'H', 0x00, 'i', 0x00})
	require.NoError(t, err)
	assert.Equal(t, "Hi", utf16)
}

func TestDecodeHeader(t *testing.T) {
	assert.Equal(t, "Café offer", DecodeHeader("=?UTF-8?Q?Caf=C3=A9_offer?="))
	assert.Equal(t, "plain subject", DecodeHeader("plain subject"))
}
