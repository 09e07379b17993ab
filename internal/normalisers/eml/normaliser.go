// Package eml extracts text from RFC 822 email messages.
package eml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/normalisers/html"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles .eml files.
type Normaliser struct {
	html *html.Normaliser
}

// New creates a new email normaliser.
func New() *Normaliser {
	return &Normaliser{html: html.New()}
}

// Format returns "eml".
func (n *Normaliser) Format() string {
	return "eml"
}

// Extensions returns the email file extensions.
func (n *Normaliser) Extensions() []string {
	return []string{".eml"}
}

// Normalise renders the subject as a heading, followed by the From, To and
// Date lines and the message body. Plain text parts win over HTML parts;
// attachments are skipped.
func (n *Normaliser) Normalise(ctx context.Context, data []byte) (*driven.NormaliseResult, error) {
	mr, err := mail.CreateReader(bytes.NewReader(data))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("%w: parse email: %v", domain.ErrUnsupportedType, err)
	}
	defer mr.Close()

	var plain, htmlParts []string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("%w: read part: %v", domain.ErrUnsupportedType, err)
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		mediaType, _, err := h.ContentType()
		if err != nil || mediaType == "" {
			mediaType = "text/plain"
		}
		if mediaType != "text/plain" && mediaType != "text/html" {
			continue
		}

		body, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", domain.ErrUnsupportedType, err)
		}
		text := strings.ToValidUTF8(string(body), "\uFFFD")

		if mediaType == "text/html" {
			res, err := n.html.Normalise(ctx, []byte(text))
			if err != nil {
				return nil, err
			}
			htmlParts = append(htmlParts, res.Content)
			continue
		}
		plain = append(plain, text)
	}

	parts := plain
	if len(parts) == 0 {
		parts = htmlParts
	}

	subject := headerText(&mr.Header, "Subject")

	var b strings.Builder
	if subject != "" {
		b.WriteString("# " + subject + "\n\n")
	}
	wroteMeta := false
	for _, key := range []string{"From", "To", "Date"} {
		if v := headerText(&mr.Header, key); v != "" {
			b.WriteString(key + ": " + v + "\n")
			wroteMeta = true
		}
	}
	if wroteMeta {
		b.WriteString("\n")
	}
	for _, p := range parts {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\r\n", "\n"))
		if p == "" {
			continue
		}
		b.WriteString(p + "\n\n")
	}

	return &driven.NormaliseResult{
		Title:   subject,
		Content: strings.TrimSpace(b.String()),
	}, nil
}

// headerText decodes RFC 2047 encoded words. Undecodable values are
// returned raw.
func headerText(h *mail.Header, key string) string {
	v, err := h.Text(key)
	if err != nil {
		return strings.TrimSpace(h.Get(key))
	}
	return strings.TrimSpace(v)
}
