// Package mailer turns queued mail messages into ready-to-send emails.
package mailer

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/shiftsync/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var kinds = map[string]struct {
	template string
	subject  string
}{
	domain.MailTypeClaimReviewed: {"claim_reviewed.html", "ShiftSync - shift request reviewed"},
	domain.MailTypeDropReviewed:  {"drop_reviewed.html", "ShiftSync - drop request reviewed"},
}

// ErrUnknownType is returned for message types without a template.
var ErrUnknownType = fmt.Errorf("unsupported mail type")

// Decode parses a queued message body.
func Decode(body []byte) (*domain.MailMessage, error) {
	msg := &domain.MailMessage{}
	if err := json.Unmarshal(body, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Build renders msg into a mail from the given sender.
func Build(from string, msg *domain.MailMessage) (*mail.Msg, error) {
	kind, ok := kinds[msg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, msg.Type)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, err
	}
	if err := m.To(msg.To); err != nil {
		return nil, err
	}
	m.Subject(kind.subject)

	if err := m.SetBodyHTMLTemplate(templates.Lookup(kind.template), msg.Data); err != nil {
		return nil, err
	}

	return m, nil
}
