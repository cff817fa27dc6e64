package core

import (
	"bytes"
	"net/mail"
	"text/template"

	"github.com/pkg/errors"
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated content
		TemplateStr  string
		TemplateData interface{}
		TextContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render resolves the message's final TextContent, either verbatim from
// BodyStr or by executing TemplateStr with the message's ContextData.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateStr == "" {
		return nil
	}

	tmpl, err := template.New("email").Parse(m.TemplateStr)
	if err != nil {
		return errors.Wrap(err, "parsing email template")
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ContextData{FrontendBaseURL: Conf.FrontendBaseURL, Data: m.TemplateData}); err != nil {
		return errors.Wrap(err, "executing email template")
	}
	m.TextContent = buf.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0 || len(m.Bcc) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.BodyStr != "" || m.TemplateStr != "" || m.TextContent != ""
}
