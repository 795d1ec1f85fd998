package mailer

import (
	"bytes"
	"context"
	"errors"
	texttemplate "text/template"
)

// Mailer renders a template and hands the result to a Sender.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	config   Config
}

// New creates a Mailer.
func New(sender Sender, renderer *Renderer, cfg Config) *Mailer {
	return &Mailer{sender: sender, renderer: renderer, config: cfg}
}

// SendParams describes one templated send.
// Subject resolution order: Subject field, template front matter,
// config fallback. The resolved subject is itself executed as a
// template so it can reference Data fields.
type SendParams struct {
	Data     any
	To       string
	Template string
	Subject  string
	Layout   string
	From     string
	ReplyTo  string
	BCC      []string
}

// Send renders params.Template and delivers the email.
func (m *Mailer) Send(ctx context.Context, params SendParams) error {
	if params.To == "" && len(params.BCC) == 0 {
		return ErrNoRecipient
	}

	layout := params.Layout
	if layout == "" {
		layout = m.config.DefaultLayout
	}

	result, err := m.renderer.Render(layout, params.Template, params.Data)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	subject := params.Subject
	if subject == "" {
		if s, ok := result.Metadata["Subject"].(string); ok {
			subject = s
		} else {
			subject = m.config.FallbackSubject
		}
	}
	subject, err = executeSubject(subject, params.Data)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	email := &Email{
		Subject: subject,
		HTML:    result.HTML,
		Text:    result.Text,
		From:    params.From,
		ReplyTo: params.ReplyTo,
		BCC:     params.BCC,
	}
	if params.To != "" {
		email.To = []string{params.To}
	}

	if err := m.sender.Send(ctx, email); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func executeSubject(subject string, data any) (string, error) {
	tmpl, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
