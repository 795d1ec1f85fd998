package mailer

import "errors"

var (
	// ErrNoRecipient indicates the email had no To and no BCC address.
	ErrNoRecipient = errors.New("mailer: no recipient")

	// ErrTemplateNotFound indicates the template file was not found.
	ErrTemplateNotFound = errors.New("mailer: template not found")

	// ErrLayoutNotFound indicates the layout file was not found.
	ErrLayoutNotFound = errors.New("mailer: layout not found")

	// ErrRenderFailed indicates template rendering failed.
	ErrRenderFailed = errors.New("mailer: failed to render template")

	// ErrSendFailed indicates delivery failed.
	ErrSendFailed = errors.New("mailer: failed to send email")

	// ErrInvalidFrontmatter indicates malformed YAML front matter.
	ErrInvalidFrontmatter = errors.New("mailer: invalid frontmatter")
)
