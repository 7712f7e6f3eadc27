package syncer

import (
	"fmt"
	"strings"
	"text/template"

	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
)

// MessageData is what a commit message template can reference.
type MessageData struct {
	Timestamp string
	Branch    string
	Host      string
}

// MessageTemplate renders commit messages.
type MessageTemplate struct {
	text string
	tmpl *template.Template
}

// ParseMessageTemplate compiles text. Errors wrap ErrInvalidTemplate.
func ParseMessageTemplate(text string) (*MessageTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("message template is empty: %w", autosyncerrors.ErrInvalidTemplate)
	}
	t, err := template.New("message").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", autosyncerrors.ErrInvalidTemplate, err)
	}
	return &MessageTemplate{text: text, tmpl: t}, nil
}

// String returns the template source.
func (m *MessageTemplate) String() string {
	return m.text
}

// Render executes the template. Surrounding whitespace is trimmed and an
// empty result is an error, since git refuses empty messages.
func (m *MessageTemplate) Render(data MessageData) (string, error) {
	var b strings.Builder
	if err := m.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("%w: %w", autosyncerrors.ErrInvalidTemplate, err)
	}
	msg := strings.TrimSpace(b.String())
	if msg == "" {
		return "", fmt.Errorf("message template rendered an empty message: %w", autosyncerrors.ErrInvalidTemplate)
	}
	return msg, nil
}
