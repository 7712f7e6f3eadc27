package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
)

func TestMessageTemplate(t *testing.T) {
	data := MessageData{Timestamp: testStamp, Branch: "master", Host: "box"}

	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "plain preset", text: "Auto-sync: {{.Timestamp}}", want: "Auto-sync: " + testStamp},
		{name: "branch preset", text: "Auto-sync [{{.Branch}}]: {{.Timestamp}}", want: "Auto-sync [master]: " + testStamp},
		{name: "host", text: "{{.Host}} {{.Timestamp}}", want: "box " + testStamp},
		{name: "whitespace trimmed", text: "\n  wip {{.Branch}}  \n", want: "wip master"},
		{name: "unknown field", text: "{{.Author}}", wantErr: true},
		{name: "renders blank", text: "{{if false}}x{{end}}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseMessageTemplate(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.text, tmpl.String())

			got, err := tmpl.Render(data)
			if tt.wantErr {
				require.ErrorIs(t, err, autosyncerrors.ErrInvalidTemplate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMessageTemplate_Invalid(t *testing.T) {
	for _, text := range []string{"", "   ", "{{.Timestamp", "{{end}}"} {
		_, err := ParseMessageTemplate(text)
		require.ErrorIs(t, err, autosyncerrors.ErrInvalidTemplate, "%q", text)
	}
}
