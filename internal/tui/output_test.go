package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
)

func TestOutputInterface(t *testing.T) {
	var buf bytes.Buffer
	var out Output = NewTTYOutput(&buf)
	assert.NotNil(t, out)
	out = NewJSONOutput(&buf)
	assert.NotNil(t, out)
}

func TestTTYOutput_Messages(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name  string
		write func(Output)
		want  []string
	}{
		{name: "success", write: func(o Output) { o.Success("pushed") }, want: []string{"✓", "pushed"}},
		{name: "warning", write: func(o Output) { o.Warning("behind remote") }, want: []string{"⚠", "behind remote"}},
		{name: "info", write: func(o Output) { o.Info("watching") }, want: []string{"watching"}},
		{name: "error", write: func(o Output) { o.Error(autosyncerrors.ErrLockHeld) }, want: []string{"✗", "sync already in progress"}},
		{
			name:  "actionable error",
			write: func(o Output) { o.Error(NewActionableError("lock held", "Stop the watcher")) },
			want:  []string{"✗ lock held", "▸ Try: Stop the watcher"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.write(NewTTYOutput(&buf))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestTTYOutput_Table(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	NewTTYOutput(&buf).Table(
		[]string{"KEY", "VALUE"},
		[][]string{{"branch", "master"}, {"ahead", "2"}, {"short"}},
	)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "KEY     VALUE", lines[0])
	assert.Equal(t, "branch  master", lines[1])
	assert.Equal(t, "ahead   2", lines[2])
	assert.Equal(t, "short", lines[3])
}

func TestTTYOutput_TableWithoutHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTTYOutput(&buf).Table(nil, [][]string{{"x"}})
	assert.Empty(t, buf.String())
}

func TestTTYOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTTYOutput(&buf).JSON(map[string]int{"runs": 2}))
	assert.Equal(t, "{\n  \"runs\": 2\n}\n", buf.String())
}

func TestJSONOutput_Messages(t *testing.T) {
	var buf bytes.Buffer
	out := NewJSONOutput(&buf)
	out.Success("pushed")
	out.Warning("slow")
	out.Info("hello")

	dec := json.NewDecoder(&buf)
	for _, want := range []jsonMessage{
		{Type: "success", Message: "pushed"},
		{Type: "warning", Message: "slow"},
		{Type: "info", Message: "hello"},
	} {
		var got jsonMessage
		require.NoError(t, dec.Decode(&got))
		assert.Equal(t, want, got)
	}
}

func TestJSONOutput_Error(t *testing.T) {
	t.Run("plain sentinel", func(t *testing.T) {
		var buf bytes.Buffer
		NewJSONOutput(&buf).Error(autosyncerrors.ErrLockHeld)

		var got jsonError
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "error", got.Type)
		assert.Equal(t, "sync already in progress", got.Message)
		assert.Empty(t, got.Details)
	})

	t.Run("wrapped error includes details", func(t *testing.T) {
		var buf bytes.Buffer
		NewJSONOutput(&buf).Error(fmt.Errorf("run failed: %w", autosyncerrors.ErrPushRejected))

		var got jsonError
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Contains(t, got.Message, "run failed")
		assert.Equal(t, "push rejected by remote", got.Details)
	})

	t.Run("actionable error includes suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		NewJSONOutput(&buf).Error(FromError(autosyncerrors.ErrPushRejected))

		var got jsonError
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.NotEmpty(t, got.Suggestion)
		assert.Equal(t, "push rejected by remote", got.Details)
	})
}

func TestJSONOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	NewJSONOutput(&buf).Table([]string{"key", "value"}, [][]string{{"branch", "master"}, {"ahead"}})

	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []map[string]string{
		{"key": "branch", "value": "master"},
		{"key": "ahead", "value": ""},
	}, got)
}

func TestJSONOutput_TableKeys(t *testing.T) {
	var buf bytes.Buffer
	NewJSONOutput(&buf).Table([]string{"LAYER", "Remote URL"}, [][]string{{"global", "https://example.com/r.git"}})

	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "global", got[0]["layer"])
	assert.Equal(t, "https://example.com/r.git", got[0]["remote_url"])
}

func TestNewOutput_FormatSelection(t *testing.T) {
	var buf bytes.Buffer

	_, ok := NewOutput(&buf, FormatJSON).(*JSONOutput)
	assert.True(t, ok)

	_, ok = NewOutput(&buf, FormatText).(*TTYOutput)
	assert.True(t, ok)

	// a buffer is not a terminal
	_, ok = NewOutput(&buf, FormatAuto).(*JSONOutput)
	assert.True(t, ok)
}

func TestIsTTY(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, isTTY(&buf))
	assert.False(t, isTTY((*os.File)(nil)))

	f, err := os.Open(os.DevNull)
	if err != nil {
		t.Skip("cannot open", os.DevNull)
	}
	defer func() { _ = f.Close() }()
	assert.False(t, isTTY(f))
}
