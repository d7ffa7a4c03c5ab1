package notify_test

import (
	"bytes"
	"testing"

	"github.com/cap-tools/capdeploy/pkg/ui/notify"
	"github.com/stretchr/testify/assert"
)

func TestConvenienceFunctions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		write      func(w *bytes.Buffer)
		wantSymbol string
	}{
		{
			name:       "error",
			write:      func(w *bytes.Buffer) { notify.Errorf(w, "boom: %d", 1) },
			wantSymbol: "✗ boom: 1",
		},
		{
			name:       "warning",
			write:      func(w *bytes.Buffer) { notify.Warningf(w, "careful") },
			wantSymbol: "⚠ careful",
		},
		{
			name:       "activity",
			write:      func(w *bytes.Buffer) { notify.Activityf(w, "working") },
			wantSymbol: "► working",
		},
		{
			name:       "success",
			write:      func(w *bytes.Buffer) { notify.Successf(w, "done") },
			wantSymbol: "✔ done",
		},
		{
			name:       "info",
			write:      func(w *bytes.Buffer) { notify.Infof(w, "fyi") },
			wantSymbol: "ℹ fyi",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			testCase.write(&buf)

			assert.Contains(t, buf.String(), testCase.wantSymbol)
		})
	}
}

func TestTitlefUsesCustomEmoji(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.Titlef(&buf, "🚀", "Deploy %s...", "platform")

	assert.Contains(t, buf.String(), "🚀 Deploy platform...")
}

func TestTitlefDefaultsEmoji(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.Titlef(&buf, "", "Heading")

	assert.Contains(t, buf.String(), "ℹ️ Heading")
}

func TestMultilineContentIsIndented(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.Errorf(&buf, "first\nsecond")

	assert.Contains(t, buf.String(), "first\n  second")
}
