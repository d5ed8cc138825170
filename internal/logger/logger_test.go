package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{raw: "", want: slog.LevelInfo},
		{raw: "debug", want: slog.LevelDebug},
		{raw: " WARN ", want: slog.LevelWarn},
		{raw: "error", want: slog.LevelError},
		{raw: "verbose", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, parseLevel(tt.raw), "level %q", tt.raw)
	}
}

func TestNewWithWriterTagsService(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "assistant", "info")
	log.Debug("hidden")
	log.Info("visible", slog.String("tool", "get_vaccine_schedule"))

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "service=assistant")
	require.Contains(t, out, "tool=get_vaccine_schedule")
}
