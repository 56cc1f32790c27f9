package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoContext_AttachesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: "sweeper",
		Handler:   slog.NewTextHandler(&buf, nil),
	})

	logger.InfoContext(context.Background(), "sweep finished", "accounts", 3)

	out := buf.String()
	assert.Contains(t, out, "component=sweeper")
	assert.Contains(t, out, "accounts=3")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil)})

	scoped := logger.WithComponent("ledger")
	scoped.InfoContext(context.Background(), "entry chained")

	assert.Equal(t, "ledger", scoped.Component())
	assert.Contains(t, buf.String(), "component=ledger")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}
