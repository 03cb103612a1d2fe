package utils

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePoster struct {
	tags     []string
	messages []map[string]interface{}
}

func (f *fakePoster) Post(tag string, message interface{}) error {
	f.tags = append(f.tags, tag)
	f.messages = append(f.messages, message.(map[string]interface{}))
	return nil
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestFluentHandler(t *testing.T) {
	poster := &fakePoster{}
	logger := slog.New(NewFluentHandler(poster, slog.LevelInfo)).With("region", "adygeya")

	logger.Debug("dropped")
	logger.WithGroup("flush").Warn("slow flush", "took", 3*time.Second, "err", errors.New("disk"))

	require.Len(t, poster.messages, 1)
	assert.Equal(t, "warn", poster.tags[0])
	msg := poster.messages[0]
	assert.Equal(t, "slow flush", msg["message"])
	assert.Equal(t, "warn", msg["level"])
	assert.Equal(t, "adygeya", msg["region"])
	assert.Equal(t, "3s", msg["flush.took"])
	assert.Equal(t, "disk", msg["flush.err"])
	assert.NotEmpty(t, msg["timestamp"])
}

func TestFanoutHandler(t *testing.T) {
	var buf bytes.Buffer
	poster := &fakePoster{}
	h := NewFanoutHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		NewFluentHandler(poster, slog.LevelWarn),
	)
	logger := slog.New(h)

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
	logger.Info("page loaded")
	logger.Error("run failed")

	assert.Contains(t, buf.String(), "page loaded")
	assert.Contains(t, buf.String(), "run failed")
	require.Len(t, poster.messages, 1)
	assert.Equal(t, "run failed", poster.messages[0]["message"])
}

func TestInitLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	closeFn, err := InitLogger(LogOptions{Writer: &buf, Level: "warn", JSON: true})
	require.NoError(t, err)
	defer closeFn()

	Info("hidden")
	Warn("visible %d", 42)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible 42")
}
