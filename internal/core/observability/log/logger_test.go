package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type label string

func (l label) String() string { return "label:" + string(l) }

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": LevelDebug,
		"":      LevelInfo,
		"INFO":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
		"fatal": LevelFatal,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestNewWithFormat(t *testing.T) {
	l, err := NewWithFormat(LevelWarn, "console")
	require.NoError(t, err)
	require.Equal(t, LevelWarn, l.GetLevel())

	_, err = NewWithFormat(LevelInfo, "xml")
	require.Error(t, err)
}

func TestLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Wrap(zap.New(core), LevelDebug)

	l.With(String("world", "main")).Info("ready",
		Int("entities", 3),
		Uint16("entity", 7),
		Stringer("tag", label("x")),
		Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, "ready", entry.Message)
	ctx := entry.ContextMap()
	require.Equal(t, "main", ctx["world"])
	require.EqualValues(t, 3, ctx["entities"])
	require.EqualValues(t, 7, ctx["entity"])
	require.Equal(t, "label:x", ctx["tag"])
	require.Equal(t, "boom", ctx["error"])
}

func TestLogger_SetLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Wrap(zap.New(core), LevelInfo)
	child := l.Named("child")

	l.Debug("hidden")
	require.Equal(t, 0, logs.Len())

	l.SetLevel(LevelDebug)
	child.Debug("shown")
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "child", logs.All()[0].LoggerName)
	require.Equal(t, "debug", LevelDebug.String())
}
