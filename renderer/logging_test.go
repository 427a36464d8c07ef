package renderer

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestRouteEngineLogs(t *testing.T) {
	std := logrus.StandardLogger()
	prevOut, prevLevel, prevHooks := std.Out, std.GetLevel(), std.Hooks
	t.Cleanup(func() {
		std.SetOutput(prevOut)
		std.SetLevel(prevLevel)
		std.ReplaceHooks(prevHooks)
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	RouteEngineLogs(logger, slog.LevelInfo)
	require.Equal(t, logrus.WarnLevel, std.GetLevel())
	logrus.Infof("time to parse %d microseconds", 42)
	require.Empty(t, buf.String())

	logrus.WithField("start_offset", 3).Warn("unexpected fragment")
	require.Contains(t, buf.String(), "level=WARN")
	require.Contains(t, buf.String(), `msg="unexpected fragment"`)
	require.Contains(t, buf.String(), "engine=libasciidoc")
	require.Contains(t, buf.String(), "start_offset=3")

	RouteEngineLogs(logger, slog.LevelDebug)
	require.Equal(t, logrus.InfoLevel, std.GetLevel())
}

func TestAsciiDocConvertWritesNoEngineInfoLogs(t *testing.T) {
	std := logrus.StandardLogger()
	prevOut, prevLevel, prevHooks := std.Out, std.GetLevel(), std.Hooks
	t.Cleanup(func() {
		std.SetOutput(prevOut)
		std.SetLevel(prevLevel)
		std.ReplaceHooks(prevHooks)
	})

	var buf bytes.Buffer
	RouteEngineLogs(slog.New(slog.NewTextHandler(&buf, nil)), slog.LevelInfo)

	_, err := NewAsciiDoc(Kroki{}).Convert([]byte("= Doc\n\nSome *text*.\n"), "doc.adoc", DefaultAsciiDocAttributes())
	require.NoError(t, err)
	require.Empty(t, buf.String())
}
