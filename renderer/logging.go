package renderer

import (
	"context"
	"io"
	"log/slog"

	"github.com/sirupsen/logrus"
)

// RouteEngineLogs sends libasciidoc's logrus output through logger. Engine
// messages below warn are only kept when level is debug; the engine's own
// debug level dumps whole syntax trees and stays off.
func RouteEngineLogs(logger *slog.Logger, level slog.Level) {
	std := logrus.StandardLogger()
	std.SetOutput(io.Discard)
	if level <= slog.LevelDebug {
		std.SetLevel(logrus.InfoLevel)
	} else {
		std.SetLevel(logrus.WarnLevel)
	}
	std.ReplaceHooks(make(logrus.LevelHooks))
	std.AddHook(slogHook{logger: logger})
}

type slogHook struct {
	logger *slog.Logger
}

func (slogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h slogHook) Fire(entry *logrus.Entry) error {
	args := make([]any, 0, 2+2*len(entry.Data))
	args = append(args, "engine", "libasciidoc")
	for k, v := range entry.Data {
		args = append(args, k, v)
	}
	h.logger.Log(context.Background(), slogLevel(entry.Level), entry.Message, args...)
	return nil
}

func slogLevel(level logrus.Level) slog.Level {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return slog.LevelError
	case logrus.WarnLevel:
		return slog.LevelWarn
	case logrus.InfoLevel:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
