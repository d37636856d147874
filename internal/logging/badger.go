package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// BadgerLogger routes Badger's printf-style log calls into slog. It
// satisfies badger.Logger without importing badger.
type BadgerLogger struct {
	logger *slog.Logger
}

// NewBadgerLogger wraps logger, tagging records with component=badger.
func NewBadgerLogger(logger *slog.Logger) *BadgerLogger {
	return &BadgerLogger{logger: Component(logger, "badger")}
}

func (l *BadgerLogger) Errorf(format string, args ...any) {
	l.log(slog.LevelError, format, args...)
}

func (l *BadgerLogger) Warningf(format string, args ...any) {
	l.log(slog.LevelWarn, format, args...)
}

func (l *BadgerLogger) Infof(format string, args ...any) {
	l.log(slog.LevelInfo, format, args...)
}

func (l *BadgerLogger) Debugf(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}

func (l *BadgerLogger) log(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	// Badger terminates most messages with a newline.
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	l.logger.Log(ctx, level, msg)
}
