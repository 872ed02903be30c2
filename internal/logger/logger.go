// Package logger はアプリケーション全体で使用する構造化ロガーを提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger はslog.Loggerをラップしたアプリケーションロガー。
type Logger struct {
	*slog.Logger
}

// New は指定されたレベルと形式で出力するLoggerを生成する。
// levelは "debug" / "info" / "warn" / "error"、formatは "text" / "json"。
func New(w io.Writer, level, format string) *Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// NewNop は何も出力しないLoggerを生成する。テストで使用する。
func NewNop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel はレベル名をslog.Levelに変換する。不明な値はInfoとして扱う。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Fatal はErrorレベルで出力した後にos.Exit(1)する。
func (l *Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}
