package logx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel 将 debug|info|warn|error 转换为 slog.Level，未知取值按 info 处理
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New 创建写入 w 的文本日志
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// NewDefault 创建写入标准错误的日志
func NewDefault(level string) *slog.Logger {
	return New(os.Stderr, level)
}
