// Package logger はslogのデフォルトロガーを設定します。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config はログ出力の設定です。
type Config struct {
	// Level は debug / info / warn / error のいずれかです。既定は info です。
	Level string `yaml:"level"`
	// Format は text または json です。既定は text です。
	Format string `yaml:"format"`
}

// ParseLevel は文字列をslog.Levelに変換します。不明な値は info として扱います。
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

// New は設定に従ったロガーを w に出力するように生成します。
func New(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Setup は標準エラー出力へのロガーを生成し、slogのデフォルトに設定します。
func Setup(cfg Config) *slog.Logger {
	l := New(cfg, os.Stderr)
	slog.SetDefault(l)
	return l
}
