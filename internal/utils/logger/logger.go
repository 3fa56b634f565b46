package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/riclovato/furia-chatbot/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the process logger: stdout plus an optional rotated file.
func New(cfg config.LogConfig) *logrus.Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
	l.SetOutput(out)

	if err != nil && cfg.Level != "" {
		l.WithField("level", cfg.Level).Warn("unknown log level, using info")
	}
	return l
}
