package logger

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateConfig configures a size-rotated log file.
type RotateConfig struct {
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
	Compress   bool   `yaml:"compress"`
}

// NewRotatingWriter returns a writer that rotates cfg.Filename when it reaches cfg.MaxSizeMB.
func NewRotatingWriter(cfg RotateConfig) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// NewFileSlog creates a slog logger writing to a rotated file, and also to stdout when tee is true.
//
// The returned closer releases the log file.
func NewFileSlog(cfg RotateConfig, level Level, tee bool) (Logger, io.Closer) {
	file := NewRotatingWriter(cfg)

	var w io.Writer = file
	if tee {
		w = io.MultiWriter(os.Stdout, file)
	}

	return NewSlogWithWriter(w, level, false), file
}
