package logger

import (
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB = 50
	defaultMaxFiles  = 5
	defaultFilePath  = "logs/recipient-check.log"
)

// FileConfig configures the rotating log file.
type FileConfig struct {
	Path      string
	MaxSizeMB int
	MaxFiles  int
}

// NewFileWriter returns a size-rotated, gzip-compressing log file writer.
// Zero values fall back to defaults.
func NewFileWriter(cfg FileConfig) *lumberjack.Logger {
	if cfg.Path == "" {
		cfg.Path = defaultFilePath
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = defaultMaxSizeMB
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = defaultMaxFiles
	}
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxFiles,
		Compress:   true,
	}
}
