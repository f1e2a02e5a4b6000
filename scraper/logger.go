package scraper

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger writes leveled lines to the console and, when a file is attached,
// to the log file as well.
type Logger struct {
	l    *log.Logger
	file *os.File
}

// NewLogger logs to w with the run id as prefix.
func NewLogger(w io.Writer, runID string) *Logger {
	prefix := ""
	if runID != "" {
		prefix = "[" + runID[:min(8, len(runID))] + "] "
	}
	return &Logger{l: log.New(w, prefix, log.LstdFlags)}
}

// NewFileLogger logs to stdout and to path, appending.
func NewFileLogger(path, runID string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := NewLogger(io.MultiWriter(os.Stdout, f), runID)
	logger.file = f
	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLogger(io.Discard, "")
}

func (l *Logger) Infof(format string, args ...any) {
	l.l.Printf("INFO "+format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.l.Printf("WARNING "+format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.l.Printf("ERROR "+format, args...)
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
