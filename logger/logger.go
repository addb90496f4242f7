package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// Logger wraps standard log.Logger for info, warning, error, and debug output.
type Logger struct {
	info    *log.Logger
	warn    *log.Logger
	err     *log.Logger
	debug   *log.Logger
	verbose bool
	file    *os.File
}

// New creates a new Logger instance that writes to both a file and stdout.
func New(logPath string, verbose bool) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, err
	}
	// Open or create the log file
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	l := NewWriters(io.MultiWriter(os.Stdout, f), io.MultiWriter(os.Stderr, f), verbose)
	l.file = f
	return l, nil
}

// NewWriters builds a Logger on arbitrary writers; out takes info and debug,
// errOut takes warnings and errors.
func NewWriters(out, errOut io.Writer, verbose bool) *Logger {
	return &Logger{
		info:    log.New(out, "[INFO] ", log.Ldate|log.Ltime),
		warn:    log.New(errOut, "[WARN] ", log.Ldate|log.Ltime),
		err:     log.New(errOut, "[ERROR] ", log.Ldate|log.Ltime|log.Lshortfile),
		debug:   log.New(out, "[DEBUG] ", log.Ldate|log.Ltime|log.Lshortfile),
		verbose: verbose,
	}
}

// Discard returns a Logger that writes nowhere.
func Discard() *Logger {
	return NewWriters(io.Discard, io.Discard, false)
}

// Info logs informational messages to both console and file.
func (l *Logger) Info(v ...interface{}) {
	l.info.Println(v...)
}

// Warn logs problems that do not stop the audit.
func (l *Logger) Warn(v ...interface{}) {
	l.warn.Println(v...)
}

// Error logs error messages to both console and file.
func (l *Logger) Error(v ...interface{}) {
	l.err.Println(v...)
}

// Debug logs debug messages only if verbose is enabled.
func (l *Logger) Debug(v ...interface{}) {
	if l.verbose {
		l.debug.Println(v...)
	}
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
