package util

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var invalidChars = regexp.MustCompile(`[<>:"/\\|?*]+`)

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, os.ModePerm)
}

// EnsureFile will make the file and the path if they don't already exist
// https://stackoverflow.com/a/74322748 for some hints on using syscall to make the permission
func EnsureFile(path string, perm os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		// file already exists
		return nil
	} else if !os.IsNotExist(err) {
		// some other error accessing file
		return err
	}

	// create parent dir
	if err := os.MkdirAll(filepath.Dir(path), perm); err != nil {
		return err
	}

	// create empty file
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// SanitizeFilename takes a string and makes it safe for filesystem usage.
func SanitizeFilename(name string) string {
	// Replace invalid characters with underscores
	safe := invalidChars.ReplaceAllString(name, "_")
	safe = strings.TrimSpace(safe)
	if safe == "" || safe == "." || safe == ".." {
		safe = "_"
	}
	return safe
}

// SafeJoin joins name onto baseDir and refuses results outside baseDir.
func SafeJoin(baseDir, name string) (string, error) {
	full := filepath.Join(baseDir, SanitizeFilename(name))
	rel, err := filepath.Rel(baseDir, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path: %s", name)
	}
	return full, nil
}

// ReportPath is where the PDF for an audit of host is written:
// <dir>/<host>-audit.<kind>-<unix>.pdf
func ReportPath(dir, host, kind string, at time.Time) (string, error) {
	name := fmt.Sprintf("%s-audit.%s-%d.pdf", host, kind, at.Unix())
	return SafeJoin(dir, name)
}
