// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var nonWordOrDot = regexp.MustCompile(`[^\w.]`)

// CleanFilename strips characters outside [A-Za-z0-9_.] and the file
// extension, producing a name safe for paths and summary artifacts.
func CleanFilename(name string) string {
	cleaned := nonWordOrDot.ReplaceAllString(name, "")
	return strings.TrimSuffix(cleaned, filepath.Ext(cleaned))
}

// Truncate returns s truncated to maxLen bytes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
