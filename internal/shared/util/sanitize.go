package util

import (
	"errors"
	"regexp"
	"strings"
)

var unsafeFileChars = regexp.MustCompile(`[^\w.\-]+`)

// SanitizeFileName collapses every run of characters outside [A-Za-z0-9_.-]
// into a single dash. Names that reduce to dots only are rejected.
func SanitizeFileName(name string) (string, error) {
	s := unsafeFileChars.ReplaceAllString(strings.TrimSpace(name), "-")
	if strings.Trim(s, ".-") == "" {
		return "", errors.New("invalid file name")
	}
	if strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", ".")
	}
	return s, nil
}
