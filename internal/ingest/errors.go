package ingest

import (
	"fmt"
)

// Upload limits. Exceeding either one fails the whole upload; nothing is
// silently truncated.
const (
	MaxFilesPerUpload = 10
	MaxRowsPerFile    = 10000
)

// ValidationError marks a fatal input problem: too many rows, a missing
// required column, an unreadable or empty file. The enclosing upload is
// rejected and no partial job is persisted.
type ValidationError struct {
	File   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Reason)
	}
	return e.Reason
}

func invalidf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
