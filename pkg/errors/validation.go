package errors

import (
	"unicode"

	"github.com/google/uuid"
)

// ValidateReportID validates a stored report identifier.
// Identifiers are issued as UUIDs; anything else is rejected before it
// reaches a storage backend.
func ValidateReportID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "report id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return New(ErrCodeInvalidInput, "invalid report id: %q", id)
	}
	return nil
}

// MaxNavPathLength caps the length of a navigation path.
const MaxNavPathLength = 4096

// ValidateNavPath rejects navigation paths over MaxNavPathLength. Any other
// path is acceptable: one that is malformed or does not match the tree
// resolves to no focus.
func ValidateNavPath(path string) error {
	if len(path) > MaxNavPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", MaxNavPathLength)
	}
	return nil
}

// ValidateFilePath validates a local output path given on the command line.
func ValidateFilePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid control characters")
		}
	}
	return nil
}
