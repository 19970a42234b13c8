package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateNodeID validates a node id from an input record.
// It rejects ids that could be used for path traversal or injection
// when they later appear in cache keys and file names.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No path traversal sequences (.., //)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidRecord, "node id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidRecord, "node id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRecord, "node id contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidRecord, "node id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// snapshotNameRegex matches valid snapshot names.
var snapshotNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateSnapshotName validates a snapshot name. Names become file
// names in the file store, so they must be simple basenames.
func ValidateSnapshotName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidSnapshot, "snapshot name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidSnapshot, "snapshot name too long (max 128 characters)")
	}

	if !snapshotNameRegex.MatchString(name) {
		return New(ErrCodeInvalidSnapshot, "invalid snapshot name: %q", name)
	}

	return nil
}

// ValidatePath validates a user-supplied file path for output safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
