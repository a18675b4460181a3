package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxNameLength bounds object and link names accepted from schema input.
const maxNameLength = 256

// nameRegex matches identifiers accepted for schema objects and links.
// Dots, colons and dashes cover module-qualified names such as "default::User".
var nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.:\-]*$`)

// ValidateName validates an object or link name from schema input.
//
// The rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
//   - Must start with a letter or underscore
//
// kind is used in messages only ("object", "link").
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidSchema, "%s name cannot be empty", kind)
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidSchema, "%s name too long (max %d characters)", kind, maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSchema, "%s name contains invalid control characters", kind)
		}
	}

	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidSchema, "invalid %s name: %q", kind, name)
	}

	return nil
}

// ValidatePath validates a schema or config file path passed on the command
// line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//
// Relative paths may climb out of the working directory. The worker protocol
// never carries paths, so only local callers reach this check.
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

// ValidateRedisURL checks that a cache URL uses a redis scheme.
func ValidateRedisURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidOption, "redis URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") {
		return New(ErrCodeInvalidOption, "redis URL must use redis or rediss scheme")
	}
	return nil
}
