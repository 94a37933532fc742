package errors

import (
	"strings"
	"unicode"
)

// MaxIDLength is the longest identifier accepted for instances and templates.
const MaxIDLength = 256

// ValidateID validates an instance or template identifier.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No leading or trailing whitespace
//   - Maximum length of 256 bytes
//
// Identifiers end up in persisted layouts and in CLI output, so anything that
// would not survive a copy and paste is rejected.
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "%s id cannot be empty", kind)
	}

	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidID, "%s id too long (max %d characters)", kind, MaxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "%s id %q contains invalid control characters", kind, id)
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidID, "%s id %q has leading or trailing whitespace", kind, id)
	}

	return nil
}

// ValidateInstanceID validates a widget instance identifier.
func ValidateInstanceID(id string) error {
	return ValidateID("instance", id)
}

// ValidateTemplateID validates a widget template identifier.
func ValidateTemplateID(id string) error {
	return ValidateID("template", id)
}
