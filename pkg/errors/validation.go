package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// The identity separator is reserved; codes and programs must not contain it.
const reservedSep = "|"

// validateSegment rejects values that would be unsafe to interpolate into a
// backend URL path or that would corrupt a composite identity.
func validateSegment(code Code, what, value string, maxLen int) error {
	if value == "" {
		return New(code, "%s cannot be empty", what)
	}
	if len(value) > maxLen {
		return New(code, "%s too long (max %d characters)", what, maxLen)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return New(code, "%s contains invalid control characters", what)
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "\x00", "?", "#", reservedSep} {
		if strings.Contains(value, pattern) {
			return New(code, "%s contains invalid characters: %q", what, pattern)
		}
	}
	return nil
}

// courseCodeRegex matches catalog codes such as "CC101", "MA264" or "1ACC0216".
var courseCodeRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateCourseCode validates a bare course code before it is used as a
// path segment (PUT/DELETE /historial/{codigo}) or inside an identity.
func ValidateCourseCode(code string) error {
	if err := validateSegment(ErrCodeInvalidCourseCode, "course code", code, 64); err != nil {
		return err
	}
	if !courseCodeRegex.MatchString(code) {
		return New(ErrCodeInvalidCourseCode, "invalid course code: %q", code)
	}
	return nil
}

// ValidateProgram validates a program (carrera) name. Program names are
// free text ("Ingeniería de Software") but must not contain the identity
// separator or URL structure characters.
func ValidateProgram(program string) error {
	return validateSegment(ErrCodeInvalidProgram, "program", strings.TrimSpace(program), 128)
}

// ValidateUserID validates a user identifier used as a backend path segment.
func ValidateUserID(id string) error {
	return validateSegment(ErrCodeInvalidUserID, "user id", id, 128)
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
