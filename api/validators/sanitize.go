package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the result at maxLen
// bytes. A non-positive maxLen disables the cap.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// SanitizeOptional trims an optional free-text field. Blank input becomes nil
// so an order field is cleared rather than set to whitespace.
func SanitizeOptional(input *string, maxLen int) *string {
	if input == nil {
		return nil
	}
	out := SanitizeString(*input, maxLen)
	if out == "" {
		return nil
	}
	return &out
}
