package validators

import "strings"

// SanitizeString trims surrounding whitespace and truncates the result
// to maxLen bytes. A maxLen of zero disables truncation.
func SanitizeString(input string, maxLen int) string {
	out := strings.TrimSpace(input)
	if maxLen > 0 && len(out) > maxLen {
		return out[:maxLen]
	}
	return out
}
