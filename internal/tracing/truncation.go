package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength is the default attribute value length cap.
	DefaultMaxLength = 200

	// MaxQueryLength caps query text recorded on search spans.
	MaxQueryLength = 150

	// MaxRedisLength caps Redis keys recorded on cache spans.
	MaxRedisLength = 100
)

// PII field names whose values are masked before landing in a span.
var maskPIILookup = map[string]bool{
	"email":    true,
	"phone":    true,
	"password": true,
	"address":  true,
	"name":     true,
	"secret":   true,
	"token":    true,
}

// SafeAttributeValue masks PII fields and truncates over-long values so
// span attributes never leak consultant contact data.
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for keyword := range maskPIILookup {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII keeps just enough of a value to correlate log lines.
func MaskPII(value string) string {
	if value == "" {
		return ""
	}

	runes := []rune(value)
	length := len(runes)

	if length <= 1 {
		return "*"
	}
	if length <= 4 {
		if length == 2 {
			return string(runes[0:1]) + "*"
		}
		return string(runes[0:1]) + strings.Repeat("*", length-2) + string(runes[length-1:])
	}

	return string(runes[0:2]) + strings.Repeat("*", length-4) + string(runes[length-2:])
}

// TruncateString keeps the head and tail of an over-long string with an
// ellipsis in the middle.
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}

	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}

	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeQueryText truncates canonical query text for span attributes.
func SafeQueryText(q string) string {
	return TruncateString(q, MaxQueryLength)
}

// SafeRedisKey truncates a cache key for span attributes.
func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}
