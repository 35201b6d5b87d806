package tracing

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys never exported on spans. Client identifiers join the
// usual credential keys because spans leave the trust boundary.
var sensitiveAttributeKeys = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"tax_id",
	"email",
}

// SafeAttributes drops attributes with sensitive keys.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if isSensitiveKey(string(attr.Key)) {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, needle := range sensitiveAttributeKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}
