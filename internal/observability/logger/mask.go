package logger

import (
	"strings"
)

// Keys whose values must never reach a log line in the clear. Billing rows
// carry client tax ids (CPF) and contact details, which are PII under LGPD.
var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"tax_id",
	"cpf",
	"email",
}

// MaskTaxID masks a client tax id, preserving only the last 4 digits.
func MaskTaxID(value string) string {
	return maskLast4(value)
}

// MaskEmail masks the local part of an address, keeping its first rune and
// the full domain so support can still identify the mail provider.
func MaskEmail(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	at := strings.LastIndex(value, "@")
	if at <= 0 {
		return maskLast4(value)
	}
	local := value[:at]
	domain := value[at:]
	return local[:1] + "***" + domain
}

// MaskJSON returns a deep-copied map with sensitive fields masked.
func MaskJSON(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		if isSensitiveKey(key) {
			out[key] = maskValue(key, value)
			continue
		}
		out[key] = maskJSONValue(value)
	}
	return out
}

func maskJSONValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return MaskJSON(typed)
	case []any:
		items := make([]any, 0, len(typed))
		for _, entry := range typed {
			items = append(items, maskJSONValue(entry))
		}
		return items
	default:
		return value
	}
}

func maskValue(key string, value any) any {
	str, ok := value.(string)
	if !ok {
		return "****"
	}
	if strings.Contains(strings.ToLower(key), "email") {
		return MaskEmail(str)
	}
	return maskLast4(str)
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, needle := range sensitiveKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}

func maskLast4(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****" + value
	}
	return "****" + value[len(value)-4:]
}
