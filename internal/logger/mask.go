package logger

import (
	"strings"

	"go.uber.org/zap"
)

// MaskSecret keeps the last 4 characters of a credential.
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

// Secret is a zap field carrying a masked credential.
func Secret(key, secret string) zap.Field {
	return zap.String(key, MaskSecret(secret))
}
