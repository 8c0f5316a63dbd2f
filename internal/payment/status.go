package payment

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Provider vocabulary that means the money arrived. Matching is case-insensitive.
var successStatuses = map[string]struct{}{
	"settlement": {},
	"successful": {},
	"paid":       {},
	"berhasil":   {},
	"settled":    {},
	"succeeded":  {},
	"completed":  {},
}

var expiredStatuses = map[string]struct{}{
	"expire":     {},
	"expired":    {},
	"kadaluarsa": {},
}

// NormalizeStatus maps a provider status onto the canonical enum. Anything
// not explicitly recognised is failed.
func NormalizeStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := successStatuses[s]; ok {
		return StatusSuccess
	}
	if _, ok := expiredStatuses[s]; ok {
		return StatusExpired
	}
	return StatusFailed
}

// str reads a value from an untyped payload as a string. Numbers sent by
// providers (gross_amount, status_code) come out in their plain decimal form.
func str(p map[string]any, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return cast.ToString(int64(n))
		}
	}
	return strings.TrimSpace(cast.ToString(v))
}

// nested returns p[key] as a map when it is one.
func nested(p map[string]any, key string) map[string]any {
	m, err := cast.ToStringMapE(p[key])
	if err != nil {
		return nil
	}
	return m
}

// parseProviderTime tries the layouts providers use for settlement times.
// Layouts without a zone are read in Asia/Jakarta.
func parseProviderTime(raw string, loc *time.Location) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t
		}
	}
	return nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
