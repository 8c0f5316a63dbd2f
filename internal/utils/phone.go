package utils

import "strings"

func digitsOnly(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// NormalizePhoneID returns an Indonesian number in +62 form.
// Empty input stays empty.
func NormalizePhoneID(phone string) string {
	d := digitsOnly(phone)
	switch {
	case d == "":
		return ""
	case strings.HasPrefix(d, "62"):
		return "+" + d
	case strings.HasPrefix(d, "0"):
		return "+62" + d[1:]
	case strings.HasPrefix(d, "8"):
		return "+62" + d
	default:
		return "+" + d
	}
}

// NormalizePhoneLocal returns an Indonesian number in 08xx form.
func NormalizePhoneLocal(phone string) string {
	d := digitsOnly(phone)
	switch {
	case d == "":
		return ""
	case strings.HasPrefix(d, "62"):
		return "0" + d[2:]
	case strings.HasPrefix(d, "8"):
		return "0" + d
	default:
		return d
	}
}
