// Package utils provides common utility functions.
package utils

// MaskSecret masks a credential or session cookie value for safe logging
// (shows first 8 and last 4 chars). Use this wherever a cookie value or
// password could otherwise end up in the log.
func MaskSecret(s string) string {
	if s == "" {
		return "(empty)"
	}
	if len(s) < 16 {
		return "****"
	}
	return s[:8] + "..." + s[len(s)-4:]
}

// Truncate bounds s to max bytes. Upstream bodies are echoed inside
// envelopes and logs; without a bound a misbehaving upstream could inflate
// both without limit.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
