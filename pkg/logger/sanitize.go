package logger

import (
	"net/netip"
	"strings"
)

// MaskIdentifier hides the host part of a client identifier for logging.
// IPv4 keeps the first three octets, IPv6 the first four hextets; anything
// else keeps its first two characters.
func MaskIdentifier(identifier string) string {
	addr, err := netip.ParseAddr(identifier)
	if err != nil {
		if len(identifier) <= 2 {
			return strings.Repeat("*", len(identifier))
		}
		return identifier[:2] + strings.Repeat("*", len(identifier)-2)
	}

	if addr.Is4() || addr.Is4In6() {
		a := addr.Unmap().As4()
		return netip.AddrFrom4([4]byte{a[0], a[1], a[2], 0}).String() + "/24"
	}

	prefix, err := addr.Prefix(64)
	if err != nil {
		return "[invalid-ip]"
	}
	return prefix.String()
}

// MaskUsername keeps the first character of a username (e.g., "j***")
func MaskUsername(username string) string {
	if username == "" {
		return ""
	}
	runes := []rune(username)
	return string(runes[0]) + strings.Repeat("*", len(runes)-1)
}

// SanitizeQueryString reports whether a query string carries sensitive
// parameters and must be redacted in request logs
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := []string{
		"password",
		"token",
		"secret",
		"key",
		"plaintext",
		"ciphertext",
		"username",
		"auth",
	}

	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
