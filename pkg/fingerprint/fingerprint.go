// Package fingerprint combines caller-gathered environment attributes into a
// stable device identifier. It never inspects the environment itself.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Size is the length of a fingerprint in hex characters
const Size = sha256.Size * 2

// Well-known attribute keys. Callers may add any others.
const (
	AttrUserAgent           = "userAgent"
	AttrPlatform            = "platform"
	AttrLanguage            = "language"
	AttrScreenResolution    = "screenResolution"
	AttrTimezone            = "timezone"
	AttrHardwareConcurrency = "hardwareConcurrency"
	AttrCanvas              = "canvas"
)

// Generate hashes the attribute bag. Keys are serialized in sorted order, so
// the result only depends on the map's contents.
func Generate(attributes map[string]string) string {
	sum := sha256.Sum256([]byte(canonicalize(attributes)))
	return hex.EncodeToString(sum[:])
}

// canonicalize writes each sorted key and its value as len:bytes. The
// encoding is byte-exact, so invalid UTF-8 is never normalized away and
// distinct maps never share an encoding.
func canonicalize(attributes map[string]string) string {
	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		writeField(&b, k)
		writeField(&b, attributes[k])
	}
	return b.String()
}

func writeField(b *strings.Builder, field string) {
	b.WriteString(strconv.Itoa(len(field)))
	b.WriteByte(':')
	b.WriteString(field)
}
