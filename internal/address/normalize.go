// Package address turns raw recipient field text into normalized addresses.
package address

import (
	"regexp"
	"strings"
)

// separators matches one or more consecutive list separators.
var separators = regexp.MustCompile(`[;,]+`)

// Normalize splits a raw recipient field into lowercase, trimmed addresses.
// Empty pieces are dropped, so malformed input yields fewer or zero addresses.
func Normalize(raw string) []string {
	parts := separators.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if a := NormalizeOne(p); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// NormalizeOne trims and lowercases a single address.
func NormalizeOne(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Unique returns addrs with duplicates removed, keeping the first occurrence.
func Unique(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
