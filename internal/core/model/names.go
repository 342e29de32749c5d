package model

import "strings"

// NormalizeModelName strips the -YYYYMMDD release suffix so that dated
// variants of the same model share one bucket:
//
//	claude-sonnet-4-5-20250929 -> claude-sonnet-4-5
//	claude-opus-4-20250514     -> claude-opus-4
//	claude-opus-4-1            -> claude-opus-4-1
//
// An empty name normalizes to "unknown". The "<synthetic>" placeholder used
// by infrastructure events passes through unchanged.
func NormalizeModelName(name string) string {
	if name == "" {
		return "unknown"
	}

	parts := strings.Split(name, "-")
	if len(parts) >= 3 {
		last := parts[len(parts)-1]
		if isDateSuffix(last) {
			return strings.Join(parts[:len(parts)-1], "-")
		}
	}

	return name
}

func isDateSuffix(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
