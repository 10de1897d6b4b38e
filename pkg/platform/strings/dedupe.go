// Package strings holds the list helpers used when reading comma-separated settings.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value, trims each element and drops empties and
// repeats. Order of first appearance is kept.
//
//	SplitList(" broker-1:9092, ,broker-2:9092,broker-1:9092")
//	// []string{"broker-1:9092", "broker-2:9092"}
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return dedupe(strings.Split(raw, ","), strings.TrimSpace)
}

// DedupeFold is SplitList's dedupe with case-insensitive comparison, for values such as
// hex addresses where case carries no meaning. The first spelling seen is kept.
func DedupeFold(values []string) []string {
	return dedupe(values, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

func dedupe(values []string, key func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		k := key(v)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
