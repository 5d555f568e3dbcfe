// Package strings holds slice helpers for list-valued settings and batch
// lookups.
package strings

import (
	"sort"
	"strings"
)

// Compact trims each value and drops blanks and repeats, keeping the order
// in which values were first seen. It returns nil when nothing remains.
func Compact(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SplitList splits a comma separated setting and compacts the parts.
func SplitList(raw string) []string {
	return Compact(strings.Split(raw, ","))
}

// SortedSet is Compact in ascending order.
func SortedSet(values []string) []string {
	out := Compact(values)
	sort.Strings(out)
	return out
}
