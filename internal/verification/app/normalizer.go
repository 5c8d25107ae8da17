package app

import "strings"

// knownOrderPrefixes are the textual prefixes the commerce backend has used
// historically on order display keys, tried in addition to the "#" marker.
var knownOrderPrefixes = []string{"EN", "ORD"}

// CandidateKeys expands a raw order reference into the deduplicated,
// order-stable list of display-key forms worth querying. The untransformed
// reference always comes first so the caller's literal input has highest
// priority. Pure string work; never fails and never returns an empty list.
func CandidateKeys(ref string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(key string) {
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}

	add(ref)

	trimmed := strings.TrimSpace(ref)
	add(trimmed)

	core := strings.TrimPrefix(trimmed, "#")
	add(core)
	add("#" + core)

	for _, prefix := range knownOrderPrefixes {
		if rest, ok := cutPrefixFold(core, prefix); ok {
			add(rest)
			add("#" + rest)
		}
		add(prefix + core)
		add("#" + prefix + core)
	}

	return out
}

// NormalizeKey reduces a display key to its comparable core: marker symbol
// and known prefixes stripped, upper-cased. Used when scanning orders fetched
// by email, where prefix differences must not hide a match.
func NormalizeKey(key string) string {
	core := strings.TrimPrefix(strings.TrimSpace(key), "#")
	for _, prefix := range knownOrderPrefixes {
		if rest, ok := cutPrefixFold(core, prefix); ok {
			core = rest
			break
		}
	}
	return strings.ToUpper(core)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) <= len(prefix) {
		return s, false
	}
	if !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
