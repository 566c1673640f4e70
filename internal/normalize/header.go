// Package normalize implements the schema reconciliation pipeline: header
// canonicalization and deduplication, alias/fallback column mapping, field
// coercion, and the per-stream standardization that turns a raw sheet grid
// into canonical records.
package normalize

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Quote variants that show up in form headers depending on which device
// typed them.
var apostrophes = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"ʼ", "'", // modifier letter apostrophe
	"`", "'",
	"´", "'", // acute accent
)

// Normalize canonicalizes header text for alias lookup: compatibility-fold
// unicode, unify apostrophe variants, lowercase, trim, and collapse internal
// whitespace runs to a single space. Total and idempotent; the result is a
// lookup key only and is never stored as output.
func Normalize(header string) string {
	s := norm.NFKC.String(header)
	s = apostrophes.Replace(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Deduplicate produces unique column labels preserving input order. Blank
// headers become "Unnamed"; each later occurrence of an already-seen label
// gets a "__2", "__3", … suffix by occurrence count, skipping suffixes that
// would collide with a label already emitted. Output length always equals
// input length.
func Deduplicate(headers []string) []string {
	counts := make(map[string]int, len(headers))
	used := make(map[string]bool, len(headers))
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		base := strings.TrimSpace(h)
		if base == "" {
			base = "Unnamed"
		}
		counts[base]++
		label := base
		if counts[base] > 1 {
			label = fmt.Sprintf("%s__%d", base, counts[base])
		}
		for used[label] {
			counts[base]++
			label = fmt.Sprintf("%s__%d", base, counts[base])
		}
		used[label] = true
		out = append(out, label)
	}
	return out
}
