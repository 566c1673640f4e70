package normalize

import (
	"github.com/ellastudio/ella-data/internal/canon"
)

// How a binding was resolved.
const (
	ViaAlias    = "alias"
	ViaPosition = "position"
)

// Binding records how one target field is sourced from the sheet grid.
type Binding struct {
	Target canon.Field `json:"target"`
	Column int         `json:"column"` // 0-based index into the deduplicated header row
	Header string      `json:"header"` // deduplicated label at that column
	Via    string      `json:"via"`    // ViaAlias or ViaPosition
	Alias  string      `json:"alias,omitempty"`
}

// Plan is the resolved column plan for one stream's header row: which sheet
// column feeds each target field, and which target fields have no source at
// all. Plans are rebuilt on every load; header text may have drifted since
// the last one.
type Plan struct {
	Stream     string                  `json:"stream"`
	RawHeaders []string                `json:"raw_headers"`
	Headers    []string                `json:"headers"`   // deduplicated labels
	Canonical  []string                `json:"canonical"` // canonical form per label
	Bindings   map[canon.Field]Binding `json:"bindings"`
	Gaps       []canon.Field           `json:"gaps"`
}

// MapColumns reports the header renames the alias table alone produces for
// the given raw headers: deduplicated header label → target field label.
// Resolution is first-match-wins by alias declaration order; among columns
// matching the same alias, the leftmost unclaimed column wins, and a target
// field is claimed at most once. Headers with no alias match are absent from
// the result (they pass through unrenamed, which is not an error).
func MapColumns(rawHeaders []string, schema canon.StreamSchema) map[string]string {
	headers := Deduplicate(rawHeaders)
	renames := make(map[string]string)
	resolveAliases(headers, schema, func(col int, target canon.Field, _ string) {
		renames[headers[col]] = string(target)
	})
	return renames
}

// BuildPlan resolves the full column plan: alias matches first, then
// fixed-position fallbacks override their target fields wherever the
// declared column index exists in the header row — regardless of the header
// text found there. Target fields left with neither an alias match nor a
// live fallback are reported as gaps, in canonical field order.
func BuildPlan(rawHeaders []string, schema canon.StreamSchema) Plan {
	headers := Deduplicate(rawHeaders)
	canonical := make([]string, len(headers))
	for i, h := range headers {
		canonical[i] = Normalize(h)
	}

	bindings := make(map[canon.Field]Binding, len(canon.DataFields))
	resolveAliases(headers, schema, func(col int, target canon.Field, alias string) {
		bindings[target] = Binding{
			Target: target,
			Column: col,
			Header: headers[col],
			Via:    ViaAlias,
			Alias:  alias,
		}
	})

	for _, fb := range schema.Fallbacks {
		if fb.Column >= len(headers) {
			continue
		}
		bindings[fb.Target] = Binding{
			Target: fb.Target,
			Column: fb.Column,
			Header: headers[fb.Column],
			Via:    ViaPosition,
		}
	}

	var gaps []canon.Field
	for _, f := range canon.DataFields {
		if _, ok := bindings[f]; !ok {
			gaps = append(gaps, f)
		}
	}

	return Plan{
		Stream:     schema.ID,
		RawHeaders: rawHeaders,
		Headers:    headers,
		Canonical:  canonical,
		Bindings:   bindings,
		Gaps:       gaps,
	}
}

// resolveAliases walks the alias table in declaration order and emits one
// claim per target field, scanning columns left to right and never claiming
// a column twice.
func resolveAliases(headers []string, schema canon.StreamSchema, claim func(col int, target canon.Field, alias string)) {
	canonical := make([]string, len(headers))
	for i, h := range headers {
		canonical[i] = Normalize(h)
	}
	boundTargets := make(map[canon.Field]bool, len(canon.DataFields))
	claimedCols := make(map[int]bool, len(headers))
	for _, a := range schema.Aliases {
		if boundTargets[a.Target] {
			continue
		}
		for col, c := range canonical {
			if claimedCols[col] || c != a.Source {
				continue
			}
			boundTargets[a.Target] = true
			claimedCols[col] = true
			claim(col, a.Target, a.Source)
			break
		}
	}
}
