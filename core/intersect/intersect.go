// Package intersect implements the stage-3 code-set intersection and
// numeric-ID resolution.
package intersect

import (
	"strconv"

	"github.com/rvalverde/rankpipe/core"
	"github.com/rvalverde/rankpipe/core/codes"
)

// Intersector intersects stage-1 and stage-2 code sets.
type Intersector struct{}

// New creates an Intersector.
func New() *Intersector {
	return &Intersector{}
}

// Intersect returns the codes present in both inputs, in stage-1 rank
// order, with a numeric ID resolved from the stage-2 link where one can
// be derived. Both inputs are re-canonicalized first, so externally
// produced artifacts with loose code spellings still intersect.
//
// A common code without a resolvable ID stays in Common and is simply
// absent from Resolutions.
func (x *Intersector) Intersect(entries []core.RankEntry, matches []core.MatchRecord, prefix codes.Prefix) core.IntersectionResult {
	// First linked occurrence per code wins; an unlinked first
	// occurrence is upgraded by a later linked one.
	links := make(map[string]string, len(matches))
	present := make(map[string]bool, len(matches))
	for _, m := range matches {
		code, ok := prefix.Recanonicalize(m.Code)
		if !ok {
			continue
		}
		if !present[code] {
			present[code] = true
			links[code] = m.LinkURL
		} else if links[code] == "" && m.LinkURL != "" {
			links[code] = m.LinkURL
		}
	}

	result := core.IntersectionResult{Resolutions: make(map[string]core.Resolution)}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		code, ok := prefix.Recanonicalize(e.Code)
		if !ok || seen[code] || !present[code] {
			continue
		}
		seen[code] = true
		result.Common = append(result.Common, code)

		link := links[code]
		if link == "" {
			continue
		}
		if id, ok := numericID(link); ok {
			result.Resolutions[code] = core.Resolution{NumericID: id, SourceLink: link}
		}
	}
	return result
}

// numericID derives the numeric identifier from a link URL: the longest
// digit run wins, the later one on ties. Runs beyond int64 range count
// as unresolvable.
func numericID(link string) (int64, bool) {
	run, ok := codes.LongestDigitRun(link)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(run, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
