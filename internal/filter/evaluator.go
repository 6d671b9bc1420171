// Package filter implements the deterministic in-memory predicate,
// ordering, and pagination semantics of spec.md §4.E, grounded on the
// two-mode (filter vs. filter+predicate) design of the teacher's
// internal/query evaluator.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stellarium-catalog/corestar/internal/types"
)

// Matches reports whether obj satisfies every non-default predicate in f,
// short-circuiting on the first failing one.
func Matches(obj *types.CelestialObject, f types.CelestialSearchFilter) bool {
	return explain(obj, f) == ""
}

// ExplainMismatch returns a human-readable description of the first
// predicate obj fails against f, or "" if obj matches.
func ExplainMismatch(obj *types.CelestialObject, f types.CelestialSearchFilter) string {
	return explain(obj, f)
}

func explain(obj *types.CelestialObject, f types.CelestialSearchFilter) string {
	if f.NamePattern != "" && !likeMatch(obj.Identifier, f.NamePattern) {
		return fmt.Sprintf("identifier %q does not match pattern %q", obj.Identifier, f.NamePattern)
	}
	if f.Type != "" && obj.Type != f.Type {
		return fmt.Sprintf("type %q != %q", obj.Type, f.Type)
	}
	if f.Morphology != "" && obj.Morphology != f.Morphology {
		return fmt.Sprintf("morphology %q != %q", obj.Morphology, f.Morphology)
	}
	if f.Constellation != "" && obj.Constellation != f.Constellation {
		return fmt.Sprintf("constellation %q != %q", obj.Constellation, f.Constellation)
	}
	if obj.VisualMagnitude < f.MinMagnitude || obj.VisualMagnitude > f.MaxMagnitude {
		return fmt.Sprintf("visual_magnitude %v outside [%v, %v]", obj.VisualMagnitude, f.MinMagnitude, f.MaxMagnitude)
	}
	if obj.RADeg < f.MinRA || obj.RADeg > f.MaxRA {
		return fmt.Sprintf("ra_deg %v outside [%v, %v]", obj.RADeg, f.MinRA, f.MaxRA)
	}
	if obj.DecDeg < f.MinDec || obj.DecDeg > f.MaxDec {
		return fmt.Sprintf("dec_deg %v outside [%v, %v]", obj.DecDeg, f.MinDec, f.MaxDec)
	}
	return ""
}

// likeMatch implements SQL-LIKE semantics: % matches any run (including
// empty), _ matches exactly one character, everything else matches itself
// exactly, case-sensitive (spec §4.E).
func likeMatch(s, pattern string) bool {
	return likeMatchRunes([]rune(s), []rune(pattern))
}

func likeMatchRunes(s, p []rune) bool {
	// Classic DP for LIKE-style matching (%, _), O(len(s)*len(p)).
	ls, lp := len(s), len(p)
	dp := make([][]bool, ls+1)
	for i := range dp {
		dp[i] = make([]bool, lp+1)
	}
	dp[0][0] = true
	for j := 1; j <= lp; j++ {
		if p[j-1] == '%' {
			dp[0][j] = dp[0][j-1]
		}
	}
	for i := 1; i <= ls; i++ {
		for j := 1; j <= lp; j++ {
			switch p[j-1] {
			case '%':
				dp[i][j] = dp[i-1][j] || dp[i][j-1]
			case '_':
				dp[i][j] = dp[i-1][j-1]
			default:
				dp[i][j] = dp[i-1][j-1] && s[i-1] == p[j-1]
			}
		}
	}
	return dp[ls][lp]
}

// FilterResults returns the subset of rows matching f. Does not apply
// limit/offset/orderBy — those are structural (see Sort/Paginate).
func FilterResults(rows []*types.CelestialObject, f types.CelestialSearchFilter) []*types.CelestialObject {
	out := make([]*types.CelestialObject, 0, len(rows))
	for _, r := range rows {
		if Matches(r, f) {
			out = append(out, r)
		}
	}
	return out
}

// SortResults stably sorts rows by f.OrderBy, direction from f.Ascending.
func SortResults(rows []*types.CelestialObject, f types.CelestialSearchFilter) []*types.CelestialObject {
	out := make([]*types.CelestialObject, len(rows))
	copy(out, rows)

	keyLess := func(a, b *types.CelestialObject) bool {
		switch f.OrderBy {
		case types.OrderByMagnitude:
			return a.VisualMagnitude < b.VisualMagnitude
		case types.OrderByRA:
			return a.RADeg < b.RADeg
		case types.OrderByDec:
			return a.DecDeg < b.DecDeg
		default:
			return a.Identifier < b.Identifier
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.Ascending {
			return keyLess(out[i], out[j])
		}
		return keyLess(out[j], out[i])
	})
	return out
}

// Paginate returns rows[offset:offset+limit], clamped to bounds. An
// out-of-range offset returns an empty slice.
func Paginate(rows []*types.CelestialObject, offset, limit int) []*types.CelestialObject {
	if offset < 0 || offset >= len(rows) || limit <= 0 {
		return []*types.CelestialObject{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

// ValidateFilter reports inconsistencies in f (spec §4.E).
func ValidateFilter(f types.CelestialSearchFilter) error {
	var problems []string
	if f.MinMagnitude > f.MaxMagnitude {
		problems = append(problems, fmt.Sprintf("minMagnitude %v > maxMagnitude %v", f.MinMagnitude, f.MaxMagnitude))
	}
	if f.MinRA > f.MaxRA {
		problems = append(problems, fmt.Sprintf("minRA %v > maxRA %v", f.MinRA, f.MaxRA))
	}
	if f.MinDec > f.MaxDec {
		problems = append(problems, fmt.Sprintf("minDec %v > maxDec %v", f.MinDec, f.MaxDec))
	}
	if f.Limit < 0 {
		problems = append(problems, fmt.Sprintf("limit %d < 0", f.Limit))
	}
	if f.Offset < 0 {
		problems = append(problems, fmt.Sprintf("offset %d < 0", f.Offset))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid filter: %s", strings.Join(problems, "; "))
}
