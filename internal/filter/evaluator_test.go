package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarium-catalog/corestar/internal/types"
)

func m31() *types.CelestialObject {
	return &types.CelestialObject{
		Identifier:      "M31",
		Type:            "Galaxy",
		Constellation:   "Andromeda",
		RADeg:           10.6847,
		DecDeg:          41.2689,
		VisualMagnitude: 3.44,
	}
}

func TestLikeMatchPatterns(t *testing.T) {
	cases := []struct {
		s, p string
		want bool
	}{
		{"M31", "M31", true},
		{"M31", "M%", true},
		{"M31", "N%", false},
		{"M31", "M_1", true},
		{"M31", "M__", true},
		{"M31", "M___", false},
		{"", "%", true},
		{"NGC224", "%224", true},
		{"M31", "m31", false}, // case-sensitive on the raw field
	}
	for _, c := range cases {
		assert.Equal(t, c.want, likeMatch(c.s, c.p), "likeMatch(%q,%q)", c.s, c.p)
	}
}

func TestMatchesScenarioS5(t *testing.T) {
	f := types.CelestialSearchFilter{
		MinRA: 0, MaxRA: 20,
		MinDec: 30, MaxDec: 50,
		MinMagnitude: 0, MaxMagnitude: 5,
		Type: "Galaxy",
	}
	assert.True(t, Matches(m31(), f))

	m42 := &types.CelestialObject{Identifier: "M42", Type: "Galaxy", RADeg: 83.8, DecDeg: -5.4, VisualMagnitude: 4.0}
	assert.False(t, Matches(m42, f))
}

func TestExplainMismatchFirstFailingPredicate(t *testing.T) {
	f := types.CelestialSearchFilter{Type: "Nebula", MaxMagnitude: 30, MinMagnitude: -30, MaxRA: 360, MaxDec: 90, MinDec: -90}
	reason := ExplainMismatch(m31(), f)
	assert.Contains(t, reason, "type")
}

func TestSortResultsByEachField(t *testing.T) {
	rows := []*types.CelestialObject{
		{Identifier: "C", VisualMagnitude: 3, RADeg: 30, DecDeg: -10},
		{Identifier: "A", VisualMagnitude: 1, RADeg: 10, DecDeg: 10},
		{Identifier: "B", VisualMagnitude: 2, RADeg: 20, DecDeg: 0},
	}

	byID := SortResults(rows, types.CelestialSearchFilter{OrderBy: types.OrderByIdentifier, Ascending: true})
	require.Len(t, byID, 3)
	assert.Equal(t, []string{"A", "B", "C"}, idsOf(byID))

	byMagDesc := SortResults(rows, types.CelestialSearchFilter{OrderBy: types.OrderByMagnitude, Ascending: false})
	assert.Equal(t, []string{"C", "B", "A"}, idsOf(byMagDesc))

	byRA := SortResults(rows, types.CelestialSearchFilter{OrderBy: types.OrderByRA, Ascending: true})
	assert.Equal(t, []string{"A", "B", "C"}, idsOf(byRA))

	byDec := SortResults(rows, types.CelestialSearchFilter{OrderBy: types.OrderByDec, Ascending: true})
	assert.Equal(t, []string{"C", "B", "A"}, idsOf(byDec))
}

func idsOf(rows []*types.CelestialObject) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Identifier
	}
	return out
}

func TestPaginate(t *testing.T) {
	rows := []*types.CelestialObject{{Identifier: "A"}, {Identifier: "B"}, {Identifier: "C"}}
	assert.Equal(t, []string{"B", "C"}, idsOf(Paginate(rows, 1, 10)))
	assert.Equal(t, []string{"A"}, idsOf(Paginate(rows, 0, 1)))
	assert.Empty(t, Paginate(rows, 5, 10))
	assert.Empty(t, Paginate(rows, 0, 0))
}

func TestValidateFilter(t *testing.T) {
	bad := types.CelestialSearchFilter{MinMagnitude: 10, MaxMagnitude: 1, MinRA: 200, MaxRA: 100, MinDec: 50, MaxDec: -50}
	err := ValidateFilter(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minMagnitude")
	assert.Contains(t, err.Error(), "minRA")
	assert.Contains(t, err.Error(), "minDec")

	good := types.DefaultCelestialSearchFilter()
	assert.NoError(t, ValidateFilter(good))
}

func TestFilterResultsDoesNotSortOrPaginate(t *testing.T) {
	rows := []*types.CelestialObject{
		{Identifier: "B", Type: "Galaxy"},
		{Identifier: "A", Type: "Galaxy"},
		{Identifier: "Z", Type: "Nebula"},
	}
	f := types.DefaultCelestialSearchFilter()
	f.Type = "Galaxy"
	got := FilterResults(rows, f)
	// Order preserved as input order (B before A) -- sorting is a separate step.
	assert.Equal(t, []string{"B", "A"}, idsOf(got))
}
