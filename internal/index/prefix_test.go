package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixAutocompleteRankingAndTieBreak(t *testing.T) {
	p := NewPrefix()
	p.InsertBatch([]PrefixEntry{
		{Name: "M31", Identifier: "obj-m31"},
		{Name: "M32", Identifier: "obj-m32"},
		{Name: "M33", Identifier: "obj-m33"},
		{Name: "NGC224", Identifier: "obj-ngc224"},
	})

	clicks := map[string]int64{"obj-m31": 10, "obj-m32": 10, "obj-m33": 1}
	counter := func(id string) int64 { return clicks[id] }

	got := p.Autocomplete("M3", 10, counter)
	require.Len(t, got, 3)
	// M31 and M32 tie on click count -> lexicographic tie-break.
	assert.Equal(t, []string{"M31", "M32", "M33"}, got)
}

func TestPrefixAutocompleteCaseInsensitive(t *testing.T) {
	p := NewPrefix()
	p.Insert("Andromeda", "obj-1")
	got := p.Autocomplete("andro", 10, nil)
	assert.Equal(t, []string{"Andromeda"}, got)
}

func TestPrefixAutocompleteEmptyPrefixReturnsGlobalOrder(t *testing.T) {
	p := NewPrefix()
	p.Insert("Zeta", "obj-z")
	p.Insert("Alpha", "obj-a")
	got := p.Autocomplete("", 10, nil)
	assert.ElementsMatch(t, []string{"Zeta", "Alpha"}, got)
}

func TestPrefixRemove(t *testing.T) {
	p := NewPrefix()
	p.Insert("M31", "obj-1")
	require.Equal(t, 1, p.Size())
	p.Remove("M31")
	assert.Equal(t, 0, p.Size())
	assert.Empty(t, p.Autocomplete("M3", 10, nil))
}

func TestPrefixUnicodeMatchedByteWise(t *testing.T) {
	p := NewPrefix()
	p.Insert("Céphée", "obj-1")
	got := p.Autocomplete("Céph", 10, nil)
	assert.Equal(t, []string{"Céphée"}, got)
	// Wrong-case accented prefix does not match: only ASCII is folded.
	assert.Empty(t, p.Autocomplete("CÉPH", 10, nil))
}

func TestPrefixClearAndSize(t *testing.T) {
	p := NewPrefix()
	p.Insert("M31", "obj-1")
	p.Insert("M32", "obj-2")
	require.Equal(t, 2, p.Size())
	p.Clear()
	assert.Equal(t, 0, p.Size())
}
