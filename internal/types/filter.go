package types

// OrderBy enumerates the columns CelestialSearchFilter can sort on (spec §4.E).
type OrderBy string

const (
	OrderByIdentifier OrderBy = "identifier"
	OrderByMagnitude  OrderBy = "magnitude"
	OrderByRA         OrderBy = "ra"
	OrderByDec        OrderBy = "dec"
)

// normalizeOrderBy maps an unknown orderBy value to "identifier" per spec.
func normalizeOrderBy(s string) OrderBy {
	switch OrderBy(s) {
	case OrderByIdentifier, OrderByMagnitude, OrderByRA, OrderByDec:
		return OrderBy(s)
	default:
		return OrderByIdentifier
	}
}

// CelestialSearchFilter is the deterministic predicate composed by
// FilterEvaluator and assembled into SQL by Repository.Search (spec §4.D, §4.E).
type CelestialSearchFilter struct {
	NamePattern   string
	Type          string
	Morphology    string
	Constellation string

	MinMagnitude float64
	MaxMagnitude float64

	MinRA float64
	MaxRA float64

	MinDec float64
	MaxDec float64

	Limit  int
	Offset int

	OrderBy   OrderBy
	Ascending bool
}

// DefaultCelestialSearchFilter returns the filter with every field at its
// spec-documented default.
func DefaultCelestialSearchFilter() CelestialSearchFilter {
	return CelestialSearchFilter{
		MinMagnitude: -30.0,
		MaxMagnitude: 30.0,
		MinRA:        0,
		MaxRA:        360,
		MinDec:       -90,
		MaxDec:       90,
		Limit:        100,
		Offset:       0,
		OrderBy:      OrderByIdentifier,
		Ascending:    true,
	}
}

// Normalize coerces an unrecognized OrderBy to "identifier", the only
// defaulting rule that's unambiguous on a zero-valued field (spec §4.E:
// "unknown → identifier"). Every other default is ambiguous against a Go
// zero value (0 is both "unset" and "a valid limit/offset/bound"), so
// callers that want spec defaults must start from
// DefaultCelestialSearchFilter() rather than a bare CelestialSearchFilter{}.
func (f CelestialSearchFilter) Normalize() CelestialSearchFilter {
	f.OrderBy = normalizeOrderBy(string(f.OrderBy))
	return f
}

// SearchOptions controls SearchEngine.Search (spec §6.2).
type SearchOptions struct {
	UseFuzzy       bool
	FuzzyTolerance int // 0..5
	SearchAliases  bool
	MaxResults     int
	Filter         *CelestialSearchFilter
}

// DefaultSearchOptions returns the spec-documented defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		UseFuzzy:       true,
		FuzzyTolerance: 2,
		SearchAliases:  true,
		MaxResults:     100,
	}
}

// ImportResult summarizes a JSON/CSV import (spec §4.D, §7).
type ImportResult struct {
	Total     int
	Success   int
	Error     int
	Duplicate int
	Errors    []ImportError
}

// ImportError is one per-record import failure, with enough context to find
// the offending record.
type ImportError struct {
	Line    int
	Record  string
	Message string
}

// Statistics is the denormalized summary returned by Repository.GetStatistics.
type Statistics struct {
	TotalObjects    int64
	CountByType     map[string]int64
	MinMagnitude    float64
	MaxMagnitude    float64
	AvgMagnitude    float64
	WithAliases     int64
	OldestCreatedAt int64
	NewestCreatedAt int64
}
