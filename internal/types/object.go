// Package types defines the data model shared across the catalog core:
// celestial objects, user ratings, search history, and the filter/option
// structs used to query them.
package types

import "strings"

// CelestialObject is a single catalog row (spec.md §3).
type CelestialObject struct {
	ID         int64
	Identifier string

	Type          string
	Morphology    string
	ClassName     string
	DuplicateType string

	MIdentifier   string
	ExtensionName string
	Component     string
	ChineseName   string
	Aliases       string // comma-separated

	RAText  string
	DecText string
	RADeg   float64
	DecDeg  float64

	VisualMagnitude       float64
	PhotographicMagnitude float64
	BMinusV               float64
	SurfaceBrightness     float64

	MajorAxis     float64
	MinorAxis     float64
	PositionAngle float64

	BriefDescription    string
	DetailedDescription string

	Constellation   string // constellation_en
	ConstellationZh string

	ClickCount  int64
	AmateurRank int

	CreatedAt int64 // Unix seconds
	UpdatedAt int64
}

// AliasList splits Aliases on commas, trims whitespace, and drops empties.
func (o *CelestialObject) AliasList() []string {
	if o == nil || o.Aliases == "" {
		return nil
	}
	parts := strings.Split(o.Aliases, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasAlias reports whether name exactly matches (case-sensitive) one of the
// object's aliases. Used by Repository.FindByIdentifier's alias fallback —
// membership, not substring match (see DESIGN.md Open Questions).
func (o *CelestialObject) HasAlias(name string) bool {
	for _, a := range o.AliasList() {
		if a == name {
			return true
		}
	}
	return false
}

// ValidCoordinates reports whether RADeg/DecDeg satisfy invariant I2.
func (o *CelestialObject) ValidCoordinates() bool {
	return o.RADeg >= 0 && o.RADeg < 360 && o.DecDeg >= -90 && o.DecDeg <= 90
}

// UserRating is the (user_id, object_id, rating, timestamp) tuple of §3.
type UserRating struct {
	ID        int64
	UserID    string
	ObjectID  int64
	Rating    int
	Timestamp int64
}

// SearchHistory is the append-only (user_id, query, search_type, timestamp,
// result_count) tuple of §3.
type SearchHistory struct {
	ID          int64
	UserID      string
	Query       string
	SearchType  string
	Timestamp   int64
	ResultCount int
}
