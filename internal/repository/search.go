package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/stellarium-catalog/corestar/internal/index"
	"github.com/stellarium-catalog/corestar/internal/types"
)

// SearchByName runs a SQL LIKE query over identifier using pattern (spec
// §4.D). User-supplied '*' is mapped to SQL '%'; a pattern containing no
// wildcard is wrapped in '%…%' so a bare name behaves as a substring
// search.
func (r *Repository) SearchByName(ctx context.Context, pattern string, limit int) ([]*types.CelestialObject, error) {
	ctx, span := tracer.Start(ctx, "repository.SearchByName")
	defer span.End()

	sqlPattern := strings.ReplaceAll(pattern, "*", "%")
	if !strings.ContainsAny(sqlPattern, "%_") {
		sqlPattern = "%" + sqlPattern + "%"
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+objectColumns+` FROM celestial_objects WHERE identifier LIKE ? ORDER BY identifier LIMIT ?`,
		sqlPattern, limit)
	if err != nil {
		return nil, wrapDBError("search by name", err)
	}
	defer func() { _ = rows.Close() }()
	return scanAll(rows)
}

func scanAll(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]*types.CelestialObject, error) {
	var out []*types.CelestialObject
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, wrapDBError("scan object row", err)
		}
		out = append(out, obj)
	}
	return out, wrapDBError("iterate object rows", rows.Err())
}

// Search assembles a parameterized query honoring every non-default field
// of filter, ordered by filter.OrderBy and paginated by Limit/Offset
// (spec §4.D). Defaults come from types.DefaultCelestialSearchFilter;
// callers that built filter by hand should apply that first.
func (r *Repository) Search(ctx context.Context, filter types.CelestialSearchFilter) ([]*types.CelestialObject, error) {
	ctx, span := tracer.Start(ctx, "repository.Search")
	defer span.End()

	filter = filter.Normalize()

	var where []string
	var args []interface{}

	if filter.NamePattern != "" {
		where = append(where, "identifier LIKE ?")
		args = append(args, strings.ReplaceAll(filter.NamePattern, "*", "%"))
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Morphology != "" {
		where = append(where, "morphology = ?")
		args = append(args, filter.Morphology)
	}
	if filter.Constellation != "" {
		where = append(where, "constellation_en = ?")
		args = append(args, filter.Constellation)
	}
	where = append(where, "visual_magnitude BETWEEN ? AND ?")
	args = append(args, filter.MinMagnitude, filter.MaxMagnitude)
	where = append(where, "ra_deg BETWEEN ? AND ?")
	args = append(args, filter.MinRA, filter.MaxRA)
	where = append(where, "dec_deg BETWEEN ? AND ?")
	args = append(args, filter.MinDec, filter.MaxDec)

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	orderCol := orderByColumn(filter.OrderBy)
	direction := "ASC"
	if !filter.Ascending {
		direction = "DESC"
	}

	// filter.Limit == 0 means unbounded (e.g. SearchEngine loading the whole
	// catalog to populate its indices); a negative value is not a valid
	// request and falls back to the documented default of 100. Only a
	// strictly positive Limit adds a SQL LIMIT clause.
	limit := filter.Limit
	if limit < 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	limitSQL := ""
	if limit > 0 {
		limitSQL = "LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	// #nosec G201 - whereSQL/orderCol/direction/limitSQL are built from a
	// closed set of column names and placeholders, never raw user input.
	query := fmt.Sprintf(`SELECT %s FROM celestial_objects %s ORDER BY %s %s %s`,
		objectColumns, whereSQL, orderCol, direction, limitSQL)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("search objects", err)
	}
	defer func() { _ = rows.Close() }()
	return scanAll(rows)
}

// GetByType returns objects of the given type, ordered per the default
// filter ordering. A thin convenience wrapper over Search, grounded on
// original_source/src/target/celestial_repository.hpp's getByType.
func (r *Repository) GetByType(ctx context.Context, objType string, limit int) ([]*types.CelestialObject, error) {
	filter := types.DefaultCelestialSearchFilter()
	filter.Type = objType
	if limit > 0 {
		filter.Limit = limit
	}
	return r.Search(ctx, filter)
}

// GetByMagnitudeRange returns objects whose visual magnitude falls within
// [minMag, maxMag]. A thin convenience wrapper over Search, grounded on
// original_source/src/target/celestial_repository.hpp's getByMagnitudeRange.
func (r *Repository) GetByMagnitudeRange(ctx context.Context, minMag, maxMag float64, limit int) ([]*types.CelestialObject, error) {
	filter := types.DefaultCelestialSearchFilter()
	filter.MinMagnitude = minMag
	filter.MaxMagnitude = maxMag
	if limit > 0 {
		filter.Limit = limit
	}
	return r.Search(ctx, filter)
}

func orderByColumn(ob types.OrderBy) string {
	switch ob {
	case types.OrderByMagnitude:
		return "visual_magnitude"
	case types.OrderByRA:
		return "ra_deg"
	case types.OrderByDec:
		return "dec_deg"
	default:
		return "identifier"
	}
}

// FuzzySearch is the authoritative store-level fuzzy fallback (spec
// §4.D), used when the in-memory FuzzyIndex has been invalidated. It
// scans candidate rows, computes Levenshtein distance against identifier
// and every comma-split, trimmed alias, keeps the minimum per row, and
// returns those within tolerance, sorted ascending by distance then
// identifier.
func (r *Repository) FuzzySearch(ctx context.Context, name string, tolerance, limit int) ([]*types.CelestialObject, error) {
	ctx, span := tracer.Start(ctx, "repository.FuzzySearch")
	defer span.End()

	if tolerance < 0 {
		return nil, fmt.Errorf("fuzzy search: %w: tolerance must be >= 0", ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+objectColumns+` FROM celestial_objects`)
	if err != nil {
		return nil, wrapDBError("fuzzy search: scan candidates", err)
	}
	defer func() { _ = rows.Close() }()

	candidates, err := scanAll(rows)
	if err != nil {
		return nil, err
	}

	type scored struct {
		obj *types.CelestialObject
		d   int
	}
	var matches []scored
	for _, obj := range candidates {
		best := index.Levenshtein(name, obj.Identifier)
		for _, alias := range obj.AliasList() {
			if d := index.Levenshtein(name, alias); d < best {
				best = d
			}
		}
		if best <= tolerance {
			matches = append(matches, scored{obj, best})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].d != matches[j].d {
			return matches[i].d < matches[j].d
		}
		return matches[i].obj.Identifier < matches[j].obj.Identifier
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]*types.CelestialObject, len(matches))
	for i, m := range matches {
		out[i] = m.obj
	}
	return out, nil
}
