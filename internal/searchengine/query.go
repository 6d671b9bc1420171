package searchengine

import (
	"context"

	"github.com/stellarium-catalog/corestar/internal/types"
)

// Search dispatches query per spec §4.F: an exact identifier hit short-
// circuits everything else; otherwise, when fuzzy matching is requested, it
// falls back to the fuzzy path. An un-initialized engine returns an empty
// result with a logged warning rather than an error (spec §4.F: "Failure
// semantics").
func (e *Engine) Search(ctx context.Context, query string, opts types.SearchOptions) ([]*types.CelestialObject, error) {
	ctx, span := tracer.Start(ctx, "searchengine.Search")
	defer span.End()
	engineMetrics.queryCount.Add(ctx, 1)

	if !e.Initialized() {
		e.log.WarnContext(ctx, "search called before initialize", "query", query)
		return nil, nil
	}

	if exact, err := e.ExactSearch(ctx, query, 1); err != nil {
		return nil, err
	} else if len(exact) > 0 {
		return exact, nil
	}

	if opts.UseFuzzy && opts.FuzzyTolerance > 0 {
		results, err := e.FuzzySearch(ctx, query, opts.FuzzyTolerance, opts.MaxResults)
		if err != nil {
			return nil, err
		}
		return truncate(results, opts.MaxResults), nil
	}

	return nil, nil
}

// ExactSearch resolves query against the Repository's identifier/alias
// lookup, wrapped as a single-element or empty slice (spec §4.F).
func (e *Engine) ExactSearch(ctx context.Context, query string, limit int) ([]*types.CelestialObject, error) {
	ctx, span := tracer.Start(ctx, "searchengine.ExactSearch")
	defer span.End()

	obj, err := e.store.FindByIdentifier(ctx, query)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	if limit > 0 {
		return []*types.CelestialObject{obj}, nil
	}
	return nil, nil
}

// FuzzySearch matches query against the FuzzyIndex, resolves each hit
// through the Repository, skips identifiers the Repository no longer
// knows about (a race with a concurrent delete), and preserves the
// FuzzyIndex's distance ordering (spec §4.F).
func (e *Engine) FuzzySearch(ctx context.Context, query string, tolerance, limit int) ([]*types.CelestialObject, error) {
	ctx, span := tracer.Start(ctx, "searchengine.FuzzySearch")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	e.mu.RLock()
	matches := e.fuzzy.Match(query, tolerance, limit)
	e.mu.RUnlock()

	out := make([]*types.CelestialObject, 0, len(matches))
	for _, m := range matches {
		obj, err := e.store.FindByIdentifier(ctx, m.Identifier)
		if err != nil {
			return nil, err
		}
		if obj == nil {
			continue // resolved identifier no longer exists; skip
		}
		out = append(out, obj)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// SearchByCoordinates resolves SpatialIndex.SearchRadius hits through the
// Repository, preserving ascending-distance order (spec §4.F).
func (e *Engine) SearchByCoordinates(ctx context.Context, ra, dec, radiusDeg float64, limit int) ([]*types.CelestialObject, error) {
	ctx, span := tracer.Start(ctx, "searchengine.SearchByCoordinates")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	e.mu.RLock()
	matches := e.spatial.SearchRadius(ra, dec, radiusDeg, limit)
	e.mu.RUnlock()

	out := make([]*types.CelestialObject, 0, len(matches))
	for _, m := range matches {
		obj, err := e.store.FindByIdentifier(ctx, m.Identifier)
		if err != nil {
			return nil, err
		}
		if obj == nil {
			continue
		}
		out = append(out, obj)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Autocomplete returns surface-form names (not objects) from the
// PrefixIndex, ranked by click_count then lexicographic order (spec §4.A,
// §4.F).
func (e *Engine) Autocomplete(ctx context.Context, prefix string, limit int) []string {
	_, span := tracer.Start(ctx, "searchengine.Autocomplete")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.prefix.Autocomplete(prefix, limit, e.clickCounter())
}

// AdvancedSearch delegates directly to Repository.Search (spec §4.F);
// FilterEvaluator-based post-filtering, if any, is the caller's
// responsibility (the Repository query already honors every filter
// field, so post-filtering is only needed against a result set obtained
// some other way).
func (e *Engine) AdvancedSearch(ctx context.Context, filter types.CelestialSearchFilter) ([]*types.CelestialObject, error) {
	ctx, span := tracer.Start(ctx, "searchengine.AdvancedSearch")
	defer span.End()
	return e.store.Search(ctx, filter)
}

func truncate(rows []*types.CelestialObject, limit int) []*types.CelestialObject {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
