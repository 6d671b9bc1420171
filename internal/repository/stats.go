package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/stellarium-catalog/corestar/internal/types"
)

// Count returns the total number of rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "repository.Count")
	defer span.End()

	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM celestial_objects`).Scan(&n)
	if err != nil {
		return -1, wrapDBError("count objects", err)
	}
	return n, nil
}

// CountByType returns the row count per distinct type value.
func (r *Repository) CountByType(ctx context.Context) (map[string]int64, error) {
	ctx, span := tracer.Start(ctx, "repository.CountByType")
	defer span.End()

	rows, err := r.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM celestial_objects GROUP BY type`)
	if err != nil {
		return nil, wrapDBError("count objects by type", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int64)
	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, wrapDBError("scan count by type", err)
		}
		out[typ] = n
	}
	return out, wrapDBError("iterate count by type", rows.Err())
}

// IncrementClickCount atomically increments click_count for identifier by
// 1 and returns the new value, or -1 if the identifier does not exist
// (spec §4.D, P10: strictly increasing, never decreasing).
func (r *Repository) IncrementClickCount(ctx context.Context, identifier string) (int64, error) {
	ctx, span := tracer.Start(ctx, "repository.IncrementClickCount")
	defer span.End()

	res, err := r.db.ExecContext(ctx, `UPDATE celestial_objects SET click_count = click_count + 1 WHERE identifier = ?`, identifier)
	if err != nil {
		return -1, wrapDBError("increment click count", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return -1, wrapDBError("increment click count: rows affected", err)
	}
	if n == 0 {
		return -1, nil
	}
	var count int64
	err = r.db.QueryRowContext(ctx, `SELECT click_count FROM celestial_objects WHERE identifier = ?`, identifier).Scan(&count)
	if err != nil {
		return -1, wrapDBError("increment click count: read back", err)
	}
	return count, nil
}

// GetMostPopular returns the limit rows with the highest click_count,
// ties broken by identifier.
func (r *Repository) GetMostPopular(ctx context.Context, limit int) ([]*types.CelestialObject, error) {
	ctx, span := tracer.Start(ctx, "repository.GetMostPopular")
	defer span.End()

	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+objectColumns+` FROM celestial_objects ORDER BY click_count DESC, identifier ASC LIMIT ?`, limit)
	if err != nil {
		return nil, wrapDBError("get most popular", err)
	}
	defer func() { _ = rows.Close() }()
	return scanAll(rows)
}

// GetStatistics returns an aggregate snapshot of the catalog (spec §4.D:
// "getStatistics (returns a JSON blob)").
func (r *Repository) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	ctx, span := tracer.Start(ctx, "repository.GetStatistics")
	defer span.End()

	stats := &types.Statistics{CountByType: make(map[string]int64)}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM celestial_objects`).Scan(&stats.TotalObjects); err != nil {
		return nil, wrapDBError("get statistics: count", err)
	}

	byType, err := r.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	stats.CountByType = byType

	var minMag, maxMag, avgMag sql.NullFloat64
	err = r.db.QueryRowContext(ctx,
		`SELECT MIN(visual_magnitude), MAX(visual_magnitude), AVG(visual_magnitude) FROM celestial_objects`,
	).Scan(&minMag, &maxMag, &avgMag)
	if err != nil {
		return nil, wrapDBError("get statistics: magnitude", err)
	}
	stats.MinMagnitude = minMag.Float64
	stats.MaxMagnitude = maxMag.Float64
	stats.AvgMagnitude = avgMag.Float64

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM celestial_objects WHERE aliases IS NOT NULL AND aliases != ''`,
	).Scan(&stats.WithAliases)
	if err != nil {
		return nil, wrapDBError("get statistics: aliases", err)
	}

	var oldest, newest sql.NullInt64
	err = r.db.QueryRowContext(ctx,
		`SELECT MIN(created_at), MAX(created_at) FROM celestial_objects`,
	).Scan(&oldest, &newest)
	if err != nil {
		return nil, wrapDBError("get statistics: timestamps", err)
	}
	if oldest.Valid {
		stats.OldestCreatedAt = oldest.Int64
	}
	if newest.Valid {
		stats.NewestCreatedAt = newest.Int64
	}

	return stats, nil
}

// GetStatisticsJSON returns the same snapshot as GetStatistics, serialized
// to JSON, matching the spec's "returns a JSON blob" phrasing for callers
// that want a wire-ready payload without depending on types.Statistics.
func (r *Repository) GetStatisticsJSON(ctx context.Context) ([]byte, error) {
	stats, err := r.GetStatistics(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(stats, "", "  ")
}
