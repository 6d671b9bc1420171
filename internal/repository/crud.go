package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stellarium-catalog/corestar/internal/types"
)

const objectColumns = `id, identifier, m_identifier, extension_name, component, class_name,
	amateur_rank, chinese_name, type, duplicate_type, morphology, constellation_zh,
	constellation_en, ra_text, ra_deg, dec_text, dec_deg, visual_magnitude,
	photographic_magnitude, b_minus_v, surface_brightness, major_axis, minor_axis,
	position_angle, detailed_description, brief_description, aliases, click_count,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanObject(row rowScanner) (*types.CelestialObject, error) {
	var o types.CelestialObject
	var aliasesRaw string
	err := row.Scan(
		&o.ID, &o.Identifier, &o.MIdentifier, &o.ExtensionName, &o.Component, &o.ClassName,
		&o.AmateurRank, &o.ChineseName, &o.Type, &o.DuplicateType, &o.Morphology, &o.ConstellationZh,
		&o.Constellation, &o.RAText, &o.RADeg, &o.DecText, &o.DecDeg, &o.VisualMagnitude,
		&o.PhotographicMagnitude, &o.BMinusV, &o.SurfaceBrightness, &o.MajorAxis, &o.MinorAxis,
		&o.PositionAngle, &o.DetailedDescription, &o.BriefDescription, &aliasesRaw, &o.ClickCount,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Aliases = aliasesRaw
	return &o, nil
}

// Insert adds obj and returns its assigned row id, or -1 on failure
// (spec §4.D failure model). Runs inside the same transactional-retry
// path as the batch operations (SPEC_FULL.md: mutating operations run in
// an explicit transaction wrapped by exponential backoff).
func (r *Repository) Insert(ctx context.Context, obj *types.CelestialObject) (int64, error) {
	ctx, span := tracer.Start(ctx, "repository.Insert")
	defer span.End()
	start := time.Now()
	defer func() { repoMetrics.opDuration.Record(ctx, float64(time.Since(start).Milliseconds())) }()

	if obj.Identifier == "" {
		return -1, fmt.Errorf("insert: %w: identifier is required", ErrInvalidArgument)
	}
	if !obj.ValidCoordinates() {
		return -1, fmt.Errorf("insert: %w: coordinates out of range", ErrInvalidArgument)
	}
	now := time.Now().Unix()
	if obj.CreatedAt == 0 {
		obj.CreatedAt = now
	}
	obj.UpdatedAt = now

	id, err := runInTx(ctx, r, func(tx *sql.Tx) (int64, error) {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO celestial_objects (
				identifier, m_identifier, extension_name, component, class_name, amateur_rank,
				chinese_name, type, duplicate_type, morphology, constellation_zh, constellation_en,
				ra_text, ra_deg, dec_text, dec_deg, visual_magnitude, photographic_magnitude,
				b_minus_v, surface_brightness, major_axis, minor_axis, position_angle,
				detailed_description, brief_description, aliases, click_count, created_at, updated_at
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		`,
			obj.Identifier, obj.MIdentifier, obj.ExtensionName, obj.Component, obj.ClassName, obj.AmateurRank,
			obj.ChineseName, obj.Type, obj.DuplicateType, obj.Morphology, obj.ConstellationZh, obj.Constellation,
			obj.RAText, obj.RADeg, obj.DecText, obj.DecDeg, obj.VisualMagnitude, obj.PhotographicMagnitude,
			obj.BMinusV, obj.SurfaceBrightness, obj.MajorAxis, obj.MinorAxis, obj.PositionAngle,
			obj.DetailedDescription, obj.BriefDescription, obj.Aliases, obj.ClickCount, obj.CreatedAt, obj.UpdatedAt,
		)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	})
	if err != nil {
		return -1, err
	}
	obj.ID = id
	return id, nil
}

// Update overwrites obj by id, returning false if no row matched or the
// update failed (spec §4.D failure model). Runs inside the same
// transactional-retry path as the batch operations.
func (r *Repository) Update(ctx context.Context, obj *types.CelestialObject) (bool, error) {
	ctx, span := tracer.Start(ctx, "repository.Update")
	defer span.End()

	if obj.ID == 0 {
		return false, fmt.Errorf("update: %w: id is required", ErrInvalidArgument)
	}
	if !obj.ValidCoordinates() {
		return false, fmt.Errorf("update: %w: coordinates out of range", ErrInvalidArgument)
	}
	obj.UpdatedAt = time.Now().Unix()

	return runInTx(ctx, r, func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, `
			UPDATE celestial_objects SET
				identifier=?, m_identifier=?, extension_name=?, component=?, class_name=?, amateur_rank=?,
				chinese_name=?, type=?, duplicate_type=?, morphology=?, constellation_zh=?, constellation_en=?,
				ra_text=?, ra_deg=?, dec_text=?, dec_deg=?, visual_magnitude=?, photographic_magnitude=?,
				b_minus_v=?, surface_brightness=?, major_axis=?, minor_axis=?, position_angle=?,
				detailed_description=?, brief_description=?, aliases=?, click_count=?, updated_at=?
			WHERE id=?
		`,
			obj.Identifier, obj.MIdentifier, obj.ExtensionName, obj.Component, obj.ClassName, obj.AmateurRank,
			obj.ChineseName, obj.Type, obj.DuplicateType, obj.Morphology, obj.ConstellationZh, obj.Constellation,
			obj.RAText, obj.RADeg, obj.DecText, obj.DecDeg, obj.VisualMagnitude, obj.PhotographicMagnitude,
			obj.BMinusV, obj.SurfaceBrightness, obj.MajorAxis, obj.MinorAxis, obj.PositionAngle,
			obj.DetailedDescription, obj.BriefDescription, obj.Aliases, obj.ClickCount, obj.UpdatedAt, obj.ID,
		)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

// Remove deletes the row with the given id, returning false if it did not
// exist. Runs inside the same transactional-retry path as the batch
// operations.
func (r *Repository) Remove(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "repository.Remove")
	defer span.End()

	return runInTx(ctx, r, func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, `DELETE FROM celestial_objects WHERE id = ?`, id)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

// FindByID returns the row with the given id, or (nil, nil) if absent.
func (r *Repository) FindByID(ctx context.Context, id int64) (*types.CelestialObject, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByID")
	defer span.End()

	row := r.db.QueryRowContext(ctx, `SELECT `+objectColumns+` FROM celestial_objects WHERE id = ?`, id)
	obj, err := scanObject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, wrapDBError("find object by id", err)
	}
	return obj, nil
}

// FindByIdentifier returns the row whose identifier matches exactly, or
// failing that, the row whose comma-separated aliases list contains name as
// a whole entry. The alias fallback deliberately checks list membership
// rather than a raw LIKE '%name%' substring match, so a short identifier
// like "M3" cannot falsely match inside "M31,M32" (see DESIGN.md). Returns
// (nil, nil) if no row matches either way.
func (r *Repository) FindByIdentifier(ctx context.Context, name string) (*types.CelestialObject, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByIdentifier")
	defer span.End()

	if name == "" {
		return nil, fmt.Errorf("find by identifier: %w: name is required", ErrInvalidArgument)
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+objectColumns+` FROM celestial_objects WHERE identifier = ?`, name)
	obj, err := scanObject(row)
	if err == nil {
		return obj, nil
	}
	if err != sql.ErrNoRows {
		return nil, wrapDBError("find object by identifier", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+objectColumns+` FROM celestial_objects WHERE aliases LIKE ?`, "%"+name+"%")
	if err != nil {
		return nil, wrapDBError("find object by alias", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		candidate, err := scanObject(rows)
		if err != nil {
			return nil, wrapDBError("scan object by alias", err)
		}
		if candidate.HasAlias(name) {
			return candidate, nil
		}
	}
	return nil, wrapDBError("iterate objects by alias", rows.Err())
}
