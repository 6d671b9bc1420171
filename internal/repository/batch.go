package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/stellarium-catalog/corestar/internal/types"
)

// BatchResult reports how many chunks of a batch operation committed
// successfully before a failure, if any (spec §4.D: "a failed chunk rolls
// back and the caller is informed of the successful-chunks count").
type BatchResult struct {
	TotalChunks      int
	SuccessfulChunks int
	RowsWritten      int
}

// chunks splits objs into groups of at most r.chunkSize.
func (r *Repository) chunks(objs []*types.CelestialObject) [][]*types.CelestialObject {
	if r.chunkSize <= 0 {
		return [][]*types.CelestialObject{objs}
	}
	var out [][]*types.CelestialObject
	for len(objs) > 0 {
		n := r.chunkSize
		if n > len(objs) {
			n = len(objs)
		}
		out = append(out, objs[:n])
		objs = objs[n:]
	}
	return out
}

// BatchInsert inserts objs in transactional chunks of r.chunkSize. A
// chunk is all-or-nothing; the first chunk to fail is rolled back and the
// count of previously committed chunks is returned alongside the error.
func (r *Repository) BatchInsert(ctx context.Context, objs []*types.CelestialObject) (BatchResult, error) {
	ctx, span := tracer.Start(ctx, "repository.BatchInsert")
	defer span.End()

	groups := r.chunks(objs)
	result := BatchResult{TotalChunks: len(groups)}
	for _, group := range groups {
		n, err := runInTx(ctx, r, func(tx *sql.Tx) (int, error) {
			return insertChunk(ctx, tx, group)
		})
		if err != nil {
			return result, fmt.Errorf("batch insert: %w: %w", ErrChunkFailed, err)
		}
		result.SuccessfulChunks++
		result.RowsWritten += n
		repoMetrics.batchChunks.Add(ctx, 1)
	}
	return result, nil
}

func insertChunk(ctx context.Context, tx *sql.Tx, group []*types.CelestialObject) (int, error) {
	for _, obj := range group {
		if obj.Identifier == "" {
			return 0, fmt.Errorf("%w: identifier is required", ErrInvalidArgument)
		}
		now := time.Now().Unix()
		if obj.CreatedAt == 0 {
			obj.CreatedAt = now
		}
		obj.UpdatedAt = now
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
		if id, err := res.LastInsertId(); err == nil {
			obj.ID = id
		}
	}
	return len(group), nil
}

// BatchUpdate updates objs (by id) in transactional chunks, same
// all-or-nothing-per-chunk semantics as BatchInsert.
func (r *Repository) BatchUpdate(ctx context.Context, objs []*types.CelestialObject) (BatchResult, error) {
	ctx, span := tracer.Start(ctx, "repository.BatchUpdate")
	defer span.End()

	groups := r.chunks(objs)
	result := BatchResult{TotalChunks: len(groups)}
	for _, group := range groups {
		n, err := runInTx(ctx, r, func(tx *sql.Tx) (int, error) {
			return updateChunk(ctx, tx, group)
		})
		if err != nil {
			return result, fmt.Errorf("batch update: %w: %w", ErrChunkFailed, err)
		}
		result.SuccessfulChunks++
		result.RowsWritten += n
		repoMetrics.batchChunks.Add(ctx, 1)
	}
	return result, nil
}

func updateChunk(ctx context.Context, tx *sql.Tx, group []*types.CelestialObject) (int, error) {
	n := 0
	for _, obj := range group {
		if obj.ID == 0 {
			return 0, fmt.Errorf("%w: id is required", ErrInvalidArgument)
		}
		obj.UpdatedAt = time.Now().Unix()
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
			return 0, err
		}
		if affected, err := res.RowsAffected(); err == nil {
			n += int(affected)
		}
	}
	return n, nil
}

// Upsert inserts obj, or updates the existing row sharing its identifier,
// in a single statement per dialect's native upsert syntax, run through
// the same transactional-retry path as the batch operations (spec §4.D:
// "import is upsert-by-identifier"; SPEC_FULL.md: mutating operations run
// inside an explicit transaction wrapped by exponential backoff).
func (r *Repository) Upsert(ctx context.Context, obj *types.CelestialObject) error {
	ctx, span := tracer.Start(ctx, "repository.Upsert")
	defer span.End()

	if obj.Identifier == "" {
		return fmt.Errorf("upsert: %w: identifier is required", ErrInvalidArgument)
	}
	now := time.Now().Unix()
	if obj.CreatedAt == 0 {
		obj.CreatedAt = now
	}
	obj.UpdatedAt = now

	query := upsertQuery(r.dialect)
	_, err := runInTx(ctx, r, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, query,
			obj.Identifier, obj.MIdentifier, obj.ExtensionName, obj.Component, obj.ClassName, obj.AmateurRank,
			obj.ChineseName, obj.Type, obj.DuplicateType, obj.Morphology, obj.ConstellationZh, obj.Constellation,
			obj.RAText, obj.RADeg, obj.DecText, obj.DecDeg, obj.VisualMagnitude, obj.PhotographicMagnitude,
			obj.BMinusV, obj.SurfaceBrightness, obj.MajorAxis, obj.MinorAxis, obj.PositionAngle,
			obj.DetailedDescription, obj.BriefDescription, obj.Aliases, obj.ClickCount, obj.CreatedAt, obj.UpdatedAt,
		)
		return struct{}{}, err
	})
	return err
}

func upsertQuery(dialect Dialect) string {
	base := `INSERT INTO celestial_objects (
		identifier, m_identifier, extension_name, component, class_name, amateur_rank,
		chinese_name, type, duplicate_type, morphology, constellation_zh, constellation_en,
		ra_text, ra_deg, dec_text, dec_deg, visual_magnitude, photographic_magnitude,
		b_minus_v, surface_brightness, major_axis, minor_axis, position_angle,
		detailed_description, brief_description, aliases, click_count, created_at, updated_at
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

	if dialect == DialectMySQL {
		return base + ` ON DUPLICATE KEY UPDATE
			m_identifier=VALUES(m_identifier), extension_name=VALUES(extension_name),
			component=VALUES(component), class_name=VALUES(class_name), amateur_rank=VALUES(amateur_rank),
			chinese_name=VALUES(chinese_name), type=VALUES(type), duplicate_type=VALUES(duplicate_type),
			morphology=VALUES(morphology), constellation_zh=VALUES(constellation_zh),
			constellation_en=VALUES(constellation_en), ra_text=VALUES(ra_text), ra_deg=VALUES(ra_deg),
			dec_text=VALUES(dec_text), dec_deg=VALUES(dec_deg), visual_magnitude=VALUES(visual_magnitude),
			photographic_magnitude=VALUES(photographic_magnitude), b_minus_v=VALUES(b_minus_v),
			surface_brightness=VALUES(surface_brightness), major_axis=VALUES(major_axis),
			minor_axis=VALUES(minor_axis), position_angle=VALUES(position_angle),
			detailed_description=VALUES(detailed_description), brief_description=VALUES(brief_description),
			aliases=VALUES(aliases), updated_at=VALUES(updated_at)`
	}
	return base + ` ON CONFLICT(identifier) DO UPDATE SET
		m_identifier=excluded.m_identifier, extension_name=excluded.extension_name,
		component=excluded.component, class_name=excluded.class_name, amateur_rank=excluded.amateur_rank,
		chinese_name=excluded.chinese_name, type=excluded.type, duplicate_type=excluded.duplicate_type,
		morphology=excluded.morphology, constellation_zh=excluded.constellation_zh,
		constellation_en=excluded.constellation_en, ra_text=excluded.ra_text, ra_deg=excluded.ra_deg,
		dec_text=excluded.dec_text, dec_deg=excluded.dec_deg, visual_magnitude=excluded.visual_magnitude,
		photographic_magnitude=excluded.photographic_magnitude, b_minus_v=excluded.b_minus_v,
		surface_brightness=excluded.surface_brightness, major_axis=excluded.major_axis,
		minor_axis=excluded.minor_axis, position_angle=excluded.position_angle,
		detailed_description=excluded.detailed_description, brief_description=excluded.brief_description,
		aliases=excluded.aliases, updated_at=excluded.updated_at`
}

// runInTx executes fn inside a transaction, retrying the whole attempt on
// a transient store error (e.g. "database is locked", a brief network
// blip against a Dolt/MySQL server mode backend). Retry is grounded on
// the teacher's DoltStore.withRetry / newServerRetryBackoff design. A free
// function rather than a method because Go methods cannot carry their own
// type parameters; every mutating Repository method (Insert, Update,
// Remove, Upsert, the batch variants) routes through this one retry path.
func runInTx[T any](ctx context.Context, r *Repository, fn func(tx *sql.Tx) (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	attempts := 0
	var result T
	err := backoff.Retry(func() error {
		attempts++
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			if isRetryableStoreError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		result, err = fn(tx)
		if err != nil {
			_ = tx.Rollback()
			if isRetryableStoreError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if err := tx.Commit(); err != nil {
			if isRetryableStoreError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))

	if attempts > 1 {
		repoMetrics.retryCount.Add(ctx, int64(attempts-1))
	}
	if err != nil {
		var zero T
		return zero, wrapDBError("transaction", err)
	}
	return result, nil
}

// isRetryableStoreError reports whether err represents a transient
// condition worth a retry, grounded on the teacher's
// internal/storage/dolt.isRetryableError / isLockError.
func isRetryableStoreError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, needle := range []string{
		"database is locked",
		"driver: bad connection",
		"invalid connection",
		"broken pipe",
		"connection reset",
		"connection refused",
		"i/o timeout",
		"gone away",
		"lost connection",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
