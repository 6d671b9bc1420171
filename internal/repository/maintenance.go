package repository

import "context"

// Optimize runs the backend's VACUUM+ANALYZE equivalent (spec §4.D).
// MySQL/Dolt's OPTIMIZE TABLE plays the same role as SQLite's VACUUM.
func (r *Repository) Optimize(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "repository.Optimize")
	defer span.End()

	var stmts []string
	if r.dialect == DialectMySQL {
		stmts = []string{
			`OPTIMIZE TABLE celestial_objects`,
			`OPTIMIZE TABLE user_ratings`,
			`OPTIMIZE TABLE search_history`,
			`ANALYZE TABLE celestial_objects`,
		}
	} else {
		stmts = []string{`VACUUM`, `ANALYZE`}
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return wrapDBError("optimize", err)
		}
	}
	return nil
}

// CreateIndexes (re)creates the indices listed in schemaStatements,
// idempotently. Useful after a bulk import that was run with indices
// dropped for load speed.
func (r *Repository) CreateIndexes(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "repository.CreateIndexes")
	defer span.End()

	for _, stmt := range schemaStatements(r.dialect) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return wrapDBError("create indexes", err)
		}
	}
	return nil
}

// ClearAll deletes every row from celestial_objects and user_ratings,
// optionally including search_history (spec §4.D:
// "clearAll(includeHistory)").
func (r *Repository) ClearAll(ctx context.Context, includeHistory bool) error {
	ctx, span := tracer.Start(ctx, "repository.ClearAll")
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("clear all: begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_ratings`); err != nil {
		return wrapDBError("clear all: ratings", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM celestial_objects`); err != nil {
		return wrapDBError("clear all: objects", err)
	}
	if includeHistory {
		if _, err := tx.ExecContext(ctx, `DELETE FROM search_history`); err != nil {
			return wrapDBError("clear all: history", err)
		}
	}
	return wrapDBError("clear all: commit", tx.Commit())
}
