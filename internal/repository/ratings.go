package repository

import (
	"context"
	"time"

	"github.com/stellarium-catalog/corestar/internal/types"
)

// AddRating upserts a user's rating for an object (spec §4.D:
// "addRating (upsert-unique)").
func (r *Repository) AddRating(ctx context.Context, userID string, objectID int64, rating int) error {
	ctx, span := tracer.Start(ctx, "repository.AddRating")
	defer span.End()

	query := `INSERT INTO user_ratings (user_id, object_id, rating, timestamp) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, object_id) DO UPDATE SET rating = excluded.rating, timestamp = excluded.timestamp`
	if r.dialect == DialectMySQL {
		query = `INSERT INTO user_ratings (user_id, object_id, rating, timestamp) VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE rating = VALUES(rating), timestamp = VALUES(timestamp)`
	}
	_, err := r.db.ExecContext(ctx, query, userID, objectID, rating, time.Now().Unix())
	return wrapDBError("add rating", err)
}

// GetUserRatings returns every rating a user has submitted.
func (r *Repository) GetUserRatings(ctx context.Context, userID string) ([]types.UserRating, error) {
	ctx, span := tracer.Start(ctx, "repository.GetUserRatings")
	defer span.End()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, object_id, rating, timestamp FROM user_ratings WHERE user_id = ? ORDER BY timestamp DESC`,
		userID)
	if err != nil {
		return nil, wrapDBError("get user ratings", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.UserRating
	for rows.Next() {
		var ur types.UserRating
		if err := rows.Scan(&ur.ID, &ur.UserID, &ur.ObjectID, &ur.Rating, &ur.Timestamp); err != nil {
			return nil, wrapDBError("scan user rating", err)
		}
		out = append(out, ur)
	}
	return out, wrapDBError("iterate user ratings", rows.Err())
}

// GetAverageRating returns the mean rating for objectID, or 0 if unrated.
func (r *Repository) GetAverageRating(ctx context.Context, objectID int64) (float64, error) {
	ctx, span := tracer.Start(ctx, "repository.GetAverageRating")
	defer span.End()

	var avg *float64
	err := r.db.QueryRowContext(ctx, `SELECT AVG(rating) FROM user_ratings WHERE object_id = ?`, objectID).Scan(&avg)
	if err != nil {
		return 0, wrapDBError("get average rating", err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// RecordSearch appends an entry to the search history log (spec §4.D).
func (r *Repository) RecordSearch(ctx context.Context, userID, query, searchType string, resultCount int) error {
	ctx, span := tracer.Start(ctx, "repository.RecordSearch")
	defer span.End()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO search_history (user_id, query, search_type, timestamp, result_count) VALUES (?, ?, ?, ?, ?)`,
		userID, query, searchType, time.Now().Unix(), resultCount)
	return wrapDBError("record search", err)
}

// GetSearchHistory returns a user's most recent searches, newest first.
func (r *Repository) GetSearchHistory(ctx context.Context, userID string, limit int) ([]types.SearchHistory, error) {
	ctx, span := tracer.Start(ctx, "repository.GetSearchHistory")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, query, search_type, timestamp, result_count FROM search_history
		 WHERE user_id = ? ORDER BY timestamp DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, wrapDBError("get search history", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.SearchHistory
	for rows.Next() {
		var sh types.SearchHistory
		if err := rows.Scan(&sh.ID, &sh.UserID, &sh.Query, &sh.SearchType, &sh.Timestamp, &sh.ResultCount); err != nil {
			return nil, wrapDBError("scan search history", err)
		}
		out = append(out, sh)
	}
	return out, wrapDBError("iterate search history", rows.Err())
}

// GetPopularSearches returns the most frequent query strings logged,
// most-frequent first.
func (r *Repository) GetPopularSearches(ctx context.Context, limit int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "repository.GetPopularSearches")
	defer span.End()

	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT query FROM search_history GROUP BY query ORDER BY COUNT(*) DESC, query ASC LIMIT ?`, limit)
	if err != nil {
		return nil, wrapDBError("get popular searches", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, wrapDBError("scan popular search", err)
		}
		out = append(out, q)
	}
	return out, wrapDBError("iterate popular searches", rows.Err())
}
