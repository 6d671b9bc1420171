package repository

// schemaStatements returns the DDL for dialect, covering celestial_objects,
// user_ratings, search_history and the indices listed in spec §4.D. Column
// types differ slightly by dialect (SQLite is dynamically typed; MySQL/Dolt
// need explicit VARCHAR lengths for indexed text columns) but the logical
// schema is identical.
func schemaStatements(dialect Dialect) []string {
	switch dialect {
	case DialectMySQL:
		return mysqlSchema
	default:
		return sqliteSchema
	}
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS celestial_objects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		identifier TEXT NOT NULL UNIQUE,
		m_identifier TEXT NOT NULL DEFAULT '',
		extension_name TEXT NOT NULL DEFAULT '',
		component TEXT NOT NULL DEFAULT '',
		class_name TEXT NOT NULL DEFAULT '',
		amateur_rank INTEGER NOT NULL DEFAULT 0,
		chinese_name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		duplicate_type TEXT NOT NULL DEFAULT '',
		morphology TEXT NOT NULL DEFAULT '',
		constellation_zh TEXT NOT NULL DEFAULT '',
		constellation_en TEXT NOT NULL DEFAULT '',
		ra_text TEXT NOT NULL DEFAULT '',
		ra_deg REAL NOT NULL DEFAULT 0,
		dec_text TEXT NOT NULL DEFAULT '',
		dec_deg REAL NOT NULL DEFAULT 0,
		visual_magnitude REAL NOT NULL DEFAULT 0,
		photographic_magnitude REAL NOT NULL DEFAULT 0,
		b_minus_v REAL NOT NULL DEFAULT 0,
		surface_brightness REAL NOT NULL DEFAULT 0,
		major_axis REAL NOT NULL DEFAULT 0,
		minor_axis REAL NOT NULL DEFAULT 0,
		position_angle REAL NOT NULL DEFAULT 0,
		detailed_description TEXT NOT NULL DEFAULT '',
		brief_description TEXT NOT NULL DEFAULT '',
		aliases TEXT NOT NULL DEFAULT '',
		click_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_objects_identifier ON celestial_objects(identifier)`,
	`CREATE INDEX IF NOT EXISTS idx_objects_type ON celestial_objects(type)`,
	`CREATE INDEX IF NOT EXISTS idx_objects_magnitude ON celestial_objects(visual_magnitude)`,
	`CREATE INDEX IF NOT EXISTS idx_objects_constellation ON celestial_objects(constellation_en)`,
	`CREATE INDEX IF NOT EXISTS idx_objects_coords ON celestial_objects(ra_deg, dec_deg)`,
	`CREATE INDEX IF NOT EXISTS idx_objects_clicks ON celestial_objects(click_count DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_objects_aliases ON celestial_objects(aliases)`,
	`CREATE TABLE IF NOT EXISTS user_ratings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		object_id INTEGER NOT NULL,
		rating INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		UNIQUE(user_id, object_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ratings_user ON user_ratings(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ratings_object ON user_ratings(object_id)`,
	`CREATE TABLE IF NOT EXISTS search_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL DEFAULT '',
		query TEXT NOT NULL,
		search_type TEXT NOT NULL DEFAULT '',
		timestamp INTEGER NOT NULL,
		result_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_user ON search_history(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_history_query ON search_history(query)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS celestial_objects (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		identifier VARCHAR(191) NOT NULL,
		m_identifier VARCHAR(191) NOT NULL DEFAULT '',
		extension_name VARCHAR(191) NOT NULL DEFAULT '',
		component VARCHAR(64) NOT NULL DEFAULT '',
		class_name VARCHAR(191) NOT NULL DEFAULT '',
		amateur_rank INT NOT NULL DEFAULT 0,
		chinese_name VARCHAR(191) NOT NULL DEFAULT '',
		type VARCHAR(64) NOT NULL DEFAULT '',
		duplicate_type VARCHAR(64) NOT NULL DEFAULT '',
		morphology VARCHAR(64) NOT NULL DEFAULT '',
		constellation_zh VARCHAR(64) NOT NULL DEFAULT '',
		constellation_en VARCHAR(64) NOT NULL DEFAULT '',
		ra_text VARCHAR(64) NOT NULL DEFAULT '',
		ra_deg DOUBLE NOT NULL DEFAULT 0,
		dec_text VARCHAR(64) NOT NULL DEFAULT '',
		dec_deg DOUBLE NOT NULL DEFAULT 0,
		visual_magnitude DOUBLE NOT NULL DEFAULT 0,
		photographic_magnitude DOUBLE NOT NULL DEFAULT 0,
		b_minus_v DOUBLE NOT NULL DEFAULT 0,
		surface_brightness DOUBLE NOT NULL DEFAULT 0,
		major_axis DOUBLE NOT NULL DEFAULT 0,
		minor_axis DOUBLE NOT NULL DEFAULT 0,
		position_angle DOUBLE NOT NULL DEFAULT 0,
		detailed_description TEXT,
		brief_description TEXT,
		aliases TEXT,
		click_count BIGINT NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		UNIQUE KEY uq_objects_identifier (identifier),
		KEY idx_objects_type (type),
		KEY idx_objects_magnitude (visual_magnitude),
		KEY idx_objects_constellation (constellation_en),
		KEY idx_objects_coords (ra_deg, dec_deg),
		KEY idx_objects_clicks (click_count DESC)
	)`,
	`CREATE TABLE IF NOT EXISTS user_ratings (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id VARCHAR(191) NOT NULL,
		object_id BIGINT NOT NULL,
		rating INT NOT NULL,
		timestamp BIGINT NOT NULL,
		UNIQUE KEY uq_ratings_user_object (user_id, object_id),
		KEY idx_ratings_user (user_id),
		KEY idx_ratings_object (object_id)
	)`,
	`CREATE TABLE IF NOT EXISTS search_history (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id VARCHAR(191) NOT NULL DEFAULT '',
		query VARCHAR(512) NOT NULL,
		search_type VARCHAR(32) NOT NULL DEFAULT '',
		timestamp BIGINT NOT NULL,
		result_count INT NOT NULL DEFAULT 0,
		KEY idx_history_user (user_id),
		KEY idx_history_query (query(191))
	)`,
}
