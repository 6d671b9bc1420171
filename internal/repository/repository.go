// Package repository implements the durable, backend-neutral catalog store
// of spec §4.D: prepared statements, transactions, and bulk I/O over a
// relational database. It is grounded on the teacher's two-backend storage
// design (internal/storage/sqlite and internal/storage/dolt), generalized
// from issue-tracking rows to celestial-object rows.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Dialect selects the SQL flavor spoken by the underlying *sql.DB. The
// Repository's logic is otherwise identical across backends; only schema
// DDL, a handful of upsert clauses, and Optimize's maintenance statements
// differ (spec §4.D: "Contract is backend-neutral").
type Dialect string

const (
	// DialectSQLite targets the pure-Go, CGO-free ncruces/go-sqlite3 driver.
	// This is the default, embedded backend.
	DialectSQLite Dialect = "sqlite"

	// DialectMySQL targets go-sql-driver/mysql, which also speaks the Dolt
	// server-mode wire protocol, enabling a Dolt-backed deployment without
	// a second driver import.
	DialectMySQL Dialect = "mysql"
)

const defaultChunkSize = 100

// Repository is the authoritative store for CelestialObject rows plus
// user ratings and search history (spec §4.D).
type Repository struct {
	db        *sql.DB
	dialect   Dialect
	log       *slog.Logger
	chunkSize int

	// stmts caches prepared statements keyed by SQL text. The pool is a
	// single shared *sql.DB, so statements may be safely reused across
	// goroutines (database/sql handles the underlying connection
	// checkout); see DESIGN.md's "prepared statement cache" decision.
	stmts sync.Map // string -> *sql.Stmt
}

// Option configures a Repository at construction time.
type Option func(*Repository)

// WithLogger injects a structured logger, following the teacher's
// daemon_event_loop.go pattern of passing *slog.Logger explicitly rather
// than reaching for a package-level global.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.log = l
		}
	}
}

// WithChunkSize overrides the batch-operation chunk size (default 100,
// spec §4.D).
func WithChunkSize(n int) Option {
	return func(r *Repository) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// Open opens dsn using the driver implied by dialect and initializes the
// schema. dsn for DialectSQLite is a file path (or ":memory:"); for
// DialectMySQL it is a go-sql-driver/mysql DSN, which may point at a Dolt
// sql-server for a version-controlled backend.
func Open(ctx context.Context, dialect Dialect, dsn string, opts ...Option) (*Repository, error) {
	driverName, err := driverNameFor(dialect)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	r := NewWithDB(db, dialect, opts...)
	if err := r.initializeSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// NewWithDB wraps an already-open *sql.DB (e.g. one shared with other
// subsystems, or configured with custom pool limits) without touching the
// schema. Callers are responsible for calling InitializeSchema themselves
// if the database may be empty.
func NewWithDB(db *sql.DB, dialect Dialect, opts ...Option) *Repository {
	r := &Repository{
		db:        db,
		dialect:   dialect,
		log:       slog.Default(),
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func driverNameFor(dialect Dialect) (string, error) {
	switch dialect {
	case DialectSQLite:
		return "sqlite3", nil
	case DialectMySQL:
		return "mysql", nil
	default:
		return "", fmt.Errorf("%w: unknown dialect %q", ErrInvalidArgument, dialect)
	}
}

// InitializeSchema creates tables and indices if they do not already
// exist (spec §6.3: "forward-compatible... adding columns is
// non-breaking"). Safe to call repeatedly.
func (r *Repository) InitializeSchema(ctx context.Context) error {
	return r.initializeSchema(ctx)
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "repository.initializeSchema")
	defer span.End()

	for _, stmt := range schemaStatements(r.dialect) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// DB exposes the underlying pool for callers that need it directly (e.g.
// a CLI's doctor/health-check command); internal operations never bypass
// the Repository's own methods.
func (r *Repository) DB() *sql.DB {
	return r.db
}

// prepared returns a cached *sql.Stmt for query, preparing and caching it
// on first use. Concurrent callers may race to prepare the same query;
// the loser's statement is closed and the winner's is used, which is
// cheaper than serializing preparation behind a mutex.
func (r *Repository) prepared(ctx context.Context, query string) (*sql.Stmt, error) {
	if cached, ok := r.stmts.Load(query); ok {
		return cached.(*sql.Stmt), nil
	}
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	if actual, loaded := r.stmts.LoadOrStore(query, stmt); loaded {
		_ = stmt.Close()
		return actual.(*sql.Stmt), nil
	}
	return stmt, nil
}

// tracer is the OTel tracer for repository-level spans, modeled on the
// teacher's doltTracer.
var tracer = otel.Tracer("github.com/stellarium-catalog/corestar/repository")

// repoMetrics holds OTel metric instruments, modeled on the teacher's
// doltMetrics. Instruments bind against the global provider at init time
// and forward to whatever provider the host process later installs.
var repoMetrics struct {
	opDuration  metric.Float64Histogram
	batchChunks metric.Int64Counter
	retryCount  metric.Int64Counter
}

func init() {
	m := otel.Meter("github.com/stellarium-catalog/corestar/repository")
	repoMetrics.opDuration, _ = m.Float64Histogram("corestar.repository.op_duration_ms",
		metric.WithDescription("Repository operation latency"),
		metric.WithUnit("ms"),
	)
	repoMetrics.batchChunks, _ = m.Int64Counter("corestar.repository.batch_chunks",
		metric.WithDescription("Batch operation chunks committed"),
		metric.WithUnit("{chunk}"),
	)
	repoMetrics.retryCount, _ = m.Int64Counter("corestar.repository.retry_count",
		metric.WithDescription("Operations retried after a transient store error"),
		metric.WithUnit("{retry}"),
	)
}
