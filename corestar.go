// Package corestar provides the public surface of the catalog search
// core for embedding callers: a Repository-backed SearchEngine plus the
// JSON/CSV import-export helpers. External HTTP handlers, CLIs, and other
// out-of-scope collaborators (spec §1, §6.4) are expected to depend only
// on this package and the re-exported types below, never on internal/*
// directly.
package corestar

import (
	"context"

	"github.com/stellarium-catalog/corestar/internal/catalogio"
	"github.com/stellarium-catalog/corestar/internal/config"
	"github.com/stellarium-catalog/corestar/internal/repository"
	"github.com/stellarium-catalog/corestar/internal/searchengine"
	"github.com/stellarium-catalog/corestar/internal/types"
)

// Core domain types, re-exported so callers never need to import
// internal/types directly.
type (
	CelestialObject       = types.CelestialObject
	CelestialSearchFilter = types.CelestialSearchFilter
	SearchOptions         = types.SearchOptions
	OrderBy               = types.OrderBy
	ImportResult          = types.ImportResult
	ImportError           = types.ImportError
	Statistics            = types.Statistics
)

// DefaultSearchOptions and DefaultCelestialSearchFilter mirror the
// zero-value defaults spec §6.2 documents for SearchOptions and
// CelestialSearchFilter.
var (
	DefaultSearchOptions         = types.DefaultSearchOptions
	DefaultCelestialSearchFilter = types.DefaultCelestialSearchFilter
)

// Repository is the durable backend store (spec §4.D). Dialect and its
// constants are re-exported, and OpenRepository wraps repository.Open, so
// embedding callers can construct one without reaching into
// internal/repository.
type (
	Repository = repository.Repository
	Dialect    = repository.Dialect
)

const (
	DialectSQLite = repository.DialectSQLite
	DialectMySQL  = repository.DialectMySQL
)

// OpenRepository opens dsn using the driver implied by dialect and
// initializes the schema if needed (spec §6.3).
func OpenRepository(ctx context.Context, dialect Dialect, dsn string, opts ...repository.Option) (*Repository, error) {
	return repository.Open(ctx, dialect, dsn, opts...)
}

// Engine is the concurrent, lock-protected search core of spec §4.F,
// composing the prefix/fuzzy/spatial indices over a Repository.
type Engine = searchengine.Engine

// NewEngine builds a SearchEngine over store. Call Initialize before
// issuing queries (spec §4.F: "State/Lifecycle").
func NewEngine(store searchengine.Store, opts ...searchengine.Option) *Engine {
	return searchengine.New(store, opts...)
}

// ServiceConfig is the layered configuration spec §6.3 describes
// (env > file > defaults). Backend selects which Repository dialect to
// open.
type (
	ServiceConfig = config.ServiceConfig
	Backend       = config.Backend
)

const (
	BackendSQLite = config.BackendSQLite
	BackendMySQL  = config.BackendMySQL
)

// LoadConfig assembles a ServiceConfig from defaults, an optional
// corestar.toml/corestar.yaml, and CORESTAR_-prefixed environment
// variables, in increasing precedence.
func LoadConfig(opts ...config.Option) (ServiceConfig, error) {
	return config.Load(opts...)
}

// DefaultServiceConfig returns the hardcoded configuration defaults.
func DefaultServiceConfig() ServiceConfig {
	return config.DefaultServiceConfig()
}

// ImportJSON, ExportJSON, ImportCSV, ExportCSV, and CSVOptions implement
// the file formats of spec §6.1.
type CSVOptions = catalogio.CSVOptions

var (
	ImportJSON       = catalogio.ImportJSON
	ExportJSON       = catalogio.ExportJSON
	ImportCSV        = catalogio.ImportCSV
	ExportCSV        = catalogio.ExportCSV
	DefaultCSVOptions = catalogio.DefaultCSVOptions
)
