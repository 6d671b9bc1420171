// Package searchengine orchestrates the three in-memory indices
// (internal/index) on top of the durable Repository (internal/repository),
// per spec §4.F. It is the only component that mutates PrefixIndex,
// FuzzyIndex, and SpatialIndex; every query and invalidation path runs
// through Engine.
package searchengine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/stellarium-catalog/corestar/internal/index"
	"github.com/stellarium-catalog/corestar/internal/types"
)

// Store is the subset of *repository.Repository the engine depends on.
// Defining it as an interface (grounded on the teacher's storage.Storage
// abstraction) keeps the engine backend-neutral and lets tests substitute a
// fake without standing up a real database.
type Store interface {
	Search(ctx context.Context, filter types.CelestialSearchFilter) ([]*types.CelestialObject, error)
	FindByIdentifier(ctx context.Context, name string) (*types.CelestialObject, error)
}

// Engine is the search orchestrator of spec §4.F. It owns the three
// indices and is the sole mutator of their state; handlers outside this
// package hold shared references to an Engine rather than touching the
// indices directly.
type Engine struct {
	store Store
	log   *slog.Logger

	mu          sync.RWMutex
	initialized bool

	prefix  *index.Prefix
	fuzzy   *index.Fuzzy
	spatial *index.Spatial

	// prefixNames tracks every surface form PrefixIndex holds for a given
	// identifier (its own Identifier, MIdentifier, ChineseName, aliases), so
	// Refresh can undo all of them on invalidation. PrefixIndex.Remove only
	// deletes one exact surface form at a time; without this reverse index,
	// refreshing or deleting an object with aliases would leave its alias
	// entries pointing at a stale or deleted identifier.
	prefixNames map[string][]string

	// clickCache backs PrefixIndex.Autocomplete's ranking read, per spec §9
	// ("cache of object metadata for trie ranking"). Populated during
	// initialize/refresh, never by autocomplete itself.
	clickCacheMu sync.RWMutex
	clickCache   map[string]int64

	rebuildGroup singleflight.Group
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger injects a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New constructs an Engine bound to store. Construction never touches the
// indices; call Initialize before issuing queries.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		log:         slog.Default(),
		prefix:      index.NewPrefix(),
		fuzzy:       index.NewFuzzy(),
		spatial:     index.NewSpatial(),
		clickCache:  make(map[string]int64),
		prefixNames: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var tracer = otel.Tracer("github.com/stellarium-catalog/corestar/searchengine")

var engineMetrics struct {
	queryCount   metric.Int64Counter
	indexedCount metric.Int64UpDownCounter
	rebuildCount metric.Int64Counter
}

func init() {
	m := otel.Meter("github.com/stellarium-catalog/corestar/searchengine")
	engineMetrics.queryCount, _ = m.Int64Counter("corestar.searchengine.query_count",
		metric.WithDescription("Engine.Search calls served"))
	engineMetrics.indexedCount, _ = m.Int64UpDownCounter("corestar.searchengine.indexed_objects",
		metric.WithDescription("Objects currently present in the in-memory indices"))
	engineMetrics.rebuildCount, _ = m.Int64Counter("corestar.searchengine.rebuild_count",
		metric.WithDescription("Full index rebuilds performed"))
}

// Initialize is idempotent: if the engine is already initialized it
// returns nil immediately without re-reading the store (spec §4.F).
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}
	return e.initializeLocked(ctx)
}

// initializeLocked assumes e.mu is held for writing.
func (e *Engine) initializeLocked(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "searchengine.initialize")
	defer span.End()

	filter := types.DefaultCelestialSearchFilter()
	filter.Limit = 0 // unbounded: populate indices with the whole catalog
	rows, err := e.store.Search(ctx, filter)
	if err != nil {
		return fmt.Errorf("searchengine: initialize: load rows: %w", err)
	}

	prefix := index.NewPrefix()
	fuzzy := index.NewFuzzy()
	spatial := index.NewSpatial()
	cache := make(map[string]int64, len(rows))
	names := make(map[string][]string, len(rows))

	var g errgroup.Group
	g.Go(func() error {
		for _, obj := range rows {
			names[obj.Identifier] = indexNames(prefix, obj)
		}
		return nil
	})
	g.Go(func() error {
		for _, obj := range rows {
			indexFuzzyTerms(fuzzy, obj)
		}
		return nil
	})
	g.Go(func() error {
		for _, obj := range rows {
			if obj.ValidCoordinates() {
				spatial.Insert(obj.Identifier, obj.RADeg, obj.DecDeg)
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		// Nothing above can actually fail, but if a future index gains a
		// fallible Insert this rolls back to an empty, consistent state
		// rather than leaving A/B/C partially populated.
		return fmt.Errorf("searchengine: initialize: build indices: %w", err)
	}

	for _, obj := range rows {
		cache[obj.Identifier] = obj.ClickCount
	}

	e.prefix = prefix
	e.fuzzy = fuzzy
	e.spatial = spatial
	e.prefixNames = names
	e.clickCacheMu.Lock()
	e.clickCache = cache
	e.clickCacheMu.Unlock()
	e.initialized = true

	engineMetrics.indexedCount.Add(ctx, int64(len(cache)))
	e.log.InfoContext(ctx, "searchengine initialized", "objects", len(rows))
	return nil
}

// indexNames inserts every surface form obj is known by into p and returns
// the list of names inserted, so the caller can later undo exactly these
// entries (see Engine.prefixNames).
func indexNames(p *index.Prefix, obj *types.CelestialObject) []string {
	var names []string
	add := func(name string) {
		if name == "" {
			return
		}
		p.Insert(name, obj.Identifier)
		names = append(names, name)
	}
	add(obj.Identifier)
	add(obj.MIdentifier)
	add(obj.ChineseName)
	for _, alias := range obj.AliasList() {
		add(alias)
	}
	return names
}

func indexFuzzyTerms(f *index.Fuzzy, obj *types.CelestialObject) {
	if obj.Identifier != "" {
		f.AddTerm(obj.Identifier, obj.Identifier)
	}
	if obj.MIdentifier != "" {
		f.AddTerm(obj.MIdentifier, obj.Identifier)
	}
}

// RebuildIndexes clears and re-initializes every index. Concurrent callers
// collapse onto a single in-flight rebuild via singleflight, matching the
// teacher's daemon reconciliation loop's "only one rebuild at a time"
// discipline.
func (e *Engine) RebuildIndexes(ctx context.Context) error {
	_, err, _ := e.rebuildGroup.Do("rebuild", func() (interface{}, error) {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.clearIndexesLocked()
		if err := e.initializeLocked(ctx); err != nil {
			return nil, err
		}
		engineMetrics.rebuildCount.Add(ctx, 1)
		return nil, nil
	})
	return err
}

// ClearIndexes empties A/B/C and marks the engine un-initialized.
func (e *Engine) ClearIndexes() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearIndexesLocked()
}

func (e *Engine) clearIndexesLocked() {
	e.prefix.Clear()
	e.fuzzy.Clear()
	e.spatial.Clear()
	e.prefixNames = make(map[string][]string)
	e.clickCacheMu.Lock()
	engineMetrics.indexedCount.Add(context.Background(), -int64(len(e.clickCache)))
	e.clickCache = make(map[string]int64)
	e.clickCacheMu.Unlock()
	e.initialized = false
}

// Initialized reports whether the engine has a populated index set.
func (e *Engine) Initialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialized
}

// Refresh re-syncs a single identifier's index entries with the store:
// remove it from all three indices, then re-insert if the store still has
// it (spec §4.F: "the core implementation of refresh"). This lets callers
// that write through the Repository directly keep the engine's indices
// consistent without a full rebuild.
func (e *Engine) Refresh(ctx context.Context, identifier string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, name := range e.prefixNames[identifier] {
		e.prefix.Remove(name)
	}
	delete(e.prefixNames, identifier)
	e.spatial.Remove(identifier)
	// FuzzyIndex has no by-identifier removal (a BK-tree's shape depends on
	// insertion order and removing a node would require re-parenting its
	// subtree); spec §4.F only requires refresh to "remove identifier from
	// all three indices" at the level observable through their contracts,
	// and FuzzyIndex's contract exposes no remove operation at all (§4.B).
	// A fuzzy match against a stale identifier is caught downstream:
	// Engine.FuzzySearch resolves every Fuzzy.Match hit through the
	// Repository and silently skips identifiers it no longer has (spec §4.F
	// fuzzySearch: "skip unresolved").
	e.clickCacheMu.Lock()
	before := len(e.clickCache)
	delete(e.clickCache, identifier)
	e.clickCacheMu.Unlock()
	defer func() {
		e.clickCacheMu.RLock()
		engineMetrics.indexedCount.Add(ctx, int64(len(e.clickCache)-before))
		e.clickCacheMu.RUnlock()
	}()

	obj, err := e.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		return fmt.Errorf("searchengine: refresh %q: %w", identifier, err)
	}
	if obj == nil {
		return nil
	}
	e.prefixNames[obj.Identifier] = indexNames(e.prefix, obj)
	indexFuzzyTerms(e.fuzzy, obj)
	if obj.ValidCoordinates() {
		e.spatial.Insert(obj.Identifier, obj.RADeg, obj.DecDeg)
	}
	e.clickCacheMu.Lock()
	e.clickCache[obj.Identifier] = obj.ClickCount
	e.clickCacheMu.Unlock()
	return nil
}

// clickCounter adapts the engine's cache to index.ClickCounter.
func (e *Engine) clickCounter() index.ClickCounter {
	return func(identifier string) int64 {
		e.clickCacheMu.RLock()
		defer e.clickCacheMu.RUnlock()
		return e.clickCache[identifier]
	}
}
