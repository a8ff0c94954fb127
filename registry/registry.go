// Copyright 2025 The MetaCache Authors
// This file is part of metacache.
//
// metacache is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// metacache is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with metacache. If not, see <http://www.gnu.org/licenses/>.

// Package registry owns the collection of metacache.MetaCache instances
// that back a running server's "last / meta cache" subsystem: one registry
// holds every cache created across every database and table, serializes
// writers per cache, and prunes every cache it owns when PruneAll is called
// (it starts no timer of its own). It realizes the
// "enclosing registry" the metacache package's documentation describes but
// does not itself implement.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tsdbkit/metacache/catalog"
	"github.com/tsdbkit/metacache/intern"
	"github.com/tsdbkit/metacache/metacache"
	"github.com/tsdbkit/metacache/walrow"
)

// Outcome reports what CreateCache actually did.
type Outcome uint8

const (
	// Created means a new cache was built and stored.
	Created Outcome = iota
	// AlreadyExists means a byte-identical cache already existed; nothing
	// changed.
	AlreadyExists
)

var (
	// ErrConfigConflict is returned by CreateCache when a cache already
	// exists under the requested name with a different configuration.
	ErrConfigConflict = errors.New("registry: cache exists with a conflicting configuration")
	// ErrNotFound is returned by DeleteCache and Query when no cache is
	// registered under the given identity.
	ErrNotFound = errors.New("registry: no such cache")
)

// CreateArgs is the administrative-surface shape a create-cache request is
// translated into. KeyColumns and ValueColumns are folded into one ordered
// column list (KeyColumns first, then ValueColumns), per the resolution of
// the metadata cache's "value_columns" open question: there is exactly one
// ordered prefix tree, not a second axis.
type CreateArgs struct {
	DB           string
	Table        string
	Name         string // optional; synthesized from columns when empty
	KeyColumns   []catalog.ColumnID
	ValueColumns []catalog.ColumnID
	Config       metacache.Config
}

func (a CreateArgs) columnIDs() []catalog.ColumnID {
	ids := make([]catalog.ColumnID, 0, len(a.KeyColumns)+len(a.ValueColumns))
	ids = append(ids, a.KeyColumns...)
	ids = append(ids, a.ValueColumns...)
	return ids
}

// synthesizeName builds a deterministic name from the sorted column ids
// when the caller did not supply one, so two anonymous creates over the
// same columns collide exactly like two explicit creates of the same name.
func (a CreateArgs) synthesizeName() string {
	ids := append([]catalog.ColumnID(nil), a.columnIDs()...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, "_")
}

type cacheKey struct {
	db, table, name string
}

type cacheEntry struct {
	mu sync.RWMutex
	mc *metacache.MetaCache
}

// Registry owns every MetaCache instance for a server. The zero value is
// not usable; construct one with New.
type Registry struct {
	log     *zap.Logger
	metrics *Metrics
	tables  map[string]*catalog.TableDefinition // key: "db/table"
	clock   metacache.Clock
	pool    *intern.Pool // shared across every MetaCache this registry owns

	mu     sync.RWMutex // guards caches; each cacheEntry has its own lock
	caches map[cacheKey]*cacheEntry
}

// New builds an empty Registry. A nil logger installs zap.NewNop(); a nil
// *Metrics installs an unregistered, private Metrics instance.
// Every cache the Registry creates shares one intern.Pool, so the same tag
// value (e.g. a hostname) recurring across many tables is stored once.
func New(log *zap.Logger, metrics *Metrics, clock metacache.Clock) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if clock == nil {
		clock = metacache.SystemClock{}
	}
	return &Registry{
		log:     log,
		metrics: metrics,
		tables:  make(map[string]*catalog.TableDefinition),
		clock:   clock,
		pool:    intern.New(intern.DefaultCapacity),
		caches:  make(map[cacheKey]*cacheEntry),
	}
}

// RegisterTable makes table's column definitions available to CreateCache
// calls for (db, table.Name). The registry does not own table storage; it
// only needs the definition at cache-creation time.
func (r *Registry) RegisterTable(db string, table *catalog.TableDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[db+"/"+table.Name] = table
}

// CreateCache creates a cache, or reports that an identical one already
// exists, or reports a conflict — matching the administrative endpoint's
// observed semantics (see SPEC_FULL.md §11.4): creating the same
// configuration twice is a no-op; creating the same name with a different
// configuration is a conflict.
func (r *Registry) CreateCache(_ context.Context, args CreateArgs) (*metacache.MetaCache, Outcome, error) {
	r.mu.Lock()
	table, ok := r.tables[args.DB+"/"+args.Table]
	r.mu.Unlock()
	if !ok {
		return nil, 0, fmt.Errorf("%w: table %s/%s is not registered", ErrNotFound, args.DB, args.Table)
	}

	name := args.Name
	if name == "" {
		name = args.synthesizeName()
	}
	cfg := args.Config
	cfg.Interner = r.pool
	candidate, err := metacache.New(r.clock, table, args.columnIDs(), cfg)
	if err != nil {
		return nil, 0, err
	}

	key := cacheKey{db: args.DB, table: args.Table, name: name}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, found := r.caches[key]; found {
		existing.mu.RLock()
		cmpErr := existing.mc.CompareConfig(candidate)
		existing.mu.RUnlock()
		if cmpErr == nil {
			r.log.Debug("create cache: already exists", zap.String("db", args.DB), zap.String("table", args.Table), zap.String("name", name))
			return existing.mc, AlreadyExists, nil
		}
		return nil, 0, fmt.Errorf("%w: %s", ErrConfigConflict, cmpErr)
	}

	r.caches[key] = &cacheEntry{mc: candidate}
	r.metrics.cachesCreated.Inc()
	r.log.Info("create cache: created", zap.String("db", args.DB), zap.String("table", args.Table), zap.String("name", name))
	return candidate, Created, nil
}

// DeleteCache removes a cache, returning ErrNotFound if none exists under
// the given identity.
func (r *Registry) DeleteCache(_ context.Context, db, table, name string) error {
	key := cacheKey{db: db, table: table, name: name}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.caches[key]; !ok {
		return fmt.Errorf("%w: %s/%s/%s", ErrNotFound, db, table, name)
	}
	delete(r.caches, key)
	r.log.Info("delete cache", zap.String("db", db), zap.String("table", table), zap.String("name", name))
	return nil
}

// Push routes row to every cache registered against (db, table), guarding
// each with its own write lock. A table may have more than one named
// cache, e.g. one over key columns and another that also folds in value
// columns.
func (r *Registry) Push(_ context.Context, db, table string, row walrow.Row) {
	for _, entry := range r.cachesFor(db, table) {
		entry.mu.Lock()
		entry.mc.Push(row)
		entry.mu.Unlock()
	}
}

// Query read-locks the named cache and evaluates predicates against it.
func (r *Registry) Query(_ context.Context, db, table, name string, predicates map[catalog.ColumnID]*metacache.Predicate) (arrow.Record, error) {
	r.mu.RLock()
	entry, ok := r.caches[cacheKey{db: db, table: table, name: name}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrNotFound, db, table, name)
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return entry.mc.ToRecordBatch(predicates)
}

// PruneAll runs Prune across every owned cache concurrently, one goroutine
// per cache joined by an errgroup, and reports per-cache cardinality to
// Metrics. A single cache's
// prune call never fails; PruneAll exists to serialize access to each
// cache's write lock and to parallelize the sweep across many caches, the
// way the teacher repository fans background maintenance work out across
// its tables.
func (r *Registry) PruneAll(ctx context.Context) error {
	r.mu.RLock()
	entries := make(map[cacheKey]*cacheEntry, len(r.caches))
	for k, v := range r.caches {
		entries[k] = v
	}
	r.mu.RUnlock()

	g, _ := errgroup.WithContext(ctx)
	for key, entry := range entries {
		key, entry := key, entry
		g.Go(func() error {
			start := time.Now()
			entry.mu.Lock()
			before := entry.mc.Cardinality()
			entry.mc.Prune()
			after := entry.mc.Cardinality()
			entry.mu.Unlock()

			r.metrics.observePrune(key.db, key.table, key.name, after, before-after, time.Since(start))
			r.log.Debug("prune cache",
				zap.String("db", key.db), zap.String("table", key.table), zap.String("name", key.name),
				zap.Int("cardinality_before", before), zap.Int("cardinality_after", after))
			return nil
		})
	}
	return g.Wait()
}

func (r *Registry) cachesFor(db, table string) []*cacheEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*cacheEntry
	for key, entry := range r.caches {
		if key.db == db && key.table == table {
			out = append(out, entry)
		}
	}
	return out
}
