// Package dispatcher implements the query-side auto-index guard of
// spec §4.6: ensure_indexed, trigger_background_index, and the
// explicit index_repository wait-then-run contract.
package dispatcher

import (
	"golang.org/x/sync/singleflight"

	"github.com/rijuma/ctxhelpr/internal/errors"
	"github.com/rijuma/ctxhelpr/internal/indexer"
	"github.com/rijuma/ctxhelpr/internal/logging"
	"github.com/rijuma/ctxhelpr/internal/storage"
	"github.com/rijuma/ctxhelpr/internal/tracker"
)

// ConfigFunc resolves this repo's merged indexer options (spec §6).
type ConfigFunc func(absRepoPath string) indexer.Options

// WatcherNotifier is told to start watching a repo once its background
// index completes; it is the seam onto internal/watcher so this
// package doesn't need to import it directly.
type WatcherNotifier func(absRepoPath string)

// Dispatcher wires the cache, the IndexingTracker, and the repo config
// resolver together to serve ensure_indexed on every query path.
type Dispatcher struct {
	cache      *storage.Cache
	tracker    *tracker.Tracker
	configFunc ConfigFunc
	notify     WatcherNotifier
	logger     *logging.Logger
	group      singleflight.Group
}

// New constructs a Dispatcher. notify may be nil if no watcher is
// running (e.g. a one-shot CLI invocation).
func New(cache *storage.Cache, configFunc ConfigFunc, notify WatcherNotifier, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Dispatcher{
		cache:      cache,
		tracker:    tracker.New(),
		configFunc: configFunc,
		notify:     notify,
		logger:     logger,
	}
}

// EnsureIndexed implements the ensure_indexed guard (spec §4.6): if no
// DB exists yet, or the DB exists but the repo was never fully
// indexed, it triggers background indexing and returns the
// not-indexed error the caller should surface as the auto-index
// notice. A nil return means the repo is ready to query.
func (d *Dispatcher) EnsureIndexed(absRepoPath string) error {
	db, err := d.cache.Open(absRepoPath)
	if err != nil {
		return errors.NewStorageError("failed to open repo index", err)
	}
	indexed, err := db.IsRepoIndexed(absRepoPath)
	if err != nil {
		return errors.NewStorageError("failed to read repo index state", err)
	}
	if indexed {
		return nil
	}
	d.TriggerBackgroundIndex(absRepoPath)
	return errors.NewNotIndexedError(absRepoPath)
}

// TriggerBackgroundIndex starts a background full index for
// absRepoPath unless one is already in flight (spec §4.6). It never
// blocks on the result: the caller's response is always the
// not-indexed notice, never the background run's stats.
func (d *Dispatcher) TriggerBackgroundIndex(absRepoPath string) {
	if d.tracker.IsIndexing(absRepoPath) {
		return
	}
	handle, started := d.tracker.StartIndexing(absRepoPath)
	if !started {
		return
	}

	go func() {
		defer handle.Complete()
		_, err, _ := d.group.Do(absRepoPath, func() (interface{}, error) {
			db, err := d.cache.Open(absRepoPath)
			if err != nil {
				return nil, err
			}
			opts := indexer.Options{}
			if d.configFunc != nil {
				opts = d.configFunc(absRepoPath)
			}
			return indexer.Index(absRepoPath, db, opts, d.logger)
		})
		if err != nil {
			d.logger.Warn("background index failed", map[string]interface{}{"path": absRepoPath, "error": err.Error()})
		}
		if d.notify != nil {
			d.notify(absRepoPath)
		}
	}()
}

// IndexRepository implements the index_repository tool's wait-then-run
// contract (spec §4.6): await any in-flight background job for this
// repo, then run a synchronous full index and return its stats. The
// two must never run concurrently against the same DB; awaiting the
// tracker's completion signal before starting enforces that.
func (d *Dispatcher) IndexRepository(absRepoPath string) (indexer.Stats, error) {
	if ch, waiting := d.tracker.WaitForCompletion(absRepoPath); waiting {
		<-ch
	}

	handle, started := d.tracker.StartIndexing(absRepoPath)
	if !started {
		return indexer.Stats{}, errors.NewConcurrencyError(absRepoPath)
	}
	defer handle.Complete()

	db, err := d.cache.Open(absRepoPath)
	if err != nil {
		return indexer.Stats{}, errors.NewStorageError("failed to open repo index", err)
	}
	opts := indexer.Options{}
	if d.configFunc != nil {
		opts = d.configFunc(absRepoPath)
	}
	stats, err := indexer.Index(absRepoPath, db, opts, d.logger)
	if err != nil {
		return stats, err
	}
	if d.notify != nil {
		d.notify(absRepoPath)
	}
	return stats, nil
}
