package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rijuma/ctxhelpr/internal/ignore"
	"github.com/rijuma/ctxhelpr/internal/indexer"
	"github.com/rijuma/ctxhelpr/internal/logging"
	"github.com/rijuma/ctxhelpr/internal/storage"
)

// State is a per-repo watcher's place in the spec §4.5 state machine.
type State int

const (
	Unwatched State = iota
	Indexing
	Watching
	Reindexing
	Stopping
)

// repoState is the coordinator's bookkeeping for one watched repo.
type repoState struct {
	absPath   string
	state     State
	ignoreSet []string
	maxSize   int64
	matcher   *ignore.Matcher
}

// command is a Watch/Unwatch/Shutdown request delivered over the
// coordinator's command channel (spec §4.5).
type command struct {
	kind    commandKind
	path    string
	opts    indexer.Options
	doneSig chan struct{}
}

type commandKind int

const (
	cmdWatch commandKind = iota
	cmdUnwatch
	cmdShutdown
)

// ConfigFunc resolves the merged indexer options for a repo path; the
// coordinator calls it fresh on every (re)watch and index so per-repo
// config changes take effect without restarting the process.
type ConfigFunc func(absRepoPath string) indexer.Options

// Coordinator owns the fsnotify watcher, the shared debouncer, and the
// per-repo state machines described in spec §4.5.
type Coordinator struct {
	cache      *storage.Cache
	logger     *logging.Logger
	configFunc ConfigFunc
	onWatched  func(absRepoPath string) // notifies the dispatcher a repo is now Watching

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer

	mu    sync.Mutex
	repos map[string]*repoState

	commands chan command
	stopped  chan struct{}
}

// NewCoordinator constructs a Coordinator. Call Run in its own
// goroutine to start the event loop.
func NewCoordinator(cache *storage.Cache, logger *logging.Logger, configFunc ConfigFunc, onWatched func(string)) (*Coordinator, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		cache:      cache,
		logger:     logger,
		configFunc: configFunc,
		onWatched:  onWatched,
		fsWatcher:  fsw,
		debouncer:  NewDebouncer(),
		repos:      make(map[string]*repoState),
		commands:   make(chan command, 16),
		stopped:    make(chan struct{}),
	}, nil
}

// Watch requests that absRepoPath be blocking-indexed (if needed) and
// then watched. It returns once the command has been enqueued, not
// once watching has started; callers that need to block until
// Watching use WatchAndWait.
func (c *Coordinator) Watch(absRepoPath string, opts indexer.Options) {
	c.commands <- command{kind: cmdWatch, path: absRepoPath, opts: opts}
}

// WatchAndWait enqueues a Watch command and blocks until the
// coordinator has processed it.
func (c *Coordinator) WatchAndWait(absRepoPath string, opts indexer.Options) {
	done := make(chan struct{})
	c.commands <- command{kind: cmdWatch, path: absRepoPath, opts: opts, doneSig: done}
	<-done
}

// Unwatch drops the OS watcher and forgets the repo.
func (c *Coordinator) Unwatch(absRepoPath string) {
	c.commands <- command{kind: cmdUnwatch, path: absRepoPath}
}

// Shutdown drains the command channel and stops the event loop.
func (c *Coordinator) Shutdown() {
	c.commands <- command{kind: cmdShutdown}
	<-c.stopped
}

// StartupReindex lists every repo known to storage that still exists
// on disk, blocking-indexes each, and begins watching it (spec §4.5:
// "at startup... perform a blocking full index... and then instantiate
// a per-repo OS recursive watcher").
func (c *Coordinator) StartupReindex(opts ConfigFunc) {
	repos, err := c.cache.ListIndexedRepos()
	if err != nil {
		c.logger.Warn("failed to list indexed repos at startup", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, r := range repos {
		if isDir, statErr := statIsDir(r.AbsPath); statErr != nil || !isDir {
			continue
		}
		c.WatchAndWait(r.AbsPath, opts(r.AbsPath))
	}
}

// Run is the single-threaded cooperative event loop (spec §4.5): it
// selects between commands, raw fsnotify events, and the debounce
// timer, and must run in its own goroutine.
func (c *Coordinator) Run() {
	defer close(c.stopped)
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	resetTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if wait, ok := c.debouncer.TimeUntilFlush(); ok {
			timer.Reset(wait)
		}
	}

	for {
		select {
		case cmd := <-c.commands:
			switch cmd.kind {
			case cmdWatch:
				c.handleWatch(cmd.path, cmd.opts)
				if cmd.doneSig != nil {
					close(cmd.doneSig)
				}
			case cmdUnwatch:
				c.handleUnwatch(cmd.path)
			case cmdShutdown:
				c.mu.Lock()
				for path := range c.repos {
					c.removeWatches(path)
				}
				c.repos = make(map[string]*repoState)
				c.mu.Unlock()
				c.fsWatcher.Close()
				return
			}
			resetTimer()

		case ev, ok := <-c.fsWatcher.Events:
			if !ok {
				return
			}
			c.handleEvent(ev)
			resetTimer()

		case err, ok := <-c.fsWatcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("fsnotify error", map[string]interface{}{"error": err.Error()})

		case <-timer.C:
			if c.debouncer.IsReady() {
				c.flushAndDispatch()
			}
			resetTimer()
		}
	}
}

func (c *Coordinator) handleWatch(absRepoPath string, opts indexer.Options) {
	c.mu.Lock()
	_, exists := c.repos[absRepoPath]
	c.mu.Unlock()
	if exists {
		return
	}

	c.mu.Lock()
	c.repos[absRepoPath] = &repoState{
		absPath:   absRepoPath,
		state:     Indexing,
		ignoreSet: opts.IgnorePatterns,
		maxSize:   opts.MaxFileSize,
		matcher:   ignore.New(absRepoPath, opts.IgnorePatterns),
	}
	c.mu.Unlock()

	db, err := c.cache.Open(absRepoPath)
	if err != nil {
		c.logger.Warn("watch: open db failed", map[string]interface{}{"path": absRepoPath, "error": err.Error()})
		c.mu.Lock()
		delete(c.repos, absRepoPath)
		c.mu.Unlock()
		return
	}
	if _, err := indexer.Index(absRepoPath, db, opts, c.logger); err != nil {
		c.logger.Warn("watch: initial index failed", map[string]interface{}{"path": absRepoPath, "error": err.Error()})
	}

	if err := c.addWatches(absRepoPath); err != nil {
		c.logger.Warn("watch: add fsnotify watches failed", map[string]interface{}{"path": absRepoPath, "error": err.Error()})
	}

	c.mu.Lock()
	if st, ok := c.repos[absRepoPath]; ok {
		st.state = Watching
	}
	c.mu.Unlock()

	if c.onWatched != nil {
		c.onWatched(absRepoPath)
	}
}

func (c *Coordinator) handleUnwatch(absRepoPath string) {
	c.mu.Lock()
	_, ok := c.repos[absRepoPath]
	if ok {
		c.repos[absRepoPath].state = Stopping
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	c.removeWatches(absRepoPath)
	c.mu.Lock()
	delete(c.repos, absRepoPath)
	c.mu.Unlock()
}

func (c *Coordinator) addWatches(absRepoPath string) error {
	return filepath.WalkDir(absRepoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != absRepoPath && ignore.IsBuiltinIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		if addErr := c.fsWatcher.Add(path); addErr != nil {
			c.logger.Warn("watch: add path failed", map[string]interface{}{"path": path, "error": addErr.Error()})
		}
		return nil
	})
}

func (c *Coordinator) removeWatches(absRepoPath string) {
	for _, watched := range c.fsWatcher.WatchList() {
		if isSubpath(watched, absRepoPath) {
			c.fsWatcher.Remove(watched)
		}
	}
}

func statIsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func isSubpath(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (len(rel) > 0 && rel[0] != '.' && !filepath.IsAbs(rel))
}

// findRepoForPath returns the repo (and its state) that owns path, or
// nil if path belongs to no watched repo.
func (c *Coordinator) findRepoForPath(path string) *repoState {
	c.mu.Lock()
	defer c.mu.Unlock()
	for repoPath, st := range c.repos {
		if isSubpath(path, repoPath) {
			return st
		}
	}
	return nil
}

func (c *Coordinator) handleEvent(ev fsnotify.Event) {
	var kind ChangeKind
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		kind = Modified
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		kind = Deleted
	default:
		return
	}

	base := filepath.Base(ev.Name)
	if ignore.IsBuiltinIgnoredDir(base) || ignore.HasBuiltinIgnoredSuffix(base) {
		return
	}

	st := c.findRepoForPath(ev.Name)
	if st == nil {
		return
	}

	relPath, err := filepath.Rel(st.absPath, ev.Name)
	if err != nil {
		return
	}
	relPath = filepath.ToSlash(relPath)
	if st.matcher != nil && st.matcher.Match(relPath) {
		return
	}

	if kind == Modified {
		if info, statErr := statIsDir(ev.Name); statErr == nil && info {
			if !ignore.IsBuiltinIgnoredDir(base) {
				c.fsWatcher.Add(ev.Name)
			}
			return
		}
	}

	c.debouncer.Record(st.absPath, relPath, kind)
}

func (c *Coordinator) flushAndDispatch() {
	for _, batch := range c.debouncer.Flush() {
		go c.applyBatch(batch)
	}
}

func (c *Coordinator) applyBatch(batch Batch) {
	c.mu.Lock()
	st, ok := c.repos[batch.RepoPath]
	if ok {
		st.state = Reindexing
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	db, err := c.cache.Open(batch.RepoPath)
	if err != nil {
		c.logger.Warn("batch: open db failed", map[string]interface{}{"path": batch.RepoPath, "error": err.Error()})
	} else {
		opts := indexer.Options{IgnorePatterns: st.ignoreSet, MaxFileSize: st.maxSize}
		if c.configFunc != nil {
			opts = c.configFunc(batch.RepoPath)
		}
		if len(batch.Modified) > 0 {
			if _, err := indexer.UpdateFiles(batch.RepoPath, batch.Modified, db, opts, c.logger); err != nil {
				c.logger.Warn("batch: update_files failed", map[string]interface{}{"path": batch.RepoPath, "error": err.Error()})
			}
		}
		if len(batch.Deleted) > 0 {
			if _, err := indexer.DeleteFilesByRelPaths(batch.RepoPath, batch.Deleted, db); err != nil {
				c.logger.Warn("batch: delete_files failed", map[string]interface{}{"path": batch.RepoPath, "error": err.Error()})
			}
		}
	}

	c.mu.Lock()
	if st, ok := c.repos[batch.RepoPath]; ok {
		st.state = Watching
	}
	c.mu.Unlock()
}
