// Package watcher implements the per-repository filesystem watcher and
// its event debouncer (spec §4.5): fsnotify-driven change detection,
// 2-second quiet-window batching, and a per-repo watch state machine.
package watcher

import (
	"sync"
	"time"
)

// ChangeKind is the debounced classification of a raw filesystem event.
type ChangeKind int

const (
	Modified ChangeKind = iota
	Deleted
)

// flushWindow is the quiet period a repo must go without new events
// before its pending changes are flushed (spec §4.5).
const flushWindow = 2 * time.Second

// Batch is the flushed, per-repo grouping of a debounce window's
// accumulated changes, split into the two shapes update_files and
// delete_files_by_rel_paths expect.
type Batch struct {
	RepoPath string
	Modified []string
	Deleted  []string
}

// Debouncer accumulates per-repo, per-file change events and releases
// them in grouped batches once each repo has gone quiet for
// flushWindow. One Debouncer instance is shared by a watcher
// coordinator across all repos it watches.
type Debouncer struct {
	mu          sync.Mutex
	pending     map[string]map[string]ChangeKind // repoPath -> relPath -> kind
	lastEventAt map[string]time.Time
}

// NewDebouncer constructs an empty Debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{
		pending:     make(map[string]map[string]ChangeKind),
		lastEventAt: make(map[string]time.Time),
	}
}

// Record inserts or overwrites the pending kind for (repo, rel) and
// resets that repo's flush timer. A later kind always overrides an
// earlier one for the same file (spec §4.5).
func (d *Debouncer) Record(repoPath, relPath string, kind ChangeKind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	files, ok := d.pending[repoPath]
	if !ok {
		files = make(map[string]ChangeKind)
		d.pending[repoPath] = files
	}
	files[relPath] = kind
	d.lastEventAt[repoPath] = nowFunc()
}

// TimeUntilFlush returns how long the caller should sleep before the
// earliest pending repo becomes ready, or (0, false) if nothing is
// pending.
func (d *Debouncer) TimeUntilFlush() (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.lastEventAt) == 0 {
		return 0, false
	}
	now := nowFunc()
	var soonest time.Duration = -1
	for _, last := range d.lastEventAt {
		remaining := flushWindow - now.Sub(last)
		if remaining < 0 {
			remaining = 0
		}
		if soonest == -1 || remaining < soonest {
			soonest = remaining
		}
	}
	return soonest, true
}

// IsReady reports whether at least one repo's quiet window has
// elapsed.
func (d *Debouncer) IsReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := nowFunc()
	for _, last := range d.lastEventAt {
		if now.Sub(last) >= flushWindow {
			return true
		}
	}
	return false
}

// Flush atomically drains every repo whose quiet window has elapsed
// and returns their batched changes. Repos still within their window
// are left pending for a later Flush. A Record call that arrives
// during Flush is safe: it takes the lock after Flush releases it and
// begins a fresh accumulation for that repo.
func (d *Debouncer) Flush() []Batch {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := nowFunc()
	var batches []Batch
	for repoPath, last := range d.lastEventAt {
		if now.Sub(last) < flushWindow {
			continue
		}
		files := d.pending[repoPath]
		delete(d.pending, repoPath)
		delete(d.lastEventAt, repoPath)

		batch := Batch{RepoPath: repoPath}
		for relPath, kind := range files {
			switch kind {
			case Deleted:
				batch.Deleted = append(batch.Deleted, relPath)
			default:
				batch.Modified = append(batch.Modified, relPath)
			}
		}
		batches = append(batches, batch)
	}
	return batches
}

// nowFunc is a seam for tests that need to simulate elapsed time
// without sleeping; production code leaves it as time.Now.
var nowFunc = time.Now
