package watcher

import (
	"testing"
	"time"
)

func withFakeClock(t *testing.T) *time.Time {
	t.Helper()
	now := time.Now()
	orig := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = orig })
	return &now
}

func TestDebouncerLaterKindOverrides(t *testing.T) {
	clock := withFakeClock(t)
	d := NewDebouncer()
	d.Record("/repo", "a.go", Modified)
	d.Record("/repo", "a.go", Deleted)

	*clock = clock.Add(flushWindow)
	if !d.IsReady() {
		t.Fatal("expected ready after window elapses")
	}
	batches := d.Flush()
	if len(batches) != 1 {
		t.Fatalf("want 1 batch, got %d", len(batches))
	}
	b := batches[0]
	if len(b.Modified) != 0 || len(b.Deleted) != 1 || b.Deleted[0] != "a.go" {
		t.Fatalf("expected a.go classified as deleted only, got %+v", b)
	}
}

func TestDebouncerNotReadyBeforeWindow(t *testing.T) {
	clock := withFakeClock(t)
	d := NewDebouncer()
	d.Record("/repo", "a.go", Modified)

	if d.IsReady() {
		t.Fatal("expected not ready immediately after record")
	}
	wait, ok := d.TimeUntilFlush()
	if !ok || wait <= 0 {
		t.Fatalf("expected positive wait, got %v ok=%v", wait, ok)
	}

	*clock = clock.Add(flushWindow)
	if !d.IsReady() {
		t.Fatal("expected ready once window elapses")
	}
}

func TestDebouncerFlushResetsAccumulation(t *testing.T) {
	clock := withFakeClock(t)
	d := NewDebouncer()
	d.Record("/repo", "a.go", Modified)
	*clock = clock.Add(flushWindow)
	if batches := d.Flush(); len(batches) != 1 {
		t.Fatalf("want 1 batch, got %d", len(batches))
	}

	if d.IsReady() {
		t.Fatal("expected nothing pending right after flush")
	}
	d.Record("/repo", "b.go", Modified)
	*clock = clock.Add(flushWindow)
	batches := d.Flush()
	if len(batches) != 1 || len(batches[0].Modified) != 1 || batches[0].Modified[0] != "b.go" {
		t.Fatalf("expected fresh accumulation with only b.go, got %+v", batches)
	}
}

func TestDebouncerGroupsByRepo(t *testing.T) {
	clock := withFakeClock(t)
	d := NewDebouncer()
	d.Record("/repoA", "a.go", Modified)
	d.Record("/repoB", "b.go", Deleted)

	*clock = clock.Add(flushWindow)
	batches := d.Flush()
	if len(batches) != 2 {
		t.Fatalf("want 2 batches, got %d", len(batches))
	}
}
