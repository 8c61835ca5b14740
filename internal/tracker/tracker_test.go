package tracker

import (
	"testing"
	"time"
)

func TestStartIndexingRejectsConcurrentSecond(t *testing.T) {
	tr := New()
	h1, ok := tr.StartIndexing("/repo")
	if !ok || h1 == nil {
		t.Fatal("expected first StartIndexing to succeed")
	}
	if _, ok := tr.StartIndexing("/repo"); ok {
		t.Fatal("expected second StartIndexing to fail while first is active")
	}
	if !tr.IsIndexing("/repo") {
		t.Fatal("expected IsIndexing true while active")
	}
	h1.Complete()
	if tr.IsIndexing("/repo") {
		t.Fatal("expected IsIndexing false after Complete")
	}
}

func TestStartIndexingAllowsAfterCompletion(t *testing.T) {
	tr := New()
	h1, _ := tr.StartIndexing("/repo")
	h1.Complete()

	h2, ok := tr.StartIndexing("/repo")
	if !ok || h2 == nil {
		t.Fatal("expected StartIndexing to succeed after prior completion")
	}
	h2.Complete()
}

func TestWaitForCompletionUnblocksOnComplete(t *testing.T) {
	tr := New()
	h, _ := tr.StartIndexing("/repo")

	ch, ok := tr.WaitForCompletion("/repo")
	if !ok {
		t.Fatal("expected an active entry to wait on")
	}

	done := make(chan struct{})
	go func() {
		<-ch
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("waiter unblocked before Complete was called")
	case <-time.After(20 * time.Millisecond):
	}

	h.Complete()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter did not unblock after Complete")
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	tr := New()
	h, _ := tr.StartIndexing("/repo")
	h.Complete()
	h.Complete() // must not panic on double-close
}

func TestWaitForCompletionUnknownPath(t *testing.T) {
	tr := New()
	if _, ok := tr.WaitForCompletion("/never-started"); ok {
		t.Fatal("expected no entry for unknown path")
	}
}
