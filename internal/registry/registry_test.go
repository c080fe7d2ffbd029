package registry

import (
	"testing"
	"time"
)

func TestResolveWakesWaiter(t *testing.T) {
	r := New()
	id, err := NewID()
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}

	waiter := r.Register(Entry{ID: id, Deadline: time.Now().Add(time.Minute)})

	go func() {
		if !r.Resolve(id, true) {
			t.Errorf("expected Resolve to wake a waiter")
		}
	}()

	if got := waiter.Wait(); got != OutcomeApproved {
		t.Errorf("got outcome %v, want OutcomeApproved", got)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r := New()
	id, _ := NewID()

	waiter := r.Register(Entry{ID: id, Deadline: time.Now().Add(time.Minute)})

	if !r.Resolve(id, false) {
		t.Fatalf("first resolve should succeed")
	}
	if r.Resolve(id, true) {
		t.Errorf("second resolve for the same id must be a silent no-op")
	}

	if got := waiter.Wait(); got != OutcomeDenied {
		t.Errorf("got outcome %v, want OutcomeDenied from the first resolve", got)
	}
}

func TestResolveUnknownIDReturnsFalse(t *testing.T) {
	r := New()
	if r.Resolve("0000000000000000", true) {
		t.Errorf("resolving an id that was never registered must return false")
	}
}

func TestDeadlineFiresTimeout(t *testing.T) {
	r := New()
	id, _ := NewID()

	waiter := r.Register(Entry{ID: id, Deadline: time.Now().Add(5 * time.Millisecond)})

	if got := waiter.Wait(); got != OutcomeTimeout {
		t.Errorf("got outcome %v, want OutcomeTimeout", got)
	}
}

func TestConcurrentPendingRequestsAreIndependent(t *testing.T) {
	r := New()
	idA, _ := NewID()
	idB, _ := NewID()

	waiterA := r.Register(Entry{ID: idA, Deadline: time.Now().Add(time.Minute)})
	waiterB := r.Register(Entry{ID: idB, Deadline: time.Now().Add(time.Minute)})

	r.Resolve(idA, true)

	if got := waiterA.Wait(); got != OutcomeApproved {
		t.Errorf("waiter A: got %v, want OutcomeApproved", got)
	}

	select {
	case outcome := <-waiterB.result:
		t.Errorf("resolving id A must never wake id B's waiter, got %v", outcome)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestShutdownResolvesAllPending(t *testing.T) {
	r := New()
	idA, _ := NewID()
	idB, _ := NewID()

	waiterA := r.Register(Entry{ID: idA, Deadline: time.Now().Add(time.Minute)})
	waiterB := r.Register(Entry{ID: idB, Deadline: time.Now().Add(time.Minute)})

	r.Shutdown()

	if got := waiterA.Wait(); got != OutcomeShutdown {
		t.Errorf("waiter A: got %v, want OutcomeShutdown", got)
	}
	if got := waiterB.Wait(); got != OutcomeShutdown {
		t.Errorf("waiter B: got %v, want OutcomeShutdown", got)
	}
	if n := r.Snapshot(); n != 0 {
		t.Errorf("expected zero pending after shutdown, got %d", n)
	}
}

func TestPendingReportsMembership(t *testing.T) {
	r := New()
	id, _ := NewID()

	if r.Pending(id) {
		t.Errorf("unregistered id must not be pending")
	}

	r.Register(Entry{ID: id, Deadline: time.Now().Add(time.Minute)})
	if !r.Pending(id) {
		t.Errorf("registered id must be pending")
	}

	r.Resolve(id, true)
	if r.Pending(id) {
		t.Errorf("resolved id must no longer be pending")
	}
}
