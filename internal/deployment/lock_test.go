package deployment

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLockManager_BasicLocking(t *testing.T) {
	lm := NewLockManager()

	if !lm.TryLock("/srv/app", Trigger{After: "a1"}) {
		t.Fatal("First TryLock should succeed")
	}

	if pending := lm.Unlock("/srv/app"); len(pending) != 0 {
		t.Errorf("Unlock() returned %d pending triggers, want 0", len(pending))
	}

	if !lm.TryLock("/srv/app", Trigger{}) {
		t.Error("TryLock should succeed after unlock")
	}
	lm.Unlock("/srv/app")
}

func TestLockManager_CoalescesWhileHeld(t *testing.T) {
	lm := NewLockManager()

	if !lm.TryLock("/srv/app", Trigger{After: "a1"}) {
		t.Fatal("First TryLock should succeed")
	}

	if lm.TryLock("/srv/app", Trigger{After: "b2"}) {
		t.Error("Second TryLock on same key should fail")
	}
	if lm.TryLock("/srv/app", Trigger{After: "c3"}) {
		t.Error("Third TryLock on same key should fail")
	}

	pending := lm.Unlock("/srv/app")
	if len(pending) != 2 || pending[0].After != "b2" || pending[1].After != "c3" {
		t.Fatalf("Unlock() pending = %+v, want b2 and c3 in order", pending)
	}

	// The lock was handed back to the caller for the follow-up run.
	if lm.TryLock("/srv/app", Trigger{After: "d4"}) {
		t.Error("TryLock should fail during the follow-up run")
	}

	pending = lm.Unlock("/srv/app")
	if len(pending) != 1 || pending[0].After != "d4" {
		t.Fatalf("Unlock() pending = %+v, want d4", pending)
	}

	if pending := lm.Unlock("/srv/app"); pending != nil {
		t.Errorf("final Unlock() pending = %+v, want nil", pending)
	}
	if !lm.TryLock("/srv/app", Trigger{}) {
		t.Error("lock should be free after the last run")
	}
	lm.Unlock("/srv/app")
}

func TestLockManager_MultipleRepositories(t *testing.T) {
	lm := NewLockManager()

	for _, key := range []string{"/srv/a", "/srv/b", "/srv/c"} {
		if !lm.TryLock(key, Trigger{}) {
			t.Errorf("%s lock should succeed", key)
		}
	}

	if lm.TryLock("/srv/a", Trigger{}) {
		t.Error("Second lock on /srv/a should fail")
	}

	if pending := lm.Unlock("/srv/b"); pending != nil {
		t.Errorf("/srv/b had no pending triggers, got %+v", pending)
	}
	if !lm.TryLock("/srv/b", Trigger{}) {
		t.Error("/srv/b should be lockable after unlock")
	}
}

func TestLockManager_UnlockNonExistent(t *testing.T) {
	lm := NewLockManager()

	if pending := lm.Unlock("nonexistent"); pending != nil {
		t.Errorf("Unlock() on unknown key returned %+v", pending)
	}

	if !lm.TryLock("nonexistent", Trigger{}) {
		t.Error("Should be able to lock after unlocking non-existent")
	}
}

func TestLockManager_ConcurrentLockAttempts(t *testing.T) {
	lm := NewLockManager()

	const key = "/srv/concurrent"
	const goroutineCount = 100

	var winners int32
	var wg sync.WaitGroup
	wg.Add(goroutineCount)

	start := make(chan struct{})
	for i := 0; i < goroutineCount; i++ {
		go func() {
			defer wg.Done()
			<-start
			if lm.TryLock(key, Trigger{}) {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	// Nobody unlocked, so exactly one goroutine can hold the key and
	// every other attempt must have been queued.
	if winners != 1 {
		t.Fatalf("expected exactly one holder, got %d", winners)
	}

	pending := lm.Unlock(key)
	if len(pending) != goroutineCount-1 {
		t.Errorf("expected %d pending triggers, got %d", goroutineCount-1, len(pending))
	}
}

func TestLockManager_DeadlockPrevention(t *testing.T) {
	lm := NewLockManager()

	const repoCount = 10
	var wg sync.WaitGroup

	for i := 0; i < repoCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			key := string(rune('a' + id))
			for j := 0; j < 100; j++ {
				if lm.TryLock(key, Trigger{}) {
					lm.Unlock(key)
				}
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out - potential deadlock detected")
	}
}

func BenchmarkLockManager_TryLock(b *testing.B) {
	lm := NewLockManager()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lm.TryLock("/srv/bench", Trigger{})
		lm.Unlock("/srv/bench")
	}
}
