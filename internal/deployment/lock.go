package deployment

import "sync"

// LockManager serialises deployments per repository and coalesces pushes
// that arrive while a deployment is running.
//
// A key is either free or held. TryLock on a held key records the trigger as
// pending instead of blocking. When the holder calls Unlock, any pending
// triggers are handed back and the key stays held, so the holder runs one
// more deployment on their behalf. Bursts of pushes therefore cost at most
// one extra deployment.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*lockState
}

type lockState struct {
	pending []Trigger
}

// NewLockManager creates a new lock manager
func NewLockManager() *LockManager {
	return &LockManager{
		locks: make(map[string]*lockState),
	}
}

// TryLock attempts to acquire the lock for key without blocking.
//
// Returns true if the caller now holds the lock. Returns false if another
// deployment holds it; t is then queued as pending for that holder.
func (lm *LockManager) TryLock(key string, t Trigger) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if state, held := lm.locks[key]; held {
		state.pending = append(state.pending, t)
		return false
	}

	lm.locks[key] = &lockState{}
	return true
}

// Unlock releases the lock for key, unless triggers were queued while it
// was held. In that case the lock stays with the caller and the queued
// triggers are returned for the next run.
//
// It is safe to call this even if the key is not locked (no-op).
func (lm *LockManager) Unlock(key string) []Trigger {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	state, held := lm.locks[key]
	if !held {
		return nil
	}

	if len(state.pending) > 0 {
		next := state.pending
		state.pending = nil
		return next
	}

	delete(lm.locks, key)
	return nil
}
