package readable

import "sync"

// libMu serializes every call into the container library across all
// catalogs in the process. Each catalog also holds its own mutex, but the
// hazard here is library-global, not per-handle: concurrent parsing of two
// different containers shares internal library state, so opening, catalog
// building, and reads all funnel through this lock.
var libMu sync.Mutex

// libLockHook, when non-nil, observes lock acquisition and release. Tests
// use it to verify that library calls from different catalogs never
// interleave. Must be set before any catalog activity.
var libLockHook func(event string)

func lockLibrary() {
	libMu.Lock()
	if libLockHook != nil {
		libLockHook("acquire")
	}
}

func unlockLibrary() {
	if libLockHook != nil {
		libLockHook("release")
	}
	libMu.Unlock()
}
