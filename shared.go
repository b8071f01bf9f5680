// shared.go - the shared-ownership view-producing path
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package memsnap

import (
	"fmt"
	"sync"
)

// SharedSnapshot wraps a Snapshot in a mutex-guarded reference count so that
// views produced from it carry no borrow of the Snapshot and may be moved
// across goroutine boundaries. It exists solely to support that case; the
// plain Snapshot.View/ViewCOW/ViewMut path is cheaper (a sync.RWMutex, no
// atomic bookkeeping) and should be preferred whenever views stay on one
// goroutine.
//
// The refcount follows the same lock-decrement-release-under-lock shape as
// a reference-counted page cache entry: incrementing and decrementing the
// count must happen under the same critical section as the eventual
// release, not as two independent atomic operations, so that the backing is
// released exactly once even under concurrent ViewShared/Close calls.
type SharedSnapshot struct {
	mu    sync.Mutex
	snap  *Snapshot
	count int
}

func newSharedSnapshot(s *Snapshot) *SharedSnapshot {
	return &SharedSnapshot{snap: s, count: 1}
}

// ViewShared produces a CowPrivate view whose lifetime is untethered from
// any borrow of the Snapshot. The SharedSnapshot's reference count is
// incremented for the lifetime of the returned View; closing the View
// decrements it again.
func (ss *SharedSnapshot) ViewShared() (*View, error) {
	ss.mu.Lock()
	if ss.count == 0 {
		ss.mu.Unlock()
		return nil, &MappingFailed{Op: "view-shared", Err: fmt.Errorf("snapshot already released")}
	}
	ss.count++
	ss.mu.Unlock()

	base, err := vm.mapCOW(ss.snap.backing, ss.snap.length, ss.snap.opts)
	if err != nil {
		ss.release()
		return nil, err
	}
	return &View{kind: CowPrivate, base: base, length: ss.snap.length, shared: ss}, nil
}

// Close releases this handle's own reference to the Snapshot, equivalent to
// dropping one Arc-style holder. The backing is actually released only once
// every ViewShared-produced View and the original Close call have all
// dropped their reference.
func (ss *SharedSnapshot) Close() error {
	return ss.release()
}

func (ss *SharedSnapshot) release() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.count--
	if ss.count > 0 {
		return nil
	}
	return ss.snap.Close()
}
