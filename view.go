// view.go - a live mapping onto a Snapshot's backing region
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

// View is a bounded, addressable window onto a Snapshot. Its kind is fixed
// at creation: ReadOnly, CowPrivate or SharedMutable. A View produced by
// Snapshot.View/ViewCOW/ViewMut borrows its parent and must be closed before
// the parent's own Close can proceed; a View produced by
// SharedSnapshot.ViewShared carries a cloned reference instead and may
// outlive the call frame that created it, including across goroutines.
type View struct {
	mu     sync.Mutex
	kind   ViewKind
	base   []byte
	length uint64
	parent *Snapshot       // set for borrowing views
	shared *SharedSnapshot // set for shared-ownership views
	closed bool
}

// Kind reports the view's access discipline.
func (v *View) Kind() ViewKind { return v.kind }

// Len reports the view's length, always equal to its parent Snapshot's
// length at the time the view was created.
func (v *View) Len() uint64 { return v.length }

// ReadAt copies n bytes starting at offset into a freshly allocated slice.
func (v *View) ReadAt(offset uint64, n int) ([]byte, error) {
	end := offset + uint64(n)
	if n < 0 || end > v.length {
		return nil, &OutOfBounds{Offset: offset, Length: v.length}
	}
	out := make([]byte, n)
	copy(out, v.base[offset:end])
	return out, nil
}

// WriteAt writes p starting at offset. It fails with NotWritable if the
// view's kind forbids mutation, and with OutOfBounds if the write would
// overrun the view. For a CowPrivate view, the first write to any page
// transparently privatizes that page; the engine does nothing special to
// make this happen, it is a property of the underlying COW mapping.
func (v *View) WriteAt(offset uint64, p []byte) (int, error) {
	if v.kind == ReadOnly {
		return 0, &NotWritable{Kind: v.kind}
	}
	end := offset + uint64(len(p))
	if end > v.length {
		return 0, &OutOfBounds{Offset: offset, Length: v.length}
	}
	return copy(v.base[offset:end], p), nil
}

// Bytes exposes the view's contiguous mapped region for zero-copy readers.
// The returned slice is valid only until the View is closed.
func (v *View) Bytes() []byte { return v.base }

// BytesMut exposes the view's contiguous mapped region for zero-copy
// writers. It fails with NotWritable for a ReadOnly view.
func (v *View) BytesMut() ([]byte, error) {
	if v.kind == ReadOnly {
		return nil, &NotWritable{Kind: v.kind}
	}
	return v.base, nil
}

// backing returns the platform backing object underlying this view's
// mapping, regardless of whether the view is borrowing- or shared-owned.
func (v *View) backing() platformBacking {
	if v.parent != nil {
		return v.parent.backing
	}
	return v.shared.snap.backing
}

// Flush synchronizes the view's dirty pages back to its backing (the
// originating file for a FileBacked snapshot, the anonymous backing for an
// Anonymous one).
func (v *View) Flush() error {
	return vm.flush(v.base, v.backing())
}

// Lock pins the view's pages in physical memory, preventing page-out.
func (v *View) Lock() error { return vm.lock(v.base) }

// Unlock reverses Lock.
func (v *View) Unlock() error { return vm.unlock(v.base) }

// TakeSnapshot freezes the view's currently visible bytes into a new,
// independent Snapshot. The new Snapshot shares no writable backing with
// the view's parent: further writes to either side are invisible to the
// other. Callable on any view kind; on a ReadOnly view it is a plain
// duplication, on a CowPrivate view it captures that view's private pages
// plus whatever it still shares unmodified with its parent, on a
// SharedMutable view it captures a point-in-time copy of the aliasable
// backing (page-granularity tearing against concurrent writers on other
// SharedMutable views of the same Snapshot is permitted, per §7).
func (v *View) TakeSnapshot() (*Snapshot, error) {
	v.mu.Lock()
	closed := v.closed
	length := v.length
	src := v.base
	v.mu.Unlock()

	if closed {
		return nil, &MappingFailed{Op: "take-snapshot", Err: fmt.Errorf("view is closed")}
	}

	o := snapshotOptions{}
	bk, err := vm.openAnonymous(length, o)
	if err != nil {
		return nil, err
	}

	if length > 0 {
		dst, err := vm.mapSharedRW(bk, length, o)
		if err != nil {
			bk.Close()
			return nil, err
		}
		copy(dst, src)
		if err := vm.unmap(dst); err != nil {
			bk.Close()
			return nil, err
		}
	}

	return &Snapshot{length: length, origin: Anonymous, backing: bk, opts: o}, nil
}

// Close releases the view's own OS mapping. It never affects the parent
// Snapshot's backing. Closing an already-closed View is a safe no-op.
func (v *View) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true

	err := vm.unmap(v.base)

	switch {
	case v.parent != nil && v.kind == SharedMutable:
		v.parent.mu.Unlock()
	case v.parent != nil:
		v.parent.mu.RUnlock()
	case v.shared != nil:
		if releaseErr := v.shared.release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}

	return err
}
