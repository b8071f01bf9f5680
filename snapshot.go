// snapshot.go - the owning handle to one backing memory region
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
	"os"
	"sync"
)

// Snapshot is an immutable, page-aligned memory region, tagged with its
// origin (file-backed or anonymous) and length. Its bytes are reachable
// only through a View, produced by one of View, ViewMut, ViewCOW or the
// shared-ownership Shared().ViewShared.
//
// A Snapshot must not be copied after first use.
type Snapshot struct {
	mu      sync.RWMutex
	length  uint64
	origin  Origin
	backing platformBacking
	opts    snapshotOptions
	closed  bool
}

// FromFile opens a file-backed Snapshot over an already-open file handle.
// The file must be a regular, non-empty file; its length is determined via
// Stat. The handle is retained and closed by the Snapshot's own Close.
func FromFile(f *os.File, opts ...SnapshotOption) (*Snapshot, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, &IoFailed{Op: "stat " + f.Name(), Err: err}
	}
	if !st.Mode().IsRegular() {
		return nil, &IoFailed{Op: "stat " + f.Name(), Err: fmt.Errorf("not a regular file")}
	}

	length := uint64(st.Size())
	if length == 0 {
		return nil, &IoFailed{Op: "stat " + f.Name(), Err: fmt.Errorf("empty file")}
	}
	if int64(length) > maxMappingSize {
		return nil, &MappingFailed{Op: "open " + f.Name(), Err: fmt.Errorf("%d bytes exceeds maximum mapping size", length)}
	}

	o := resolveOptions(opts)
	bk, err := vm.openFile(f, length, o)
	if err != nil {
		return nil, err
	}
	return &Snapshot{length: length, origin: FileBacked, backing: bk, opts: o}, nil
}

// FromSlice creates an anonymous Snapshot containing a copy of b. The slice
// need not outlive the call.
func FromSlice(b []byte, opts ...SnapshotOption) (*Snapshot, error) {
	length := uint64(len(b))
	o := resolveOptions(opts)

	bk, err := vm.openAnonymous(length, o)
	if err != nil {
		return nil, err
	}

	if length > 0 {
		base, err := vm.mapSharedRW(bk, length, o)
		if err != nil {
			bk.Close()
			return nil, err
		}
		copy(base, b)
		if err := vm.unmap(base); err != nil {
			bk.Close()
			return nil, err
		}
	}

	return &Snapshot{length: length, origin: Anonymous, backing: bk, opts: o}, nil
}

// Zeroed creates an anonymous Snapshot of the given length, relying on the
// OS to zero-fill pages on first touch.
func Zeroed(length uint64, opts ...SnapshotOption) (*Snapshot, error) {
	if int64(length) > maxMappingSize {
		return nil, &MappingFailed{Op: "zeroed", Err: fmt.Errorf("%d bytes exceeds maximum mapping size", length)}
	}

	o := resolveOptions(opts)
	bk, err := vm.openAnonymous(length, o)
	if err != nil {
		return nil, err
	}
	return &Snapshot{length: length, origin: Anonymous, backing: bk, opts: o}, nil
}

// Len reports the Snapshot's length in bytes.
func (s *Snapshot) Len() uint64 { return s.length }

// Origin reports whether the Snapshot is file-backed or anonymous.
func (s *Snapshot) Origin() Origin { return s.origin }

// View produces a ReadOnly view. Any number of View/ViewCOW views may
// coexist; View excludes a concurrently outstanding ViewMut and vice versa.
func (s *Snapshot) View() (*View, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, &MappingFailed{Op: "view", Err: fmt.Errorf("snapshot is closed")}
	}

	base, err := vm.mapReadOnly(s.backing, s.length, s.opts)
	if err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	return &View{kind: ReadOnly, base: base, length: s.length, parent: s}, nil
}

// ViewCOW produces a CowPrivate view: writes through it are never observed
// by any other view of this Snapshot.
func (s *Snapshot) ViewCOW() (*View, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, &MappingFailed{Op: "view-cow", Err: fmt.Errorf("snapshot is closed")}
	}

	base, err := vm.mapCOW(s.backing, s.length, s.opts)
	if err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	return &View{kind: CowPrivate, base: base, length: s.length, parent: s}, nil
}

// ViewMut produces a SharedMutable view. It requires exclusive access to the
// Snapshot: no other View, ViewCOW or ViewMut view may be outstanding, and
// none may be created until this one is closed. Views made through
// Shared().ViewShared are not excluded.
func (s *Snapshot) ViewMut() (*View, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, &MappingFailed{Op: "view-mut", Err: fmt.Errorf("snapshot is closed")}
	}

	base, err := vm.mapSharedRW(s.backing, s.length, s.opts)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return &View{kind: SharedMutable, base: base, length: s.length, parent: s}, nil
}

// Shared wraps the Snapshot in a reference-counted handle whose views may be
// moved across goroutine boundaries; see SharedSnapshot.
func (s *Snapshot) Shared() *SharedSnapshot {
	return newSharedSnapshot(s)
}

// Close releases the Snapshot's backing resources. It blocks until every
// View it parents through the borrowing path (View, ViewCOW, ViewMut) has
// itself been closed. Views produced via the shared-ownership path do not
// hold the lock Close waits on: their existing mappings stay valid, but the
// backing is released by this call and no further ViewShared view can be
// made from it. See SharedSnapshot.
func (s *Snapshot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.backing.Close()
}
