// view_test.go - view kind semantics and take-snapshot
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

package memsnap_test

import (
	"bytes"
	"testing"

	memsnap "github.com/opencoff/go-memsnap"
)

// S1 - COW isolation: a write through one CowPrivate view is invisible to
// the parent Snapshot and to sibling views.
func TestCOWIsolation(t *testing.T) {
	assert := newAsserter(t)

	s, err := memsnap.FromSlice([]byte("Hello, World!"))
	assert(err == nil, "from-slice: %s", err)
	defer s.Close()

	v, err := s.ViewCOW()
	assert(err == nil, "view-cow: %s", err)
	defer v.Close()

	_, err = v.WriteAt(0, []byte("h"))
	assert(err == nil, "write: %s", err)

	got, _ := v.ReadAt(0, 5)
	assert(bytes.Equal(got, []byte("hello")), "cow view: got %q", got)

	ro, err := s.View()
	assert(err == nil, "view: %s", err)
	defer ro.Close()

	got2, _ := ro.ReadAt(0, 5)
	assert(bytes.Equal(got2, []byte("Hello")), "parent snapshot mutated by cow write: got %q", got2)
}

// Invariant 2: two independent CowPrivate views never observe each other's
// writes.
func TestCOWSiblingIsolation(t *testing.T) {
	assert := newAsserter(t)

	s, err := memsnap.FromSlice([]byte("abcdefgh"))
	assert(err == nil, "from-slice: %s", err)
	defer s.Close()

	v1, err := s.ViewCOW()
	assert(err == nil, "view-cow 1: %s", err)
	defer v1.Close()

	v2, err := s.ViewCOW()
	assert(err == nil, "view-cow 2: %s", err)
	defer v2.Close()

	_, err = v1.WriteAt(0, []byte("X"))
	assert(err == nil, "write: %s", err)

	got2, _ := v2.ReadAt(0, 1)
	assert(got2[0] == 'a', "sibling cow view observed write: got %q", got2)
}

// S2 - mutable reflection: writes through a SharedMutable view are visible
// to subsequently created views of the same snapshot.
func TestSharedMutableReflection(t *testing.T) {
	assert := newAsserter(t)

	s, err := memsnap.FromSlice([]byte("Hello, World!"))
	assert(err == nil, "from-slice: %s", err)
	defer s.Close()

	m, err := s.ViewMut()
	assert(err == nil, "view-mut: %s", err)

	_, err = m.WriteAt(0, []byte("J"))
	assert(err == nil, "write: %s", err)
	_, err = m.WriteAt(7, []byte("R"))
	assert(err == nil, "write: %s", err)

	assert(m.Close() == nil, "close view-mut")

	ro, err := s.View()
	assert(err == nil, "view: %s", err)
	defer ro.Close()

	got, _ := ro.ReadAt(0, 13)
	assert(bytes.Equal(got, []byte("Jello, Rorld!")), "got %q", got)
}

// S5 - take_snapshot captures mid-mutation state: mutating the source view
// after TakeSnapshot has no effect on the new snapshot, while the source
// view still sees its own later write.
func TestTakeSnapshotMidMutation(t *testing.T) {
	assert := newAsserter(t)

	s1, err := memsnap.FromSlice([]byte("Original"))
	assert(err == nil, "from-slice: %s", err)
	defer s1.Close()

	v1, err := s1.ViewMut()
	assert(err == nil, "view-mut: %s", err)
	defer v1.Close()

	_, err = v1.WriteAt(0, []byte("M"))
	assert(err == nil, "write: %s", err)

	s2, err := v1.TakeSnapshot()
	assert(err == nil, "take-snapshot: %s", err)
	defer s2.Close()

	_, err = v1.WriteAt(1, []byte("X"))
	assert(err == nil, "write: %s", err)

	v2, err := s2.View()
	assert(err == nil, "view: %s", err)
	defer v2.Close()

	got2, _ := v2.ReadAt(0, 8)
	assert(bytes.Equal(got2, []byte("Mriginal")), "s2: got %q", got2)

	got1, _ := v1.ReadAt(0, 8)
	assert(bytes.Equal(got1, []byte("MXiginal")), "v1: got %q", got1)
}

// Invariant 4, other direction: mutating a view of S' never affects V (the
// test above covers writes to V not reaching S').
func TestTakeSnapshotFullyIndependent(t *testing.T) {
	assert := newAsserter(t)

	s, err := memsnap.FromSlice([]byte("independent"))
	assert(err == nil, "from-slice: %s", err)
	defer s.Close()

	v, err := s.ViewCOW()
	assert(err == nil, "view-cow: %s", err)
	defer v.Close()

	s2, err := v.TakeSnapshot()
	assert(err == nil, "take-snapshot: %s", err)
	defer s2.Close()

	m2, err := s2.ViewMut()
	assert(err == nil, "view-mut on s2: %s", err)

	_, err = m2.WriteAt(0, []byte("X"))
	assert(err == nil, "write: %s", err)
	assert(m2.Close() == nil, "close")

	got, _ := v.ReadAt(0, 1)
	assert(got[0] == 'i', "original view mutated by write to promoted snapshot: got %q", got)
}

// TakeSnapshot is callable on a plain ReadOnly view too (the distilled
// spec's Open Question, resolved in DESIGN.md).
func TestTakeSnapshotOnReadOnlyView(t *testing.T) {
	assert := newAsserter(t)

	s, err := memsnap.FromSlice([]byte("plain"))
	assert(err == nil, "from-slice: %s", err)
	defer s.Close()

	v, err := s.View()
	assert(err == nil, "view: %s", err)
	defer v.Close()

	s2, err := v.TakeSnapshot()
	assert(err == nil, "take-snapshot on read-only view: %s", err)
	defer s2.Close()

	v2, err := s2.View()
	assert(err == nil, "view: %s", err)
	defer v2.Close()
	assert(bytes.Equal(v2.Bytes(), []byte("plain")), "got %q", v2.Bytes())
}

// S9 - double Close on a View is a safe no-op (Go io.Closer idiom).
func TestDoubleClose(t *testing.T) {
	assert := newAsserter(t)

	s, err := memsnap.FromSlice([]byte("x"))
	assert(err == nil, "from-slice: %s", err)
	defer s.Close()

	v, err := s.View()
	assert(err == nil, "view: %s", err)

	assert(v.Close() == nil, "first close")
	assert(v.Close() == nil, "second close should be a no-op")
}

// ViewMut excludes concurrent View/ViewCOW creation until it is closed.
func TestViewMutExclusive(t *testing.T) {
	assert := newAsserter(t)

	s, err := memsnap.Zeroed(4096)
	assert(err == nil, "zeroed: %s", err)
	defer s.Close()

	m, err := s.ViewMut()
	assert(err == nil, "view-mut: %s", err)

	done := make(chan error, 1)
	go func() {
		ro, err := s.View()
		if err != nil {
			done <- err
			return
		}
		done <- ro.Close()
	}()

	// The goroutine above blocks on s's RWMutex until m is closed.
	assert(m.Close() == nil, "close view-mut")
	assert(<-done == nil, "view after mut released")
}
