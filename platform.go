// platform.go - host-neutral VM adapter interface
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

import "os"

// platformBacking is the opaque OS-level object a Snapshot owns: a file
// descriptor on Unix, a section handle on Windows. It is released exactly
// once, by Snapshot.Close.
type platformBacking interface {
	Close() error
}

// platform is the capability set every concrete VM adapter (Unix, Windows)
// must provide. It is intentionally narrow: open a backing, then map it in
// any of the three view kinds any number of times.
type platform interface {
	// openAnonymous reserves a zero-filled backing of length bytes that
	// may be mapped in any view kind any number of times.
	openAnonymous(length uint64, opts snapshotOptions) (platformBacking, error)

	// openFile wraps an already-open, already-sized file as a backing
	// object suitable for the same remapping operations as an anonymous
	// one.
	openFile(f *os.File, length uint64, opts snapshotOptions) (platformBacking, error)

	// mapReadOnly, mapCOW and mapSharedRW each produce a brand new,
	// independent mapping of the given backing. Multiple calls against
	// the same backing, even with different kinds, are always legal.
	mapReadOnly(b platformBacking, length uint64, opts snapshotOptions) ([]byte, error)
	mapCOW(b platformBacking, length uint64, opts snapshotOptions) ([]byte, error)
	mapSharedRW(b platformBacking, length uint64, opts snapshotOptions) ([]byte, error)

	// unmap releases a single mapping previously returned by one of the
	// map* methods above, without affecting the backing object or any
	// other mapping of it.
	unmap(base []byte) error

	// flush synchronizes a mapping's dirty pages back to its backing
	// (the file, or the anonymous backing).
	flush(base []byte, b platformBacking) error

	// lock and unlock pin/unpin a mapping's pages in physical memory.
	lock(base []byte) error
	unlock(base []byte) error
}

// vm is the process-wide adapter instance, chosen at compile time by the
// platform_unix.go / platform_windows.go build-tagged files.
var vm platform = newPlatform()
