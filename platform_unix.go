// platform_unix.go -- VM adapter for unix like systems
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

//go:build darwin || linux || freebsd || openbsd || solaris || netbsd || dragonfly

package memsnap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// unixBacking is a file descriptor. For FileBacked snapshots it is the
// caller's own file, retained until Close. For Anonymous snapshots it is an
// unlinked temp file: a standard portable trick for getting an fd-backed
// region that supports repeated independent mmap calls (ReadOnly, COW,
// shared-RW) the same way a real file does, without needing memfd_create
// (Linux-only) or shm_open (inconsistently available across the BSDs).
type unixBacking struct {
	f *os.File
}

func (b *unixBacking) Close() error {
	if err := b.f.Close(); err != nil {
		return &MappingFailed{Op: "close backing " + b.f.Name(), Err: err}
	}
	return nil
}

type unixPlatform struct{}

func newPlatform() platform {
	return &unixPlatform{}
}

func (p *unixPlatform) openAnonymous(length uint64, opts snapshotOptions) (platformBacking, error) {
	f, err := os.CreateTemp("", "memsnap-*")
	if err != nil {
		return nil, &MappingFailed{Op: "create anonymous backing", Err: err}
	}
	if err := os.Remove(f.Name()); err != nil {
		f.Close()
		return nil, &MappingFailed{Op: "unlink anonymous backing", Err: err}
	}
	if err := f.Truncate(int64(length)); err != nil {
		f.Close()
		return nil, &MappingFailed{Op: "size anonymous backing", Err: err}
	}
	return &unixBacking{f: f}, nil
}

func (p *unixPlatform) openFile(f *os.File, length uint64, opts snapshotOptions) (platformBacking, error) {
	return &unixBacking{f: f}, nil
}

func (p *unixPlatform) mapReadOnly(bk platformBacking, length uint64, opts snapshotOptions) ([]byte, error) {
	b := bk.(*unixBacking)
	flags := unix.MAP_SHARED
	if opts.readahead {
		flags |= _MAP_POPULATE
	}
	base, err := mmapFd(b.f, length, unix.PROT_READ, flags)
	if err != nil {
		return nil, &MappingFailed{Op: fmt.Sprintf("mmap read-only %s", b.f.Name()), Err: err}
	}
	if opts.readahead {
		// MAP_POPULATE above already pre-faults on Linux; this is a
		// belt-and-suspenders hint for hosts where it didn't apply
		// (e.g. MAP_POPULATE silently ignored for some file systems).
		_ = adviseReadahead(base)
	}
	return base, nil
}

func (p *unixPlatform) mapCOW(bk platformBacking, length uint64, opts snapshotOptions) ([]byte, error) {
	b := bk.(*unixBacking)
	base, err := mmapFd(b.f, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
	if err != nil {
		return nil, &MappingFailed{Op: fmt.Sprintf("mmap cow %s", b.f.Name()), Err: err}
	}
	return base, nil
}

func (p *unixPlatform) mapSharedRW(bk platformBacking, length uint64, opts snapshotOptions) ([]byte, error) {
	b := bk.(*unixBacking)
	flags := unix.MAP_SHARED
	if opts.hugePages {
		flags |= _MAP_HUGETLB
	}
	base, err := mmapFd(b.f, length, unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil && flags != unix.MAP_SHARED {
		// The huge-page flag is rejected for mappings of ordinary files;
		// retry without it so the hint is ignored rather than fatal.
		base, err = mmapFd(b.f, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	}
	if err != nil {
		return nil, &MappingFailed{Op: fmt.Sprintf("mmap shared-rw %s", b.f.Name()), Err: err}
	}
	return base, nil
}

// mmapFd maps a zero-length region as a zero-length sentinel rather than
// calling unix.Mmap with a zero length, which several hosts reject outright.
func mmapFd(f *os.File, length uint64, prot, flags int) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	return unix.Mmap(int(f.Fd()), 0, int(length), prot, flags)
}

func (p *unixPlatform) unmap(base []byte) error {
	if len(base) == 0 {
		return nil
	}
	if err := unix.Munmap(base); err != nil {
		return &MappingFailed{Op: "munmap", Err: err}
	}
	return nil
}

func (p *unixPlatform) flush(base []byte, bk platformBacking) error {
	if len(base) == 0 {
		return nil
	}
	if err := unix.Msync(base, unix.MS_SYNC); err != nil {
		return &MappingFailed{Op: "msync", Err: err}
	}
	return nil
}

func (p *unixPlatform) lock(base []byte) error {
	if len(base) == 0 {
		return nil
	}
	if err := unix.Mlock(base); err != nil {
		return &MappingFailed{Op: "mlock", Err: err}
	}
	return nil
}

func (p *unixPlatform) unlock(base []byte) error {
	if len(base) == 0 {
		return nil
	}
	if err := unix.Munlock(base); err != nil {
		return &MappingFailed{Op: "munlock", Err: err}
	}
	return nil
}

func queryPageSize() int {
	return os.Getpagesize()
}
