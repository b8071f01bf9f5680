// platform_windows.go -- VM adapter for Windows
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

//go:build windows

package memsnap

import (
	"fmt"
	"os"
	"reflect"
	"unsafe"

	"golang.org/x/sys/windows"
)

// windowsBacking is a section (file-mapping) object. For FileBacked
// snapshots, file also holds the caller's handle so Flush can call
// FlushFileBuffers; for Anonymous snapshots it is a page-file-backed
// section and file is nil.
type windowsBacking struct {
	section  windows.Handle
	file     *os.File
	writable bool // section was created PAGE_READWRITE, not just PAGE_WRITECOPY
}

func (b *windowsBacking) Close() error {
	if err := windows.CloseHandle(b.section); err != nil {
		return &MappingFailed{Op: "close section", Err: err}
	}
	if b.file != nil {
		if err := b.file.Close(); err != nil {
			return &MappingFailed{Op: "close backing " + b.file.Name(), Err: err}
		}
	}
	return nil
}

type windowsPlatform struct{}

func newPlatform() platform {
	return &windowsPlatform{}
}

// Missing constants in x/sys/windows.
const (
	secLargePages uint32 = 0x80000000
)

func (p *windowsPlatform) openAnonymous(length uint64, opts snapshotOptions) (platformBacking, error) {
	protect := uint32(windows.PAGE_READWRITE)
	if opts.hugePages {
		protect |= secLargePages
	}
	h, err := createSection(windows.InvalidHandle, length, protect)
	if err != nil {
		return nil, &MappingFailed{Op: "create anonymous section", Err: err}
	}
	return &windowsBacking{section: h, writable: true}, nil
}

func (p *windowsPlatform) openFile(f *os.File, length uint64, opts snapshotOptions) (platformBacking, error) {
	h := windows.Handle(f.Fd())

	// Try the most permissive protection first so ReadOnly, COW and
	// shared-RW views are all available; fall back to WRITECOPY-only
	// (still enough for ReadOnly and COW) when the file handle lacks
	// write access.
	sec, err := createSection(h, length, windows.PAGE_READWRITE)
	if err == nil {
		return &windowsBacking{section: sec, file: f, writable: true}, nil
	}

	sec, err = createSection(h, length, windows.PAGE_WRITECOPY)
	if err != nil {
		return nil, &MappingFailed{Op: fmt.Sprintf("create section for %s", f.Name()), Err: err}
	}
	return &windowsBacking{section: sec, file: f, writable: false}, nil
}

func createSection(h windows.Handle, length uint64, protect uint32) (windows.Handle, error) {
	maxHigh := uint32(length >> 32)
	maxLow := uint32(length & 0xffffffff)
	sec, err := windows.CreateFileMapping(h, nil, protect, maxHigh, maxLow, nil)
	if sec == 0 {
		return 0, os.NewSyscallError("CreateFileMapping", err)
	}
	return sec, nil
}

func (p *windowsPlatform) mapReadOnly(bk platformBacking, length uint64, opts snapshotOptions) ([]byte, error) {
	b := bk.(*windowsBacking)
	base, err := mapView(b.section, windows.FILE_MAP_READ, length)
	if err != nil {
		return nil, &MappingFailed{Op: "map view read-only", Err: err}
	}
	return base, nil
}

func (p *windowsPlatform) mapCOW(bk platformBacking, length uint64, opts snapshotOptions) ([]byte, error) {
	b := bk.(*windowsBacking)
	base, err := mapView(b.section, windows.FILE_MAP_COPY, length)
	if err != nil {
		return nil, &MappingFailed{Op: "map view cow", Err: err}
	}
	return base, nil
}

func (p *windowsPlatform) mapSharedRW(bk platformBacking, length uint64, opts snapshotOptions) ([]byte, error) {
	b := bk.(*windowsBacking)
	if !b.writable {
		return nil, &MappingFailed{Op: "map view shared-rw", Err: fmt.Errorf("backing section is read-only/write-copy")}
	}
	base, err := mapView(b.section, windows.FILE_MAP_WRITE|windows.FILE_MAP_READ, length)
	if err != nil {
		return nil, &MappingFailed{Op: "map view shared-rw", Err: err}
	}
	return base, nil
}

func mapView(section windows.Handle, access uint32, length uint64) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	addr, err := windows.MapViewOfFile(section, access, 0, 0, uintptr(length))
	if addr == 0 {
		return nil, os.NewSyscallError("MapViewOfFile", err)
	}

	var b []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	sh.Data = addr
	sh.Len = int(length)
	sh.Cap = int(length)
	return b, nil
}

func baseAddr(base []byte) uintptr {
	if len(base) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&base[0]))
}

func (p *windowsPlatform) unmap(base []byte) error {
	addr := baseAddr(base)
	if addr == 0 {
		return nil
	}
	if err := windows.UnmapViewOfFile(addr); err != nil {
		return &MappingFailed{Op: "unmap view", Err: err}
	}
	return nil
}

func (p *windowsPlatform) flush(base []byte, bk platformBacking) error {
	addr := baseAddr(base)
	if addr == 0 {
		return nil
	}
	if err := windows.FlushViewOfFile(addr, uintptr(len(base))); err != nil {
		return &MappingFailed{Op: "flush view", Err: err}
	}

	b := bk.(*windowsBacking)
	if b.file != nil && b.writable {
		if err := windows.FlushFileBuffers(windows.Handle(b.file.Fd())); err != nil {
			return &MappingFailed{Op: fmt.Sprintf("flush file buffers %s", b.file.Name()), Err: err}
		}
	}
	return nil
}

func (p *windowsPlatform) lock(base []byte) error {
	if len(base) == 0 {
		return nil
	}
	if err := windows.VirtualLock(baseAddr(base), uintptr(len(base))); err != nil {
		return &MappingFailed{Op: "VirtualLock", Err: err}
	}
	return nil
}

func (p *windowsPlatform) unlock(base []byte) error {
	if len(base) == 0 {
		return nil
	}
	if err := windows.VirtualUnlock(baseAddr(base), uintptr(len(base))); err != nil {
		return &MappingFailed{Op: "VirtualUnlock", Err: err}
	}
	return nil
}

func queryPageSize() int {
	var si windows.SystemInfo
	windows.GetSystemInfo(&si)
	return int(si.PageSize)
}
