// map_linux.go - flags we need

//go:build linux

package memsnap

import (
	"golang.org/x/sys/unix"
)

const (
	_MAP_HUGETLB  = unix.MAP_HUGETLB
	_MAP_POPULATE = unix.MAP_POPULATE
)

// adviseReadahead issues MADV_WILLNEED on the mapped region, used when a
// caller requested WithReadahead() on a source that MAP_POPULATE alone
// doesn't cover (e.g. a remap of an already-open backing).
func adviseReadahead(base []byte) error {
	if len(base) == 0 {
		return nil
	}
	return unix.Madvise(base, unix.MADV_WILLNEED)
}
