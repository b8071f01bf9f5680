// map_darwin.go - flags we need

//go:build darwin

package memsnap

// Darwin doesn't have these; so we mark them zero
const (
	_MAP_HUGETLB  = 0
	_MAP_POPULATE = 0
)

// adviseReadahead is a no-op on Darwin; there is no MADV_WILLNEED
// equivalent wired through x/sys/unix that behaves usefully here.
func adviseReadahead(base []byte) error {
	return nil
}
