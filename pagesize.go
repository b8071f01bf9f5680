// pagesize.go - host page size discovery
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
	"sync"
)

var (
	pageSizeOnce sync.Once
	pageSize     int
)

// PageSize returns the host's VM page size in bytes, queried once and
// cached for the life of the process.
func PageSize() int {
	pageSizeOnce.Do(func() {
		pageSize = queryPageSize()
	})
	return pageSize
}
