// kind.go - view kinds, snapshot origin and construction options
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

// ViewKind describes the access discipline of a View.
type ViewKind uint

const (
	// ReadOnly views permit no writes.
	ReadOnly ViewKind = iota
	// CowPrivate views privatize a page on its first write; writes are
	// never observed by any other View of the same Snapshot.
	CowPrivate
	// SharedMutable views alias the Snapshot's own backing; writes are
	// observed by other views of the same Snapshot per §7.
	SharedMutable
)

func (k ViewKind) String() string {
	switch k {
	case ReadOnly:
		return "read-only"
	case CowPrivate:
		return "cow-private"
	case SharedMutable:
		return "shared-mutable"
	default:
		return "unknown"
	}
}

// Origin describes how a Snapshot's backing region was populated.
type Origin uint

const (
	// Anonymous backings are not tied to any file.
	Anonymous Origin = iota
	// FileBacked backings are mapped directly from an open file.
	FileBacked
)

func (o Origin) String() string {
	switch o {
	case Anonymous:
		return "anonymous"
	case FileBacked:
		return "file-backed"
	default:
		return "unknown"
	}
}

// snapshotOptions collects the advanced mapping hints a caller may request
// at construction time. These mirror the teacher's Flag bitfield
// (F_HUGETLB, F_READAHEAD) as idiomatic functional options.
type snapshotOptions struct {
	hugePages bool
	readahead bool
}

// SnapshotOption configures advanced mapping behavior for a Snapshot
// factory. Unsupported hints are silently ignored on hosts that lack them
// (e.g. huge pages on Darwin and the BSDs).
type SnapshotOption func(*snapshotOptions)

// WithHugePages requests that the backing be reserved using the host's
// huge-page facility, where available.
func WithHugePages() SnapshotOption {
	return func(o *snapshotOptions) { o.hugePages = true }
}

// WithReadahead hints that the file-backed mapping will be read
// sequentially soon, enabling MAP_POPULATE-style pre-faulting where
// available. It applies to every ReadOnly view of the Snapshot, whatever
// its origin.
func WithReadahead() SnapshotOption {
	return func(o *snapshotOptions) { o.readahead = true }
}

func resolveOptions(opts []SnapshotOption) snapshotOptions {
	var o snapshotOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
