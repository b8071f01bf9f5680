// errors.go - error taxonomy for the snapshot/view engine
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

import "fmt"

// IoFailed wraps a failed file-system operation: opening a file, stat'ing
// it, or rejecting a file that isn't mappable (not a regular file, zero
// length).
type IoFailed struct {
	Op  string
	Err error
}

func (e *IoFailed) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *IoFailed) Unwrap() error { return e.Err }

// MappingFailed wraps a failed OS VM primitive: mmap, CreateFileMapping,
// MapViewOfFile and friends.
type MappingFailed struct {
	Op  string
	Err error
}

func (e *MappingFailed) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *MappingFailed) Unwrap() error { return e.Err }

// OutOfBounds reports an access past the end of a View.
type OutOfBounds struct {
	Offset uint64
	Length uint64
}

func (e *OutOfBounds) Error() string {
	return fmt.Sprintf("out of bounds: offset %d, length %d", e.Offset, e.Length)
}

// NotWritable reports a write attempted through a View whose kind forbids
// mutation.
type NotWritable struct {
	Kind ViewKind
}

func (e *NotWritable) Error() string {
	return fmt.Sprintf("view is not writable: kind=%s", e.Kind)
}
