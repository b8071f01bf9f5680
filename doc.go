// doc.go - package overview
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

// Package memsnap provides immutable memory Snapshots and copy-on-write or
// shared-mutable Views onto them, backed by the host's virtual memory
// mapping primitives.
//
// A Snapshot owns one backing region, populated from a file, a byte slice,
// or a zero-filled length. Views are transient windows onto a Snapshot:
// ReadOnly, CowPrivate (writes are private to the view), or SharedMutable
// (writes alias the Snapshot's own bytes). A View's TakeSnapshot method
// freezes its current contents into a new, independent Snapshot.
package memsnap
