// Package mlog provides a binary, memory-mapped, multi-partition,
// lock-free ring-buffer logging facility. A Writer appends framed
// records into a partition-indexed ring with a reserve -> fill -> publish
// protocol that never blocks and never takes a lock; a Reader loads an
// independent snapshot of the same file and delivers records oldest-first,
// merged across partitions by (timestamp, order).
//
// The file format is revision-gated: the Reader transparently dispatches
// to the legacy single-partition shape (revision < 7), the first
// multi-partition shape (revision 7), or the current shape (revision 12)
// based on the revision word at the start of the file.
//
// mlog deliberately stays out of durability, strict cross-writer ordering,
// and off-host transport: the file is a volatile ring, the sequence
// numbers it mints are only weakly monotone across racing writers, and
// shipping a log file anywhere is the caller's problem.
package mlog
