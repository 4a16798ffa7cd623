// Package reader implements the revision-aware scan side of the container
// format: loading a private snapshot of a log file, dispatching to the
// shape matching its revision, and delivering records oldest-first via a
// bounded backward tail-walk per partition merged by (timestamp, order).
package reader

// Info describes one decoded record.
type Info struct {
	ThreadID   uint32
	SourceLine uint32
	WeakOrder  uint32
	SizeB      uint32
	TimeUS     int64
	Level      uint32
	Category   uint32
	MiniData   uint64
	PID        uint32
	ThreadName string
	SourceName string
}

// Choice is called for every record a partition's tail-walk visits (even
// ones ultimately excluded from the result), newest first; returning
// true accepts the record as a scan candidate. It never sees the record's
// payload, only its decoded Info: a candidate must still pass the global
// maxcount / k-way merge before Access is called.
type Choice func(Info) bool

// Access is called once per delivered record, oldest first, with the
// decoded Info and its raw payload (excluding header, inline names, and
// trailer). Returning false stops the scan early.
type Access func(Info, []byte) bool

// Reader is the revision-dispatched scan interface implemented by rev6,
// rev7, and rev12 snapshots.
type Reader interface {
	// Scan delivers up to maxcount records satisfying order >= orderMin
	// and time_us >= max(timeUsMin, log_beg), oldest-first, via access.
	// If maxcount == 0, there is no limit.
	Scan(maxcount int, orderMin uint32, timeUsMin int64, choice Choice, access Access)
	// Hint returns the operator-supplied hint string recorded at Init.
	Hint() string
	// HdrAddr returns the caller's opaque header region.
	HdrAddr() []byte
}
