// Package writer implements the reserve -> fill -> publish protocol: a
// wait-free append of a framed record into a partition-indexed ring, with
// no locks, no blocking, and no allocation on the hot path.
//
// Process identity, thread identity, and the clock come in through a
// pluggable Environment so tests can substitute deterministic values.
package writer

import (
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/yanet-platform/mlog/internal/container"
	"github.com/yanet-platform/mlog/internal/partition"
	"github.com/yanet-platform/mlog/internal/record"
	"github.com/yanet-platform/mlog/internal/ring"
)

// Flags enables optional per-record inline capture.
type Flags uint32

const (
	// ThreadName captures Environment.ThreadName() into each record.
	ThreadName Flags = 1 << iota
	// SourceName captures (a truncated form of) the caller-supplied
	// source file name into each record.
	SourceName
)

// Environment bundles the external collaborators the writer needs: a
// clock, process/thread identity, and (elsewhere, at Init) a path
// resolver. Tests substitute deterministic implementations; production
// code uses DefaultEnvironment.
type Environment struct {
	NowMicros  func() int64
	PID        func() uint32
	ThreadID   func() uint32
	ThreadName func() string
}

// DefaultEnvironment returns the production Environment: the system clock,
// the real pid, the kernel thread id (via gettid(2), never cgo), and an
// empty thread name (Go goroutines have no OS-level name to report; callers
// that want one should supply their own ThreadName).
func DefaultEnvironment() Environment {
	pid := uint32(os.Getpid())
	return Environment{
		NowMicros:  func() int64 { return time.Now().UnixMicro() },
		PID:        func() uint32 { return pid },
		ThreadID:   func() uint32 { return uint32(unix.Gettid()) },
		ThreadName: func() string { return "" },
	}
}

// Callback is invoked synchronously on every Put, teeing the record's
// fields to the caller (e.g. stdout). A writer holds at most one; callers
// that want fan-out compose it themselves.
type Callback func(timeUS int64, srcName string, srcLine int, level, category uint32, mini uint64, payload []byte)

// state is the writer's live configuration, swapped atomically by Init,
// InitDefault, SetCallback and PostForked so Put never blocks on a mutex.
type state struct {
	cnt      *container.Container // nil in dummy mode
	table    *partition.Table
	flags    Flags
	pid      uint32
	callback Callback
}

// dummyRingSize is a fallback buffer so small that Reserve's "+32 > size"
// guard rejects every record, making Put a safe, permanent no-op before a
// successful Init, without a special-cased branch in the hot path.
const dummyRingSize = 16

// Writer publishes records into a partition-indexed ring. The zero value
// is not usable; construct with New.
type Writer struct {
	env       Environment
	defaultCB Callback
	st        atomic.Pointer[state]
	dummy     []byte
}

// New constructs a writer already parked in dummy (safe no-op) mode with
// defaultCB installed; call Init to attach it to a real container.
// defaultCB (typically a record-to-stdout printer, may be nil) is also
// reinstalled whenever Init fails.
func New(env Environment, defaultCB Callback) *Writer {
	w := &Writer{env: env, defaultCB: defaultCB, dummy: make([]byte, dummyRingSize)}
	w.st.Store(w.dummyState())
	return w
}

func (w *Writer) dummyState() *state {
	var nextAddr uint32
	t := partition.Build(
		[8][]byte{w.dummy},
		[8]uint32{dummyRingSize},
		[8]*uint32{&nextAddr},
	)
	return &state{table: t, pid: w.env.PID(), callback: w.defaultCB}
}

// Init attaches the writer to the named container, creating or
// reattaching to its backing file per container.OpenOrCreate. Init always
// resets the callback: nil after a successful attach (records now land in
// the file), the default one after a failure, which also returns the
// writer to dummy mode so subsequent Put calls remain safe no-ops.
func (w *Writer) Init(path string, shape container.Shape, flags Flags, hint string) error {
	cnt, err := container.OpenOrCreate(path, shape, hint, w.env.NowMicros)
	if err != nil {
		w.st.Store(w.dummyState())
		return err
	}

	w.st.Store(&state{
		cnt:   cnt,
		table: cnt.Partitions(),
		flags: flags,
		pid:   w.env.PID(),
	})
	return nil
}

// InitDefault returns the writer to its initial dummy no-op state with
// the default callback installed, discarding any attached container. It
// is the same state a failed Init leaves behind.
func (w *Writer) InitDefault() {
	w.st.Store(w.dummyState())
}

// SetCallback installs (or, with nil, removes) the per-Put callback.
func (w *Writer) SetCallback(cb Callback) {
	cur := *w.st.Load()
	cur.callback = cb
	w.st.Store(&cur)
}

// PostForked refreshes the cached PID after fork(2), without touching the
// mapping.
func (w *Writer) PostForked(pid uint32) {
	cur := *w.st.Load()
	cur.pid = pid
	w.st.Store(&cur)
}

// Clear resets the record counter and every partition to its sentinel
// state.
func (w *Writer) Clear() {
	st := w.st.Load()
	if st.cnt != nil {
		st.cnt.Clear()
	} else {
		st.table.Clear()
	}
}

// HdrAddr returns the caller's opaque header region and its size, or nil
// if the writer is in dummy mode.
func (w *Writer) HdrAddr() (buf []byte, size uint32) {
	st := w.st.Load()
	if st.cnt == nil {
		return nil, 0
	}
	return st.cnt.UserHeader(), uint32(len(st.cnt.UserHeader()))
}

// Put composes a record from its arguments and publishes it: capture
// names, reserve space, mint the sequence number, fill header and
// payload, and commit by writing the trailing size word last. It never
// blocks and never allocates on the shared-memory write path; it returns
// false iff the record cannot fit in its partition, in which case nothing
// else is mutated (neither the cursor nor the global counter). The
// callback fires first, before the fit check, whether or not the record
// ultimately publishes.
func (w *Writer) Put(timeUS int64, srcName string, srcLine int, level, category uint32, mini uint64, payload []byte) bool {
	st := w.st.Load()

	if st.callback != nil {
		st.callback(timeUS, srcName, srcLine, level, category, mini, payload)
	}

	var threadName string
	if st.flags&ThreadName != 0 && w.env.ThreadName != nil {
		threadName = record.TruncateThreadName(w.env.ThreadName())
	}

	var sourceName string
	if st.flags&SourceName != 0 && srcName != "" {
		sourceName = record.TruncateSourceName(srcName)
	}

	size := record.HeaderSize + len(payload) + record.TrailerSize
	if len(threadName) > 0 {
		size += len(threadName) + 1
	}
	if len(sourceName) > 0 {
		size += len(sourceName) + 1
	}

	r := st.table.For(uint(level))
	if r == nil {
		return false
	}

	addr, ok := r.Reserve(uint32(size))
	if !ok {
		return false
	}

	// Reserve can only succeed on a real container's partition: the dummy
	// ring is too small for any record, so st.cnt is non-nil here.
	order := st.cnt.IncCnt()
	brOrder := ^order

	hdr := record.Header{
		Size:    uint32(size),
		Order:   order,
		TimeUS:  timeUS,
		Mini:    mini,
		Bits:    record.PackBits(uint(level), uint(category), uint(len(threadName)), uint(len(sourceName)), uint(srcLine), 0),
		PID:     st.pid,
		ThID:    w.env.ThreadID(),
		BrOrder: brOrder,
	}

	var hdrBuf [record.HeaderSize]byte
	record.Encode(hdrBuf[:], hdr)

	addr = r.Put(addr, hdrBuf[:])
	addr = r.Put(addr, payload)
	if len(threadName) > 0 {
		addr = putName(r, addr, threadName)
	}
	if len(sourceName) > 0 {
		addr = putName(r, addr, sourceName)
	}
	var trailer [record.TrailerSize]byte
	record.PutTrailer(trailer[:], hdr.Size)
	r.Put(addr, trailer[:])

	return true
}

// putName writes a NUL-terminated name (already truncated to MaxNameSize)
// into the ring via a stack buffer, keeping the publish path free of heap
// allocation.
func putName(r *ring.Ring, addr uint32, name string) uint32 {
	var buf [record.MaxNameSize + 1]byte
	n := copy(buf[:], name)
	buf[n] = 0
	return r.Put(addr, buf[:n+1])
}
