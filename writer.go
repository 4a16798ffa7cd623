package mlog

import (
	"fmt"
	"time"

	"github.com/c2h5oh/datasize"

	"github.com/yanet-platform/mlog/internal/container"
	"github.com/yanet-platform/mlog/internal/partition"
	"github.com/yanet-platform/mlog/internal/pathresolve"
	"github.com/yanet-platform/mlog/internal/writer"
)

// DefaultSuffix is appended to a logical log name that carries no file
// extension of its own.
const DefaultSuffix = ".mlog"

// DirEnvVar names the environment variable consulted to resolve a
// relative log name to a directory, when set.
const DirEnvVar = "MLOG_DIR"

// NPart is the fixed number of partitions in a file, one per severity
// level 0..7.
const NPart = partition.Count

// Size bounds enforced on every nonzero partition at Init. The lower
// bound keeps a partition able to hold a handful of minimally sized
// records plus framing overhead; the upper bound keeps the reader's
// virtual tail-walk start (cursor + 2*size_b) within 32-bit logical
// address space.
var (
	MinPartitionSize = uint32(64 * datasize.KB)
	MaxPartitionSize = uint32(datasize.GB)
)

// Flags selects optional per-record inline capture.
type Flags = writer.Flags

const (
	// ThreadName captures the writer environment's thread name into each
	// record. The environment NewWriter uses reports an empty name, so
	// records written through it carry no inline thread name.
	ThreadName = writer.ThreadName
	// SourceName captures a truncated caller-supplied source file name
	// into each record.
	SourceName = writer.SourceName
)

// Callback is invoked synchronously on every Put, whether or not the
// record publishes.
type Callback = writer.Callback

// Writer publishes records into a partition-indexed, memory-mapped ring.
// The zero value is not ready to use; construct with NewWriter.
type Writer struct {
	w *writer.Writer
}

// NewWriter constructs a writer parked in a safe no-op state, teeing
// every Put to stdout until Init attaches it to a real log file. A
// successful Init drops the tee (records land in the file instead); a
// failed Init restores it along with the no-op state.
func NewWriter() *Writer {
	return &Writer{w: writer.New(writer.DefaultEnvironment(), stdoutCallback)}
}

// Init resolves name to a path (via pathresolve, honoring DirEnvVar) and
// maps or creates the backing file with the given shape. If the existing
// file's revision or partition shape disagrees with sizeV/userHdrSize,
// the mapping is zeroed and reinitialized, resetting cnt.
//
// Init validates every nonzero entry of sizeV against
// [MinPartitionSize, MaxPartitionSize] before touching the filesystem; on
// validation failure (or an mmap/open failure) the writer returns to its
// dummy no-op state with the stdout tee reinstalled, so subsequent Put
// calls are always safe. A successful Init removes the tee.
func (w *Writer) Init(name string, userHdrSize uint32, sizeV [NPart]uint32, flags Flags, hint string) error {
	shape := container.Shape{UserHdrSize: userHdrSize, PartSizes: sizeV}
	if err := container.ValidateShape(shape, MinPartitionSize, MaxPartitionSize); err != nil {
		w.w.InitDefault()
		return fmt.Errorf("mlog: invalid partition shape: %w", err)
	}

	path := pathresolve.Resolve(name, DefaultSuffix, DirEnvVar)
	return w.w.Init(path, shape, flags, hint)
}

// Put composes a record from its arguments and publishes it. It returns
// false iff the record cannot fit in its partition; in that case neither
// the cursor nor the global counter is touched. The callback, if any,
// fires regardless of whether the record publishes.
func (w *Writer) Put(timeUS int64, srcName string, srcLine int, level, category uint32, mini uint64, payload []byte) bool {
	return w.w.Put(timeUS, srcName, srcLine, level, category, mini, payload)
}

// PutString is a convenience wrapper filling time_us from the system
// clock and the payload from s plus a trailing NUL.
func (w *Writer) PutString(srcName string, srcLine int, level, category uint32, mini uint64, s string) bool {
	payload := make([]byte, len(s)+1)
	copy(payload, s)
	return w.Put(time.Now().UnixMicro(), srcName, srcLine, level, category, mini, payload)
}

// Clear resets cnt and every partition's cursor to the sentinel state.
func (w *Writer) Clear() {
	w.w.Clear()
}

// EnableStdout installs the default record-to-stdout callback, restoring
// it after SetCallback installed (or removed) something else.
func (w *Writer) EnableStdout() {
	w.w.SetCallback(stdoutCallback)
}

// SetCallback installs (or, with nil, removes) the per-Put callback.
func (w *Writer) SetCallback(cb Callback) {
	w.w.SetCallback(cb)
}

// HdrAddr returns the caller's opaque header region.
func (w *Writer) HdrAddr() []byte {
	buf, _ := w.w.HdrAddr()
	return buf
}

// PostForked refreshes the cached PID after fork(2).
func (w *Writer) PostForked() {
	w.w.PostForked(uint32(currentPID()))
}
