// Package container implements the revision-12 on-disk file format: fixed
// header, per-partition descriptors, optional caller header, and the
// concatenated partition payloads. It is the writer side of the format;
// internal/reader implements revision-aware parsing (including the legacy
// rev <= 6 and rev 7 shapes) independently, since those predate the
// partition table laid out here.
package container

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"go.uber.org/multierr"

	"github.com/yanet-platform/mlog/internal/mmap"
	"github.com/yanet-platform/mlog/internal/partition"
)

// Revision is the current container format revision.
const Revision = 12

// HintSize is the fixed width, in bytes, of the operator hint string,
// including its NUL terminator.
const HintSize = 64

const (
	offRev         = 0
	offCnt         = 4
	offUserHdrSize = 8
	offUnused      = 12
	offHint        = 16
	offPart        = offHint + HintSize                              // 80
	offLogBeg      = offPart + partition.Count*partition.DescriptorSize // 144
	rawHeaderSize  = offLogBeg + 8                                    // 152
)

// Exported byte offsets into a revision-12 header, reused by internal/reader
// to parse a read-only snapshot independently of this package's mmap-backed
// Container. Writer and reader share only the layout, never a live struct.
const (
	RevOffset         = offRev
	CntOffset         = offCnt
	UserHdrSizeOffset = offUserHdrSize
	HintOffset        = offHint
	PartOffset        = offPart
	LogBegOffset      = offLogBeg
)

// DescriptorOffset returns the byte offset of partition i's descriptor
// (next_addr u32 followed by size_b u32).
func DescriptorOffset(i int) int { return offPart + i*partition.DescriptorSize }

// HeaderSize is rawHeaderSize rounded up to a 16-byte boundary; the
// on-disk header is 16-byte aligned.
var HeaderSize = alignUp16(rawHeaderSize)

func alignUp16(n int) int { return (n + 15) &^ 15 }

// Shape describes the caller-requested container layout: how much opaque
// header space to reserve and how large each of the 8 partitions should
// be (0 disables a partition).
type Shape struct {
	UserHdrSize uint32
	PartSizes   [partition.Count]uint32
}

// Size returns the total file size this shape requires.
func (s Shape) Size() int {
	total := HeaderSize + int(s.UserHdrSize)
	for _, sz := range s.PartSizes {
		total += int(sz)
	}
	return total
}

// Container is a live, mmap-backed view of a revision-12 file, used by the
// writer. Cnt and every partition's cursor are accessed through
// sync/atomic so concurrent writers across threads and processes can race
// on them lock-free.
type Container struct {
	data   []byte
	shape  Shape
	cntPtr *uint32
	table  *partition.Table
}

// OpenOrCreate maps path, growing the file as needed, and either adopts the
// existing header (if its revision and partition shape already match
// shape) or reinitializes the whole mapping. Reinitializing zeroes the
// mapping, writes a fresh header (including the supplied hint and a new
// log_beg timestamp), and resets every partition to its sentinel state.
func OpenOrCreate(path string, shape Shape, hint string, nowUS func() int64) (*Container, error) {
	data, err := mmap.CreateRW(path, shape.Size())
	if err != nil {
		return nil, err
	}

	c := &Container{
		data:   data,
		shape:  shape,
		cntPtr: (*uint32)(unsafe.Pointer(&data[offCnt])),
	}

	if !c.shapeMatches(shape) {
		c.reinit(shape, hint, nowUS())
	}

	c.buildTable()
	return c, nil
}

func (c *Container) shapeMatches(shape Shape) bool {
	if binary.LittleEndian.Uint32(c.data[offRev:]) != Revision {
		return false
	}
	if binary.LittleEndian.Uint32(c.data[offUserHdrSize:]) != shape.UserHdrSize {
		return false
	}
	for i := 0; i < partition.Count; i++ {
		off := offPart + i*partition.DescriptorSize + 4 // size_b field
		if binary.LittleEndian.Uint32(c.data[off:]) != shape.PartSizes[i] {
			return false
		}
	}
	return true
}

func (c *Container) reinit(shape Shape, hint string, nowUS int64) {
	clear(c.data)

	binary.LittleEndian.PutUint32(c.data[offRev:], Revision)
	binary.LittleEndian.PutUint32(c.data[offUserHdrSize:], shape.UserHdrSize)

	hb := []byte(hint)
	if len(hb) > HintSize-1 {
		hb = hb[:HintSize-1]
	}
	copy(c.data[offHint:offHint+HintSize], hb)

	for i := 0; i < partition.Count; i++ {
		off := offPart + i*partition.DescriptorSize
		binary.LittleEndian.PutUint32(c.data[off:], 0) // next_addr
		binary.LittleEndian.PutUint32(c.data[off+4:], shape.PartSizes[i])
	}

	binary.LittleEndian.PutUint64(c.data[offLogBeg:], uint64(nowUS))
}

func (c *Container) buildTable() {
	var bufs [partition.Count][]byte
	var sizes [partition.Count]uint32
	var nextAddrs [partition.Count]*uint32

	off := HeaderSize + int(c.shape.UserHdrSize)
	for i := 0; i < partition.Count; i++ {
		descOff := offPart + i*partition.DescriptorSize
		sizeB := binary.LittleEndian.Uint32(c.data[descOff+4:])
		sizes[i] = sizeB
		nextAddrs[i] = (*uint32)(unsafe.Pointer(&c.data[descOff]))
		if sizeB > 0 {
			bufs[i] = c.data[off : off+int(sizeB)]
			off += int(sizeB)
		}
	}

	c.table = partition.Build(bufs, sizes, nextAddrs)

	// A freshly reinitialized container has cnt == 0 and every
	// partition's trailing word is already zero from the clear() above,
	// so an explicit Clear() is only needed when we adopted an existing
	// header whose cnt is 0 but whose partitions were never initialized
	// (shape matched on a file created by an interrupted first Init).
	if atomic.LoadUint32(c.cntPtr) == 0 {
		c.table.Clear()
	}
}

// Partitions returns the resolved partition table.
func (c *Container) Partitions() *partition.Table {
	return c.table
}

// IncCnt atomically increments and returns the container's global record
// counter.
func (c *Container) IncCnt() uint32 {
	return atomic.AddUint32(c.cntPtr, 1)
}

// Cnt returns the current value of the global record counter.
func (c *Container) Cnt() uint32 {
	return atomic.LoadUint32(c.cntPtr)
}

// LogBeg returns the microsecond timestamp recorded when this container
// was first initialized.
func (c *Container) LogBeg() int64 {
	return int64(binary.LittleEndian.Uint64(c.data[offLogBeg:]))
}

// Hint returns the operator-provided hint string.
func (c *Container) Hint() string {
	raw := c.data[offHint : offHint+HintSize]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return string(raw[:n])
}

// UserHeader returns the caller's opaque header region.
func (c *Container) UserHeader() []byte {
	return c.data[HeaderSize : HeaderSize+int(c.shape.UserHdrSize)]
}

// Clear resets the record counter and every partition to its sentinel
// state, without touching the hint, shape, or log_beg.
func (c *Container) Clear() {
	atomic.StoreUint32(c.cntPtr, 0)
	c.table.Clear()
}

// Close unmaps the container's backing memory.
func (c *Container) Close() error {
	return mmap.Unmap(c.data)
}

// NowMicros is the default clock used by OpenOrCreate callers that don't
// need to inject one for tests.
func NowMicros() int64 {
	return time.Now().UnixMicro()
}

// ReadShape reads an existing revision-12 file's header and returns the
// Shape it was created with, without mapping it for writing. It backs
// operator commands (such as mlogcat --clear) that need to reopen a file
// with its own existing shape rather than a caller-supplied one.
func ReadShape(path string) (Shape, error) {
	data, err := mmap.ReadAll(path)
	if err != nil {
		return Shape{}, err
	}
	if len(data) < HeaderSize {
		return Shape{}, fmt.Errorf("mlog: %s: too small for a revision-12 header (%d bytes)", path, len(data))
	}
	if rev := binary.LittleEndian.Uint32(data[offRev:]); rev != Revision {
		return Shape{}, fmt.Errorf("mlog: %s: revision %d is not the current revision %d", path, rev, Revision)
	}

	shape := Shape{UserHdrSize: binary.LittleEndian.Uint32(data[offUserHdrSize:])}
	for i := 0; i < partition.Count; i++ {
		off := offPart + i*partition.DescriptorSize + 4
		shape.PartSizes[i] = binary.LittleEndian.Uint32(data[off:])
	}
	return shape, nil
}

// ValidateShape rejects partition sizes that could never hold a minimal
// record plus its framing overhead, aggregating every offending partition
// into a single error instead of stopping at the first one.
func ValidateShape(shape Shape, minSize, maxSize uint32) error {
	var errs []error
	for i, sz := range shape.PartSizes {
		if sz == 0 {
			continue
		}
		if sz < minSize || sz > maxSize {
			errs = append(errs, fmt.Errorf("partition %d: size %d out of range [%d, %d]", i, sz, minSize, maxSize))
		}
	}
	return multierr.Combine(errs...)
}
