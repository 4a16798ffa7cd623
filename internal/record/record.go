// Package record implements the on-disk record framing described by the
// container format: a fixed header, a variable-length payload, optional
// inline thread/source names, and a trailing size word that lets a reader
// walk a partition backwards from its tail.
package record

import "encoding/binary"

// Bitfield widths within Header.Bits, least significant first:
// level:3 category:5 tn_size:6 sn_size:6 src_line:14 control:6 reserved:24.
const (
	levelBits    = 3
	categoryBits = 5
	tnSizeBits   = 6
	snSizeBits   = 6
	srcLineBits  = 14
	controlBits  = 6

	levelShift    = 0
	categoryShift = levelShift + levelBits
	tnSizeShift   = categoryShift + categoryBits
	snSizeShift   = tnSizeShift + tnSizeBits
	srcLineShift  = snSizeShift + snSizeBits
	controlShift  = srcLineShift + srcLineBits

	levelMask    = uint64(1)<<levelBits - 1
	categoryMask = uint64(1)<<categoryBits - 1
	tnSizeMask   = uint64(1)<<tnSizeBits - 1
	snSizeMask   = uint64(1)<<snSizeBits - 1
	srcLineMask  = uint64(1)<<srcLineBits - 1
	controlMask  = uint64(1)<<controlBits - 1

	// MaxNameSize is the truncation cap for both thread and source names
	// (6-bit width fields, excluding the NUL terminator).
	MaxNameSize = 63
	// MaxCategory is the largest representable category id (5-bit field).
	MaxCategory = 31
	// MaxLevel is the largest representable severity level (3-bit field),
	// also NPart-1.
	MaxLevel = 7

	// ControlChoice is the legacy in-place "matched during prescan"
	// flag. Current (rev12) readers never set it on disk; kept only so
	// rev <= 6 decoding doesn't choke on a nonzero value written by an
	// old writer.
	ControlChoice = 1 << 0
)

// HeaderSize is the on-disk size, in bytes, of a record header: size(4) +
// order(4) + time_us(8) + mini(8) + bits(8) + pid(4) + th_id(4) +
// br_order(4).
const HeaderSize = 44

// TrailerSize is the width of the trailing size word written after every
// record's payload and inline names.
const TrailerSize = 4

// Header is the fixed-size prefix of every record.
type Header struct {
	Size    uint32 // total record size, including header, payload, names, trailer
	Order   uint32 // global monotone counter value at publish time
	TimeUS  int64  // microseconds since epoch
	Mini    uint64 // caller-provided opaque value
	Bits    uint64 // packed level/category/tn_size/sn_size/src_line/control
	PID     uint32
	ThID    uint32
	BrOrder uint32 // bitwise NOT of Order; torn-write canary
}

// PackBits assembles the header bitfield from its logical components.
func PackBits(level, category, tnSize, snSize, srcLine, control uint) uint64 {
	return (uint64(level)&levelMask)<<levelShift |
		(uint64(category)&categoryMask)<<categoryShift |
		(uint64(tnSize)&tnSizeMask)<<tnSizeShift |
		(uint64(snSize)&snSizeMask)<<snSizeShift |
		(uint64(srcLine)&srcLineMask)<<srcLineShift |
		(uint64(control)&controlMask)<<controlShift
}

// Level returns the 0..7 severity level packed into bits.
func Level(bits uint64) uint { return uint(bits>>levelShift) & uint(levelMask) }

// Category returns the 0..31 category id packed into bits.
func Category(bits uint64) uint { return uint(bits>>categoryShift) & uint(categoryMask) }

// TnSize returns the thread name length packed into bits.
func TnSize(bits uint64) uint { return uint(bits>>tnSizeShift) & uint(tnSizeMask) }

// SnSize returns the source name length packed into bits.
func SnSize(bits uint64) uint { return uint(bits>>snSizeShift) & uint(snSizeMask) }

// SrcLine returns the source line number packed into bits.
func SrcLine(bits uint64) uint { return uint(bits>>srcLineShift) & uint(srcLineMask) }

// Control returns the reader-scratch control bits packed into bits.
func Control(bits uint64) uint { return uint(bits>>controlShift) & uint(controlMask) }

// Valid reports whether the header passes the torn-write canary check:
// order must equal the bitwise complement of br_order. A record observed
// with a mismatch is either still being written or was only partially
// overwritten by a racing writer, and must be treated as "not committed".
func (h Header) Valid() bool {
	return h.Order == ^h.BrOrder
}

// Encode writes the header in its fixed little-endian layout into buf,
// which must be at least HeaderSize bytes.
func Encode(buf []byte, h Header) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Size)
	binary.LittleEndian.PutUint32(buf[4:8], h.Order)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(h.TimeUS))
	binary.LittleEndian.PutUint64(buf[16:24], h.Mini)
	binary.LittleEndian.PutUint64(buf[24:32], h.Bits)
	binary.LittleEndian.PutUint32(buf[32:36], h.PID)
	binary.LittleEndian.PutUint32(buf[36:40], h.ThID)
	binary.LittleEndian.PutUint32(buf[40:44], h.BrOrder)
}

// Decode reads a header from its fixed little-endian layout. buf must be
// at least HeaderSize bytes.
func Decode(buf []byte) Header {
	return Header{
		Size:    binary.LittleEndian.Uint32(buf[0:4]),
		Order:   binary.LittleEndian.Uint32(buf[4:8]),
		TimeUS:  int64(binary.LittleEndian.Uint64(buf[8:16])),
		Mini:    binary.LittleEndian.Uint64(buf[16:24]),
		Bits:    binary.LittleEndian.Uint64(buf[24:32]),
		PID:     binary.LittleEndian.Uint32(buf[32:36]),
		ThID:    binary.LittleEndian.Uint32(buf[36:40]),
		BrOrder: binary.LittleEndian.Uint32(buf[40:44]),
	}
}

// PutTrailer writes the trailing size word for a record of the given total
// size at the end of buf (buf must be exactly TrailerSize bytes).
func PutTrailer(buf []byte, size uint32) {
	binary.LittleEndian.PutUint32(buf, size)
}

// Trailer reads a trailing size word from buf (must be TrailerSize bytes).
func Trailer(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

// TruncateThreadName truncates a thread name to at most MaxNameSize bytes,
// keeping the rightmost (most specific) suffix.
func TruncateThreadName(name string) string {
	if len(name) > MaxNameSize {
		return name[len(name)-MaxNameSize:]
	}
	return name
}

// TruncateSourceName strips any directory prefix and filename suffix
// (everything from the last '.' onward) from name, then truncates the
// remainder to at most MaxNameSize bytes keeping the rightmost suffix.
func TruncateSourceName(name string) string {
	base := name
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	if i := lastIndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if len(base) > MaxNameSize {
		base = base[len(base)-MaxNameSize:]
	}
	return base
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}
