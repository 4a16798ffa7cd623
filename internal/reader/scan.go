package reader

import (
	"go.uber.org/zap"

	"github.com/yanet-platform/mlog/internal/record"
	"github.com/yanet-platform/mlog/internal/ring"
)

// ringScanner walks one partition backward from its write cursor, one
// accepted record at a time: recAddr starts two ring-lengths ahead of the
// cursor (so the first read lands on the most recently published record)
// and a one-ring-length break address below that stops the walk once it
// would revisit bytes the writer has already overwritten.
type ringScanner struct {
	r        *ring.Ring
	part     int
	logBegUS int64
	recAddr  uint32
	brkAddr  uint32
	done     bool
	log      *zap.SugaredLogger
}

func newRingScanner(part int, r *ring.Ring, logBegUS int64) *ringScanner {
	return newRingScannerWithLogger(part, r, logBegUS, zap.NewNop().Sugar())
}

func newRingScannerWithLogger(part int, r *ring.Ring, logBegUS int64, log *zap.SugaredLogger) *ringScanner {
	size := r.Size()
	cursor := r.NextAddr()
	return &ringScanner{
		r:        r,
		part:     part,
		logBegUS: logBegUS,
		recAddr:  cursor + size*2,
		brkAddr:  cursor + size,
		log:      log,
	}
}

func (s *ringScanner) next(orderMin uint32, timeUSMin int64, choice Choice) (desc, bool) {
	if s.done {
		return desc{}, false
	}
	if timeUSMin < s.logBegUS {
		timeUSMin = s.logBegUS
	}

	for {
		var sizeBuf [4]byte
		s.r.Get(s.recAddr-4, sizeBuf[:])
		size := record.Trailer(sizeBuf[:])

		// A trailer smaller than the framing overhead can only be torn or
		// overwritten bytes, never a committed record.
		if size < record.HeaderSize+record.TrailerSize {
			s.done = true
			return desc{}, false
		}
		s.recAddr -= size
		if s.recAddr < s.brkAddr {
			s.done = true
			return desc{}, false
		}

		var hdrBuf [record.HeaderSize]byte
		s.r.Get(s.recAddr, hdrBuf[:])
		hdr := record.Decode(hdrBuf[:])

		if hdr.Size != size || !hdr.Valid() {
			s.log.Debugw("discard tail segment: size or canary mismatch",
				"partition", s.part, "addr", s.recAddr, "trailer_size", size, "header_size", hdr.Size)
			s.done = true
			return desc{}, false
		}
		if hdr.Order < orderMin || hdr.TimeUS < timeUSMin {
			s.done = true
			return desc{}, false
		}

		dsize := int(size) - record.HeaderSize
		data := make([]byte, dsize)
		s.r.Get(s.recAddr+record.HeaderSize, data)

		info, tnSize, snSize := decodeInfo(hdr, data)
		if choice == nil || choice(info) {
			return desc{
				timeUS: hdr.TimeUS,
				order:  hdr.Order,
				part:   s.part,
				addr:   s.recAddr,
				tnSize: tnSize,
				snSize: snSize,
			}, true
		}
	}
}

// decodeInfo unpacks a decoded header and its raw payload region into an
// Info, slicing the inline source/thread names (if any) off the tail of
// data.
func decodeInfo(hdr record.Header, data []byte) (info Info, tnSize, snSize int) {
	tnSize = int(record.TnSize(hdr.Bits))
	snSize = int(record.SnSize(hdr.Bits))

	payloadSize := len(data) - record.TrailerSize

	// Names sit between the payload and the trailer:
	// [payload][thread_name NUL][source_name NUL][trailer]. payloadSize
	// shrinks from the tail in that order, source name first.
	var threadName, sourceName string
	if snSize > 0 {
		payloadSize -= snSize + 1
		sourceName = string(data[payloadSize : payloadSize+snSize])
	}
	if tnSize > 0 {
		payloadSize -= tnSize + 1
		threadName = string(data[payloadSize : payloadSize+tnSize])
	}

	info = Info{
		ThreadID:   hdr.ThID,
		SourceLine: uint32(record.SrcLine(hdr.Bits)),
		WeakOrder:  hdr.Order,
		SizeB:      uint32(payloadSize),
		TimeUS:     hdr.TimeUS,
		Level:      uint32(record.Level(hdr.Bits)),
		Category:   uint32(record.Category(hdr.Bits)),
		MiniData:   hdr.Mini,
		PID:        hdr.PID,
		ThreadName: threadName,
		SourceName: sourceName,
	}
	return info, tnSize, snSize
}

// readRecord re-reads and decodes the record at addr in r, returning its
// Info and exactly its application payload (header, inline names, and
// trailer excluded). Every revision's Scan calls this once per delivered
// desc; the decode inside the tail-walk is only used to evaluate choice.
func readRecord(r *ring.Ring, addr uint32) (Info, []byte) {
	var hdrBuf [record.HeaderSize]byte
	r.Get(addr, hdrBuf[:])
	hdr := record.Decode(hdrBuf[:])

	dsize := int(hdr.Size) - record.HeaderSize
	data := make([]byte, dsize)
	r.Get(addr+record.HeaderSize, data)

	info, _, _ := decodeInfo(hdr, data)
	payload := data[:info.SizeB]
	return info, payload
}
