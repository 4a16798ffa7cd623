package reader

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/yanet-platform/mlog/internal/ring"
)

// rev6 offsets: rev(4) nextaddr(4) cnt(4) logsize_b(4) hdrsize_b(4)
// hint(64). Revisions 1..6 all share this single-partition shape, so Load
// dispatches every rev < 7 here, not just rev == 6.
const (
	rev6OffRev         = 0
	rev6OffNextAddr    = 4
	rev6OffCnt         = 8
	rev6OffLogSize     = 12
	rev6OffUserHdrSize = 16
	rev6OffHint        = 20
	rev6HintSize       = 64
	rev6RawHeaderSize  = rev6OffHint + rev6HintSize // 84
)

var rev6HeaderSize = alignUp16(rev6RawHeaderSize)

// rev6 is the legacy single-partition, lock-free (rev6) or pre-lock-free
// (rev<6, read compatibly) shape. It has no log_beg field at all, so the
// lower time bound for a scan is whatever the caller passes, unclamped.
type rev6 struct {
	data        []byte
	userHdrSize uint32
	r           *ring.Ring
	hint        string
	log         *zap.SugaredLogger
}

func loadRev6(data []byte, log *zap.SugaredLogger) (*rev6, error) {
	if len(data) < rev6HeaderSize {
		return nil, fmt.Errorf("mlog: rev6: too small for header (%d bytes)", len(data))
	}

	userHdrSize := binary.LittleEndian.Uint32(data[rev6OffUserHdrSize:])
	logSize := binary.LittleEndian.Uint32(data[rev6OffLogSize:])

	reqSize := rev6HeaderSize + int(userHdrSize) + int(logSize)
	if len(data) < reqSize {
		return nil, fmt.Errorf("mlog: rev6: too small for log region (need %d, have %d)", reqSize, len(data))
	}

	nextAddr := (*uint32)(unsafe.Pointer(&data[rev6OffNextAddr]))
	off := rev6HeaderSize + int(userHdrSize)
	var r *ring.Ring
	if logSize > 0 {
		r = ring.New(data[off:off+int(logSize)], logSize, nextAddr)
	}

	return &rev6{
		data:        data,
		userHdrSize: userHdrSize,
		r:           r,
		hint:        cString(data[rev6OffHint : rev6OffHint+rev6HintSize]),
		log:         log,
	}, nil
}

func (r *rev6) Hint() string { return r.hint }
func (r *rev6) HdrAddr() []byte {
	return r.data[rev6HeaderSize : rev6HeaderSize+int(r.userHdrSize)]
}

func (r *rev6) Scan(maxcount int, orderMin uint32, timeUSMin int64, choice Choice, access Access) {
	if r.r == nil {
		return
	}
	scanners := []partitionScanner{newRingScannerWithLogger(0, r.r, 0, r.log)}
	descs := mergeDescending(scanners, maxcount, orderMin, timeUSMin, choice)

	for i := len(descs) - 1; i >= 0; i-- {
		info, payload := readRecord(r.r, descs[i].addr)
		if !access(info, payload) {
			return
		}
	}
}
