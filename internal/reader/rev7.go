package reader

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/yanet-platform/mlog/internal/partition"
)

// rev7 offsets: rev(4) cnt(4) hdrsize_b(4) log_beg(4, seconds) hint(64)
// part[8](8 each), no trailing log_beg field (that moved to the tail only
// in rev12).
const (
	rev7OffRev         = 0
	rev7OffCnt         = 4
	rev7OffUserHdrSize = 8
	rev7OffLogBeg      = 12
	rev7OffHint        = 16
	rev7HintSize       = 64
	rev7OffPart        = rev7OffHint + rev7HintSize // 80
	rev7DescSize       = 8
	rev7RawHeaderSize  = rev7OffPart + partition.Count*rev7DescSize // 144
)

var rev7HeaderSize = alignUp16(rev7RawHeaderSize)

func alignUp16(n int) int { return (n + 15) &^ 15 }

// rev7 is the first multi-partition revision. Its log_beg field is a
// 32-bit count of whole seconds rather than rev12's 64-bit microseconds,
// so it is converted once at load time.
type rev7 struct {
	data        []byte
	userHdrSize uint32
	table       *partition.Table
	logBegUS    int64
	hint        string
	log         *zap.SugaredLogger
}

func loadRev7(data []byte, log *zap.SugaredLogger) (*rev7, error) {
	if len(data) < rev7HeaderSize {
		return nil, fmt.Errorf("mlog: rev7: too small for header (%d bytes)", len(data))
	}

	userHdrSize := binary.LittleEndian.Uint32(data[rev7OffUserHdrSize:])
	logBegSec := binary.LittleEndian.Uint32(data[rev7OffLogBeg:])

	var partSizes [partition.Count]uint32
	for i := 0; i < partition.Count; i++ {
		off := rev7OffPart + i*rev7DescSize
		partSizes[i] = binary.LittleEndian.Uint32(data[off+4:])
	}

	reqSize := rev7HeaderSize + int(userHdrSize)
	for _, sz := range partSizes {
		reqSize += int(sz)
	}
	if len(data) < reqSize {
		return nil, fmt.Errorf("mlog: rev7: too small for partitions (need %d, have %d)", reqSize, len(data))
	}

	var bufs [partition.Count][]byte
	var nextAddrs [partition.Count]*uint32
	off := rev7HeaderSize + int(userHdrSize)
	for i := 0; i < partition.Count; i++ {
		descOff := rev7OffPart + i*rev7DescSize
		nextAddrs[i] = (*uint32)(unsafe.Pointer(&data[descOff]))
		if partSizes[i] > 0 {
			bufs[i] = data[off : off+int(partSizes[i])]
			off += int(partSizes[i])
		}
	}

	return &rev7{
		data:        data,
		userHdrSize: userHdrSize,
		table:       partition.Build(bufs, partSizes, nextAddrs),
		logBegUS:    int64(logBegSec) * 1_000_000,
		hint:        cString(data[rev7OffHint : rev7OffHint+rev7HintSize]),
		log:         log,
	}, nil
}

func (r *rev7) Hint() string { return r.hint }
func (r *rev7) HdrAddr() []byte {
	return r.data[rev7HeaderSize : rev7HeaderSize+int(r.userHdrSize)]
}

func (r *rev7) Scan(maxcount int, orderMin uint32, timeUSMin int64, choice Choice, access Access) {
	scanPartitionTable(r.table, r.logBegUS, maxcount, orderMin, timeUSMin, choice, access, r.log)
}
