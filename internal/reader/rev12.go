package reader

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/yanet-platform/mlog/internal/container"
	"github.com/yanet-platform/mlog/internal/partition"
	"github.com/yanet-platform/mlog/internal/ring"
)

// rev12 is the current container revision: 8 partitions and a 64-bit
// microsecond log_beg.
type rev12 struct {
	data        []byte
	userHdrSize uint32
	table       *partition.Table
	logBegUS    int64
	hint        string
	log         *zap.SugaredLogger
}

func loadRev12(data []byte, log *zap.SugaredLogger) (*rev12, error) {
	if len(data) < container.HeaderSize {
		return nil, fmt.Errorf("mlog: rev12: too small for header (%d bytes)", len(data))
	}
	if rev := binary.LittleEndian.Uint32(data[container.RevOffset:]); rev != container.Revision {
		return nil, fmt.Errorf("mlog: revision mismatch: header %d, library %d", rev, container.Revision)
	}

	userHdrSize := binary.LittleEndian.Uint32(data[container.UserHdrSizeOffset:])

	var partSizes [partition.Count]uint32
	for i := 0; i < partition.Count; i++ {
		off := container.DescriptorOffset(i)
		partSizes[i] = binary.LittleEndian.Uint32(data[off+4:])
	}

	reqSize := container.HeaderSize + int(userHdrSize)
	for _, sz := range partSizes {
		reqSize += int(sz)
	}
	if len(data) < reqSize {
		return nil, fmt.Errorf("mlog: rev12: too small for partitions (need %d, have %d)", reqSize, len(data))
	}

	var bufs [partition.Count][]byte
	var nextAddrs [partition.Count]*uint32
	off := container.HeaderSize + int(userHdrSize)
	for i := 0; i < partition.Count; i++ {
		descOff := container.DescriptorOffset(i)
		nextAddrs[i] = (*uint32)(unsafe.Pointer(&data[descOff]))
		if partSizes[i] > 0 {
			bufs[i] = data[off : off+int(partSizes[i])]
			off += int(partSizes[i])
		}
	}

	r := &rev12{
		data:        data,
		userHdrSize: userHdrSize,
		table:       partition.Build(bufs, partSizes, nextAddrs),
		logBegUS:    int64(binary.LittleEndian.Uint64(data[container.LogBegOffset:])),
		hint:        cString(data[container.HintOffset : container.HintOffset+container.HintSize]),
		log:         log,
	}
	return r, nil
}

func (r *rev12) Hint() string { return r.hint }
func (r *rev12) HdrAddr() []byte {
	return r.data[container.HeaderSize : container.HeaderSize+int(r.userHdrSize)]
}

func (r *rev12) Scan(maxcount int, orderMin uint32, timeUSMin int64, choice Choice, access Access) {
	scanPartitionTable(r.table, r.logBegUS, maxcount, orderMin, timeUSMin, choice, access, r.log)
}

// scanPartitionTable runs the k-way merge across every enabled partition in
// table and delivers results oldest-first via access. Shared by rev12 and
// rev7, whose only difference is header parsing.
func scanPartitionTable(table *partition.Table, logBegUS int64, maxcount int, orderMin uint32, timeUSMin int64, choice Choice, access Access, log *zap.SugaredLogger) {
	var scanners []partitionScanner
	ringsByPart := map[int]*ring.Ring{}
	for i := 0; i < partition.Count; i++ {
		rg := table.Ring(i)
		if rg == nil {
			continue
		}
		scanners = append(scanners, newRingScannerWithLogger(i, rg, logBegUS, log))
		ringsByPart[i] = rg
	}

	descs := mergeDescending(scanners, maxcount, orderMin, timeUSMin, choice)

	for i := len(descs) - 1; i >= 0; i-- {
		d := descs[i]
		info, payload := readRecord(ringsByPart[d.part], d.addr)
		if !access(info, payload) {
			return
		}
	}
}

func cString(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}
