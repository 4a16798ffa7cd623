package reader

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanet-platform/mlog/internal/ring"
)

func putU32(buf []byte, off int, v uint32) {
	buf[off], buf[off+1], buf[off+2], buf[off+3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}

// buildRev6Buffer hand-assembles a legacy single-partition rev6 file in
// memory: the fixed rev6 header (no partition table) followed by one ring
// region holding the records writeRecord encodes directly into it.
func buildRev6Buffer(logSize uint32, hint string, records []struct {
	order  uint32
	timeUS int64
	data   []byte
}) []byte {
	total := int(rev6HeaderSize) + int(logSize)
	buf := make([]byte, total)

	var nextAddr uint32
	r := ring.New(buf[rev6HeaderSize:], logSize, &nextAddr)

	addr := uint32(0)
	for _, rec := range records {
		addr = writeRecord(r, addr, rec.order, rec.timeUS, rec.data)
	}
	nextAddr = addr

	putU32(buf, rev6OffRev, 6)
	putU32(buf, rev6OffNextAddr, nextAddr)
	putU32(buf, rev6OffCnt, uint32(len(records)))
	putU32(buf, rev6OffLogSize, logSize)
	putU32(buf, rev6OffUserHdrSize, 0)
	copy(buf[rev6OffHint:], hint)

	return buf
}

func Test_Rev6RoundTripsThroughDispatch(t *testing.T) {
	buf := buildRev6Buffer(8192, "legacy-hint", []struct {
		order  uint32
		timeUS int64
		data   []byte
	}{
		{order: 1, timeUS: 10, data: []byte("one")},
		{order: 2, timeUS: 20, data: []byte("two")},
	})

	r, err := loadRev6(buf, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.Equal(t, "legacy-hint", r.Hint())

	var got []Info
	r.Scan(0, 0, 0, nil, func(info Info, _ []byte) bool {
		got = append(got, info)
		return true
	})

	want := []Info{
		{WeakOrder: 1, TimeUS: 10, SizeB: 3},
		{WeakOrder: 2, TimeUS: 20, SizeB: 3},
	}
	stripped := make([]Info, len(got))
	for i, info := range got {
		stripped[i] = Info{WeakOrder: info.WeakOrder, TimeUS: info.TimeUS, SizeB: info.SizeB}
	}
	if diff := cmp.Diff(want, stripped); diff != "" {
		t.Errorf("rev6 scan result mismatch (-want +got):\n%s", diff)
	}
}

func Test_Rev6WithZeroLogSizeScansEmpty(t *testing.T) {
	buf := buildRev6Buffer(0, "", nil)

	r, err := loadRev6(buf, zap.NewNop().Sugar())
	require.NoError(t, err)

	count := 0
	r.Scan(0, 0, 0, nil, func(Info, []byte) bool {
		count++
		return true
	})
	require.Zero(t, count)
}
