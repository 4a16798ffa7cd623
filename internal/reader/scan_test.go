package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanet-platform/mlog/internal/record"
	"github.com/yanet-platform/mlog/internal/ring"
)

// writeRecord appends one well-formed record at addr in r (writer-side
// framing: header, payload, trailer) and returns the next free address.
func writeRecord(r *ring.Ring, addr uint32, order uint32, timeUS int64, payload []byte) uint32 {
	size := uint32(record.HeaderSize + len(payload) + record.TrailerSize)
	hdr := record.Header{
		Size:    size,
		Order:   order,
		TimeUS:  timeUS,
		Bits:    record.PackBits(1, 2, 0, 0, 0, 0),
		BrOrder: ^order,
	}
	var hdrBuf [record.HeaderSize]byte
	record.Encode(hdrBuf[:], hdr)

	addr = r.Put(addr, hdrBuf[:])
	addr = r.Put(addr, payload)
	var trailer [4]byte
	record.PutTrailer(trailer[:], size)
	return r.Put(addr, trailer[:])
}

func Test_RingScannerWalksBackwardInOrder(t *testing.T) {
	var next uint32
	r := ring.New(make([]byte, 4096), 4096, &next)

	addr := uint32(0)
	for order := uint32(1); order <= 5; order++ {
		addr = writeRecord(r, addr, order, int64(order)*100, []byte("payload"))
	}
	next = addr

	s := newRingScanner(0, r, 0)
	var got []uint32
	for {
		d, ok := s.next(0, 0, func(Info) bool { return true })
		if !ok {
			break
		}
		got = append(got, d.order)
	}

	assert.Equal(t, []uint32{5, 4, 3, 2, 1}, got)
}

func Test_RingScannerStopsAtZeroTrailerSentinel(t *testing.T) {
	var next uint32
	r := ring.New(make([]byte, 256), 256, &next)
	// Fresh ring: trailer at 0 is zero, cursor parked at 4 (ring.Clear's
	// sentinel state).
	r.Clear()

	s := newRingScanner(0, r, 0)
	_, ok := s.next(0, 0, func(Info) bool { return true })
	assert.False(t, ok)
}

func Test_RingScannerStopsOnCanaryMismatch(t *testing.T) {
	var next uint32
	r := ring.New(make([]byte, 4096), 4096, &next)

	addr := writeRecord(r, 0, 1, 100, []byte("first"))
	tornStart := addr

	// Simulate a writer that reserved and fully wrote the framing for
	// record 2 (header, matching trailer) but whose header write itself
	// was torn: br_order does not complement order, so the trailer size
	// matches but the canary check must still reject it; a writer killed
	// mid-write leaves exactly this shape behind.
	const size = uint32(record.HeaderSize + record.TrailerSize)
	hdr := record.Header{Size: size, Order: 2, BrOrder: 0 /* should be ^2 */}
	var hdrBuf [record.HeaderSize]byte
	record.Encode(hdrBuf[:], hdr)
	end := r.Put(tornStart, hdrBuf[:])
	var trailer [4]byte
	record.PutTrailer(trailer[:], size)
	next = r.Put(end, trailer[:])

	s := newRingScanner(0, r, 0)
	d, ok := s.next(0, 0, func(Info) bool { return true })
	// The torn record's canary fails even though its trailer size lines
	// up, so the walk terminates without ever reaching record 1.
	assert.False(t, ok)
	assert.Zero(t, d)
}

func Test_RingScannerOrderAndTimeFloorsPruneEarly(t *testing.T) {
	var next uint32
	r := ring.New(make([]byte, 4096), 4096, &next)

	addr := uint32(0)
	for order := uint32(1); order <= 5; order++ {
		addr = writeRecord(r, addr, order, int64(order)*100, []byte("p"))
	}
	next = addr

	s := newRingScanner(0, r, 0)
	var got []uint32
	for {
		d, ok := s.next(3, 0, func(Info) bool { return true })
		if !ok {
			break
		}
		got = append(got, d.order)
	}
	// Records stop being delivered (and the walk terminates) the moment
	// order drops below orderMin: records are in-order per partition, so
	// nothing older can match.
	assert.Equal(t, []uint32{5, 4, 3}, got)
}

func Test_RingScannerLogBegActsAsAbsoluteFloor(t *testing.T) {
	var next uint32
	r := ring.New(make([]byte, 4096), 4096, &next)

	addr := uint32(0)
	addr = writeRecord(r, addr, 1, 50, []byte("p"))
	addr = writeRecord(r, addr, 2, 150, []byte("p"))
	next = addr

	s := newRingScanner(0, r, 100) // logBegUS = 100
	d, ok := s.next(0, 0 /* caller passes no floor of its own */, func(Info) bool { return true })
	require.True(t, ok)
	assert.EqualValues(t, 2, d.order)

	_, ok = s.next(0, 0, func(Info) bool { return true })
	assert.False(t, ok) // record 1's time_us=50 < log_beg=100
}

func Test_ChoicePredicateFiltersWithoutStoppingTheWalk(t *testing.T) {
	var next uint32
	r := ring.New(make([]byte, 4096), 4096, &next)

	addr := uint32(0)
	for order := uint32(1); order <= 4; order++ {
		addr = writeRecord(r, addr, order, int64(order)*10, []byte("p"))
	}
	next = addr

	s := newRingScanner(0, r, 0)
	onlyOdd := func(i Info) bool { return i.WeakOrder%2 == 1 }

	var got []uint32
	for {
		d, ok := s.next(0, 0, onlyOdd)
		if !ok {
			break
		}
		got = append(got, d.order)
	}
	assert.Equal(t, []uint32{3, 1}, got)
}
