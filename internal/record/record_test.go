package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_HeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{
		Size:    128,
		Order:   42,
		TimeUS:  1_700_000_000_000_000,
		Mini:    0xdeadbeef,
		Bits:    PackBits(3, 17, 9, 5, 123, 0),
		PID:     999,
		ThID:    1234,
		BrOrder: ^uint32(42),
	}

	var buf [HeaderSize]byte
	Encode(buf[:], h)
	got := Decode(buf[:])

	assert.Equal(t, h, got)
	assert.True(t, got.Valid())
}

func Test_HeaderValidDetectsCanaryMismatch(t *testing.T) {
	h := Header{Order: 7, BrOrder: ^uint32(7)}
	assert.True(t, h.Valid())

	h.BrOrder ^= 1
	assert.False(t, h.Valid())
}

func Test_PackBitsUnpackRoundTrip(t *testing.T) {
	bits := PackBits(5, 31, 63, 63, 16383, 0)

	assert.EqualValues(t, 5, Level(bits))
	assert.EqualValues(t, 31, Category(bits))
	assert.EqualValues(t, 63, TnSize(bits))
	assert.EqualValues(t, 63, SnSize(bits))
	assert.EqualValues(t, 16383, SrcLine(bits))
	assert.EqualValues(t, 0, Control(bits))
}

func Test_PackBitsFieldsDoNotOverlap(t *testing.T) {
	// Setting only one logical field must leave every other field's
	// decoded value at zero: a wide src_line must not bleed into level,
	// category, or the name-size fields.
	bits := PackBits(0, 0, 0, 0, 16383, 0)
	assert.EqualValues(t, 0, Level(bits))
	assert.EqualValues(t, 0, Category(bits))
	assert.EqualValues(t, 0, TnSize(bits))
	assert.EqualValues(t, 0, SnSize(bits))

	bits = PackBits(7, 0, 0, 0, 0, 0)
	assert.EqualValues(t, 7, Level(bits))
	assert.EqualValues(t, 0, SrcLine(bits))
}

func Test_TrailerRoundTrip(t *testing.T) {
	var buf [TrailerSize]byte
	PutTrailer(buf[:], 0xcafef00d)
	assert.EqualValues(t, 0xcafef00d, Trailer(buf[:]))
}

func Test_TruncateThreadNameKeepsRightSuffix(t *testing.T) {
	short := "worker-1"
	assert.Equal(t, short, TruncateThreadName(short))

	long := strings.Repeat("a", 50) + strings.Repeat("b", 50)
	got := TruncateThreadName(long)
	assert.Len(t, got, MaxNameSize)
	assert.True(t, strings.HasSuffix(long, got))
}

func Test_TruncateSourceNameStripsDirAndSuffix(t *testing.T) {
	assert.Equal(t, "writer", TruncateSourceName("/src/internal/writer.go"))
	assert.Equal(t, "writer", TruncateSourceName("writer.cpp"))
	assert.Equal(t, "writer", TruncateSourceName("writer"))
}

func Test_TruncateSourceNameCapsLength(t *testing.T) {
	name := "/a/b/c/" + strings.Repeat("x", 100) + ".go"
	got := TruncateSourceName(name)
	assert.Len(t, got, MaxNameSize)
	assert.True(t, strings.HasSuffix(strings.Repeat("x", 100), got))
}
