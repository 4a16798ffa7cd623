// Package ring implements the byte-addressable circular buffer that backs
// each log partition: modular get/put across the wrap boundary and a
// wait-free reserve operation built on a single compare-and-swap loop.
package ring

import "sync/atomic"

// Reserve reports oversize requests as ok=false instead of a sentinel
// address: any uint32 value can be a legitimate logical address after
// enough wraps, so no address is free to act as one.

// Ring is a fixed-size circular buffer over a byte slice, with a shared
// (possibly mmap-backed) cursor used to hand out non-overlapping regions
// to concurrent writers without a lock.
type Ring struct {
	buf      []byte
	sizeB    uint32
	nextAddr *uint32 // atomic; may point into a shared mmap region
}

// New wraps buf (len(buf) must equal sizeB) as a ring buffer whose write
// cursor lives at nextAddr. nextAddr is accessed exclusively through
// sync/atomic so that multiple processes mapping the same file can race on
// it safely.
func New(buf []byte, sizeB uint32, nextAddr *uint32) *Ring {
	return &Ring{buf: buf, sizeB: sizeB, nextAddr: nextAddr}
}

// Size returns the ring's byte capacity.
func (r *Ring) Size() uint32 {
	return r.sizeB
}

// NextAddr returns the current (logical, unbounded) write cursor.
func (r *Ring) NextAddr() uint32 {
	return atomic.LoadUint32(r.nextAddr)
}

// Reserve atomically advances the write cursor by n bytes modulo Size and
// returns the pre-advance logical address. It reports ok=false without
// advancing anything if n leaves no room for the record framing overhead:
// the 32-byte margin keeps a reserved record's header+trailer from ever
// wrapping past a whole ring's worth of data in one record.
func (r *Ring) Reserve(n uint32) (addr uint32, ok bool) {
	if r.sizeB == 0 || n+32 > r.sizeB {
		return 0, false
	}

	for {
		cur := atomic.LoadUint32(r.nextAddr)
		next := (cur + n) % r.sizeB
		if atomic.CompareAndSwapUint32(r.nextAddr, cur, next) {
			return cur, true
		}
	}
}

// Get copies len(dst) bytes starting at logical address addr out of the
// ring, splitting the read at the wrap boundary as needed.
func (r *Ring) Get(addr uint32, dst []byte) {
	n := uint32(len(dst))
	off := addr % r.sizeB
	rest := r.sizeB - off

	if n <= rest {
		copy(dst, r.buf[off:off+n])
		return
	}
	copy(dst, r.buf[off:])
	copy(dst[rest:], r.buf[:n-rest])
}

// Put copies src into the ring starting at logical address addr, splitting
// the write at the wrap boundary as needed, and returns addr+len(src) (the
// next logical address).
func (r *Ring) Put(addr uint32, src []byte) uint32 {
	n := uint32(len(src))
	ret := addr + n
	off := addr % r.sizeB
	rest := r.sizeB - off

	if n <= rest {
		copy(r.buf[off:off+n], src)
		return ret
	}
	copy(r.buf[off:], src[:rest])
	copy(r.buf[:n-rest], src[rest:])
	return ret
}

// Clear resets the ring to its initial sentinel state: a zero trailing
// size word at logical address 0, and the write cursor parked just past
// it. A fresh backward tail walk starting from the cursor therefore reads
// a zero trailer immediately and terminates, seeing zero records.
func (r *Ring) Clear() {
	if r.sizeB == 0 {
		return
	}
	var zero [4]byte
	next := r.Put(0, zero[:])
	atomic.StoreUint32(r.nextAddr, next)
}
