// Package partition implements the fixed 8-entry partition table: one ring
// per severity level, with "nearest lower non-empty partition" fallback
// when a level's own partition is disabled.
package partition

import "github.com/yanet-platform/mlog/internal/ring"

// Count is the fixed number of partitions (NPART), one per severity level
// 0..7.
const Count = 8

// DescriptorSize is the on-disk size, in bytes, of one partition
// descriptor (next_addr u32 + size_b u32).
const DescriptorSize = 8

// Table holds one ring per partition slot, already resolved so For(level)
// never needs to re-walk the fallback chain.
type Table struct {
	rings [Count]*ring.Ring // nil when no partition at-or-below this index is enabled
	sizes [Count]uint32
}

// Build constructs a Table from per-slot backing buffers and cursor
// pointers. buf[i] and nextAddr[i] are ignored when sizes[i] == 0.
func Build(bufs [Count][]byte, sizes [Count]uint32, nextAddrs [Count]*uint32) *Table {
	t := &Table{sizes: sizes}

	var last *ring.Ring
	for i := 0; i < Count; i++ {
		if sizes[i] > 0 {
			last = ring.New(bufs[i], sizes[i], nextAddrs[i])
		}
		t.rings[i] = last
	}
	return t
}

// For returns the ring assigned to level (0..7): the partition at index
// level if it is enabled, otherwise the highest-indexed enabled partition
// below it. It returns nil if no partition at or below level is enabled.
func (t *Table) For(level uint) *ring.Ring {
	if level >= Count {
		level = Count - 1
	}
	return t.rings[level]
}

// Ring returns the ring at the given partition index directly (used by the
// reader, which scans every enabled partition rather than resolving by
// level), or nil if that partition is disabled.
func (t *Table) Ring(idx int) *ring.Ring {
	if idx < 0 || idx >= Count || t.sizes[idx] == 0 {
		return nil
	}
	return t.rings[idx]
}

// Sizes returns the configured size, in bytes, of every partition slot
// (0 for disabled slots).
func (t *Table) Sizes() [Count]uint32 {
	return t.sizes
}

// Clear resets every enabled partition to its sentinel state.
func (t *Table) Clear() {
	seen := map[*ring.Ring]bool{}
	for _, r := range t.rings {
		if r != nil && !seen[r] {
			r.Clear()
			seen[r] = true
		}
	}
}
