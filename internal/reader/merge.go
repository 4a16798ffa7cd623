package reader

import "container/heap"

// desc identifies one candidate record by its position (partition index,
// logical ring address), ordered by (timeUS, order) for the k-way merge.
type desc struct {
	timeUS int64
	order  uint32
	part   int
	addr   uint32
	tnSize int
	snSize int
}

// descHeap is a max-heap on (timeUS, order): its root is always the
// newest available candidate across every partition.
type descHeap []desc

func (h descHeap) Len() int { return len(h) }
func (h descHeap) Less(i, j int) bool {
	if h[i].timeUS != h[j].timeUS {
		return h[i].timeUS > h[j].timeUS
	}
	return h[i].order > h[j].order
}
func (h descHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *descHeap) Push(x any)   { *h = append(*h, x.(desc)) }
func (h *descHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// partitionScanner is the per-partition backward tail-walk, seeded once
// and then re-pulled each time its previous candidate is consumed by the
// merge.
type partitionScanner interface {
	// next returns the next (older) accepted candidate that is still at or
	// above the given floors, or ok=false once the partition is exhausted.
	next(orderMin uint32, timeUSMin int64, choice Choice) (desc, bool)
}

// mergeDescending runs the k-way merge across scanners, returning up to
// maxcount candidates in descending (newest-first) order. Callers that
// need oldest-first delivery (every Scan implementation) reverse the
// result themselves.
func mergeDescending(scanners []partitionScanner, maxcount int, orderMin uint32, timeUSMin int64, choice Choice) []desc {
	h := make(descHeap, 0, len(scanners))
	for _, s := range scanners {
		if d, ok := s.next(orderMin, timeUSMin, choice); ok {
			h = append(h, d)
		}
	}
	heap.Init(&h)

	var out []desc
	for (maxcount <= 0 || len(out) < maxcount) && h.Len() > 0 {
		d := heap.Pop(&h).(desc)
		out = append(out, d)

		if next, ok := scanners[d.part].next(orderMin, timeUSMin, choice); ok {
			heap.Push(&h, next)
		}
	}
	return out
}
