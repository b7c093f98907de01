package vector

import "github.com/helixdb/helix/internal/codec"

// distItem and distHeap are one heap type doubling as both the min-heap
// of candidates and the max-heap of current-best results, switched by
// isMax.
type distItem struct {
	id    codec.ID
	dist  float64
	isMax bool
}

type distHeap []distItem

func (h distHeap) Len() int { return len(h) }
func (h distHeap) Less(i, j int) bool {
	if h[i].isMax {
		return h[i].dist > h[j].dist
	}
	return h[i].dist < h[j].dist
}
func (h distHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *distHeap) Push(x interface{}) {
	*h = append(*h, x.(distItem))
}

func (h *distHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
