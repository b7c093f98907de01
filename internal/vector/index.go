package vector

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/herr"
	"github.com/helixdb/helix/internal/kv"
)

// Index is the HNSW vector index over one dimensionality. Every method
// takes a kv.Reader or kv.Writer so a caller can interleave vector
// operations with graph operations inside a single internal/kv
// transaction.
type Index struct {
	cfg Config
	dim int
}

// New builds an Index for vectors of dimension dim (post dimension
// reduction, if cfg.ReduceDim is set).
func New(cfg Config, dim int) *Index {
	return &Index{cfg: cfg, dim: dim}
}

// Result is one hit from Search.
type Result struct {
	ID   codec.ID
	Dist float64
}

func (ix *Index) project(v []float32) []float32 {
	if ix.cfg.ReduceDim > 0 {
		return reduceDim(v, ix.cfg.ReduceDim)
	}
	return v
}

func (ix *Index) randomLevel() int {
	r := rand.Float64()
	for r == 0 {
		r = rand.Float64()
	}
	level := int(math.Floor(-math.Log(r) * ix.cfg.Ml))
	if level > ix.cfg.MaxLevel {
		level = ix.cfg.MaxLevel
	}
	return level
}

// Insert runs the standard HNSW insertion algorithm: persist the vector,
// bootstrap or descend from the entry point, connect at each affected
// level, and promote the entry point if this insert reached a new high.
func (ix *Index) Insert(txn kv.Writer, id codec.ID, vec []float32) error {
	if len(vec) != ix.dim {
		return herr.ErrInvalidLength
	}
	q := ix.project(vec)
	newLevel := ix.randomLevel()

	// Step 1: persist at level 0 and, if sampled above 0, at newLevel too.
	if err := putVectorAt(txn, id, 0, codec.HVector{Data: q}); err != nil {
		return err
	}
	if newLevel > 0 {
		if err := putVectorAt(txn, id, newLevel, codec.HVector{Data: q}); err != nil {
			return err
		}
	}

	// Step 2: bootstrap the entry point if the index was empty.
	ep, hasEP, err := getEntryPoint(txn)
	if err != nil {
		return err
	}
	if !hasEP {
		return setEntryPoint(txn, codec.EntryPoint{ID: id, Level: newLevel})
	}

	epID, epLevel := ep.ID, ep.Level

	// Step 4: greedy-descend from the current top level down to newLevel+1.
	for l := epLevel; l > newLevel; l-- {
		next, err := ix.greedyStep(txn, q, epID, l)
		if err != nil {
			return err
		}
		epID = next
	}

	// Step 5: connect at every level from min(epLevel, newLevel) down to 0.
	top := epLevel
	if newLevel < top {
		top = newLevel
	}
	for l := top; l >= 0; l-- {
		candidates, err := ix.searchLevel(txn, q, epID, ix.cfg.EfConstruction, l, nil)
		if err != nil {
			return err
		}
		degreeCap := ix.cfg.M
		if l == 0 {
			degreeCap = ix.cfg.M0
		}
		chosen := selectNeighbors(candidates, degreeCap)
		for _, c := range chosen {
			if err := addHNSWEdge(txn, id, l, c.id); err != nil {
				return err
			}
			if err := addHNSWEdge(txn, c.id, l, id); err != nil {
				return err
			}
			if err := ix.trimNeighbor(txn, c.id, l, degreeCap); err != nil {
				return err
			}
		}
		if len(candidates) > 0 {
			epID = candidates[0].id
		}
	}

	// Step 3/6: promote the entry point if this insert reached a new high.
	if newLevel > epLevel {
		return setEntryPoint(txn, codec.EntryPoint{ID: id, Level: newLevel})
	}
	return nil
}

// trimNeighbor re-selects n's neighbor set at level if it now exceeds cap.
func (ix *Index) trimNeighbor(txn kv.Writer, n codec.ID, level, degreeCap int) error {
	existing, err := neighborsAt(txn, n, level)
	if err != nil {
		return err
	}
	if len(existing) <= degreeCap {
		return nil
	}
	nData, ok, err := vectorData(txn, n)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	scored := make([]scoredID, 0, len(existing))
	for _, o := range existing {
		oData, ok, err := vectorData(txn, o)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		scored = append(scored, scoredID{id: o, dist: l2Distance(nData, oData)})
	}
	kept := selectNeighbors(scored, degreeCap)
	keptSet := make(map[codec.ID]bool, len(kept))
	for _, k := range kept {
		keptSet[k.id] = true
	}
	for _, o := range existing {
		if !keptSet[o] {
			if err := removeHNSWEdge(txn, n, level, o); err != nil {
				return err
			}
			if err := removeHNSWEdge(txn, o, level, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// greedyStep performs a single ef=1 best-first walk at one level.
func (ix *Index) greedyStep(txn kv.Reader, q []float32, entry codec.ID, level int) (codec.ID, error) {
	results, err := ix.searchLevel(txn, q, entry, 1, level, nil)
	if err != nil {
		return entry, err
	}
	if len(results) == 0 {
		return entry, nil
	}
	return results[0].id, nil
}

type scoredID struct {
	id   codec.ID
	dist float64
}

// selectNeighbors sorts by ascending distance and keeps up to cap.
func selectNeighbors(candidates []scoredID, degreeCap int) []scoredID {
	sorted := append([]scoredID(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].dist < sorted[j].dist })
	if len(sorted) > degreeCap {
		sorted = sorted[:degreeCap]
	}
	return sorted
}

// searchLevel is the classic best-first traversal: a max-heap `results`
// bounded to ef and a min-heap `candidates`. filter, when non-nil, is a
// pre-filter predicate: rejected candidates are still explored for
// connectivity but excluded from the result heap. Tombstoned vectors are
// always excluded from results but still traversed.
func (ix *Index) searchLevel(txn kv.Reader, q []float32, entry codec.ID, ef int, level int, filter func(codec.ID) bool) ([]scoredID, error) {
	entryData, ok, err := vectorData(txn, entry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	entryDist := l2Distance(q, entryData)
	deleted, err := isDeleted(txn, entry)
	if err != nil {
		return nil, err
	}

	visited := map[codec.ID]bool{entry: true}
	candidates := &distHeap{}
	results := &distHeap{}
	heap.Push(candidates, distItem{id: entry, dist: entryDist})
	if (!deleted) && passesFilter(filter, entry) {
		heap.Push(results, distItem{id: entry, dist: entryDist, isMax: true})
	}

	for candidates.Len() > 0 {
		closest := heap.Pop(candidates).(distItem)
		if results.Len() >= ef {
			furthest := (*results)[0]
			if closest.dist > furthest.dist {
				break
			}
		}

		nbrs, err := neighborsAt(txn, closest.id, level)
		if err != nil {
			return nil, err
		}
		for _, nb := range nbrs {
			if visited[nb] {
				continue
			}
			visited[nb] = true

			nbData, ok, err := vectorData(txn, nb)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			dist := l2Distance(q, nbData)

			if results.Len() < ef || dist < (*results)[0].dist {
				heap.Push(candidates, distItem{id: nb, dist: dist})

				nbDeleted, err := isDeleted(txn, nb)
				if err != nil {
					return nil, err
				}
				if (!nbDeleted) && passesFilter(filter, nb) {
					heap.Push(results, distItem{id: nb, dist: dist, isMax: true})
					if results.Len() > ef {
						heap.Pop(results)
					}
				}
			}
		}
	}

	out := make([]scoredID, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		item := heap.Pop(results).(distItem)
		out[i] = scoredID{id: item.id, dist: item.dist}
	}
	return out, nil
}

func passesFilter(filter func(codec.ID) bool, id codec.ID) bool {
	if filter == nil {
		return true
	}
	return filter(id)
}

// Search greedy-descends from the top level to level 1, then runs a
// widened search at level 0 with ef = max(k, EfSearch). filter is the
// optional pre-filter predicate.
func (ix *Index) Search(txn kv.Reader, query []float32, k int, filter func(codec.ID) bool) ([]Result, error) {
	if len(query) != ix.dim {
		return nil, herr.ErrInvalidLength
	}
	q := ix.project(query)

	ep, ok, err := getEntryPoint(txn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, herr.ErrEntryPointNotFound
	}

	cur := ep.ID
	for l := ep.Level; l > 0; l-- {
		next, err := ix.greedyStep(txn, q, cur, l)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	ef := ix.cfg.EfSearch
	if k > ef {
		ef = k
	}
	scored, err := ix.searchLevel(txn, q, cur, ef, 0, filter)
	if err != nil {
		return nil, err
	}
	if len(scored) > k {
		scored = scored[:k]
	}
	out := make([]Result, len(scored))
	for i, s := range scored {
		out[i] = Result{ID: s.id, Dist: s.dist}
	}
	return out, nil
}

// Delete tombstones id: the vector record is marked deleted at every
// level it is actually stored at (level 0, plus the higher level it was
// sampled to at insert time, if any) so search filters it out
// immediately, but its adjacency edges are left intact until an
// out-of-band Compact call rewrites neighbor lists (avoiding an
// O(degree) rewrite cascade on every delete).
func (ix *Index) Delete(txn kv.Writer, id codec.ID) error {
	_, ok, err := getVectorAt(txn, id, 0)
	if err != nil {
		return err
	}
	if !ok {
		return herr.VectorNotFound(id.String())
	}

	var levels []int
	if err := txn.PrefixIter(codec.VectorAllLevelsPrefix(id), func(key, _ []byte) error {
		levels = append(levels, int(key[len(key)-1]))
		return nil
	}); err != nil {
		return err
	}
	for _, level := range levels {
		lv, ok, err := getVectorAt(txn, id, level)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		lv.Deleted = true
		if err := putVectorAt(txn, id, level, lv); err != nil {
			return err
		}
	}
	return nil
}

// Compact reclaims every tombstoned vector: it removes the vector's
// stored records at each level it occupied, severs its adjacency edges
// in both directions so surviving neighbors' degree is accurate again,
// and reassigns the entry point if it pointed at a vector being removed.
// Tombstones accumulate between calls -- Delete only flips the deleted
// flag -- so this is meant to run periodically out-of-band rather than
// after every delete.
func (ix *Index) Compact(txn kv.Writer) error {
	var toRemove []codec.ID
	if err := txn.PrefixIter([]byte{codec.PrefixVector}, func(key, value []byte) error {
		if len(key) != 18 || key[17] != 0 {
			return nil
		}
		v, err := codec.DecodeVector(value)
		if err != nil {
			return err
		}
		if !v.Deleted {
			return nil
		}
		var id codec.ID
		copy(id[:], key[1:17])
		toRemove = append(toRemove, id)
		return nil
	}); err != nil {
		return err
	}

	for _, id := range toRemove {
		var levels []int
		if err := txn.PrefixIter(codec.VectorAllLevelsPrefix(id), func(key, _ []byte) error {
			levels = append(levels, int(key[len(key)-1]))
			return nil
		}); err != nil {
			return err
		}
		for _, level := range levels {
			nbrs, err := neighborsAt(txn, id, level)
			if err != nil {
				return err
			}
			for _, nb := range nbrs {
				if err := removeHNSWEdge(txn, id, level, nb); err != nil {
					return err
				}
				if err := removeHNSWEdge(txn, nb, level, id); err != nil {
					return err
				}
			}
			if err := txn.Delete(codec.VectorKey(id, level)); err != nil {
				return err
			}
		}

		ep, hasEP, err := getEntryPoint(txn)
		if err != nil {
			return err
		}
		if hasEP && ep.ID == id {
			if err := reassignEntryPoint(txn, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// reassignEntryPoint picks any remaining non-deleted level-0 vector as
// the new entry point after removed is compacted away, or clears the
// entry point entirely if none remain.
func reassignEntryPoint(txn kv.Writer, removed codec.ID) error {
	var replacement *codec.ID
	err := txn.PrefixIter([]byte{codec.PrefixVector}, func(key, value []byte) error {
		if replacement != nil || len(key) != 18 || key[17] != 0 {
			return nil
		}
		var id codec.ID
		copy(id[:], key[1:17])
		if id == removed {
			return nil
		}
		v, err := codec.DecodeVector(value)
		if err != nil {
			return err
		}
		if v.Deleted {
			return nil
		}
		replacement = &id
		return nil
	})
	if err != nil {
		return err
	}
	if replacement == nil {
		return txn.Delete(codec.HNSWEntryKey())
	}
	return setEntryPoint(txn, codec.EntryPoint{ID: *replacement, Level: 0})
}
