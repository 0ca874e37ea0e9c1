package threat

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"threatsim/internal/geom"
)

// pointTolerance is the half-size of the box each enemy occupies in the tree.
const pointTolerance = 1e-6

type spatialEntry struct {
	handle Handle
	pos    geom.Vec
	rect   rtreego.Rect
}

func (s *spatialEntry) Bounds() rtreego.Rect { return s.rect }

// spatialIndex mirrors last-known enemy positions for range queries. It is
// rebuilt during every maintenance pass.
type spatialIndex struct {
	tree    *rtreego.Rtree
	entries map[Handle]*spatialEntry
}

func newSpatialIndex() *spatialIndex {
	idx := &spatialIndex{}
	idx.reset()
	return idx
}

func (idx *spatialIndex) reset() {
	idx.tree = rtreego.NewTree(2, 2, 8)
	idx.entries = make(map[Handle]*spatialEntry)
}

func (idx *spatialIndex) insert(h Handle, pos geom.Vec) {
	entry := &spatialEntry{
		handle: h,
		pos:    pos,
		rect:   rtreego.Point{pos[0], pos[1]}.ToRect(pointTolerance),
	}
	idx.entries[h] = entry
	idx.tree.Insert(entry)
}

func (idx *spatialIndex) remove(h Handle) {
	entry, ok := idx.entries[h]
	if !ok {
		return
	}
	idx.tree.Delete(entry)
	delete(idx.entries, h)
}

func (idx *spatialIndex) nearest(p geom.Vec, k int) []*spatialEntry {
	if k <= 0 || idx.tree.Size() == 0 {
		return nil
	}
	found := idx.tree.NearestNeighbors(k, rtreego.Point{p[0], p[1]})
	entries := make([]*spatialEntry, 0, len(found))
	for _, s := range found {
		if s == nil {
			continue
		}
		entries = append(entries, s.(*spatialEntry))
	}
	sortByDistance(entries, p)
	return entries
}

func (idx *spatialIndex) within(p geom.Vec, radius float64) []*spatialEntry {
	if radius <= 0 || idx.tree.Size() == 0 {
		return nil
	}
	box, err := rtreego.NewRect(rtreego.Point{p[0] - radius, p[1] - radius}, []float64{2 * radius, 2 * radius})
	if err != nil {
		return nil
	}
	var entries []*spatialEntry
	for _, s := range idx.tree.SearchIntersect(box) {
		entry := s.(*spatialEntry)
		if geom.Distance(p, entry.pos) <= radius {
			entries = append(entries, entry)
		}
	}
	sortByDistance(entries, p)
	return entries
}

func sortByDistance(entries []*spatialEntry, p geom.Vec) {
	sort.SliceStable(entries, func(i, j int) bool {
		return geom.Distance(p, entries[i].pos) < geom.Distance(p, entries[j].pos)
	})
}

// Nearest returns up to k tracked enemies closest to p, nearest first,
// using positions as of the last maintenance pass.
func (r *Registry) Nearest(p geom.Vec, k int) []State {
	return r.statesFor(r.index.nearest(p, k))
}

// Within returns tracked enemies no further than radius from p, nearest
// first, using positions as of the last maintenance pass.
func (r *Registry) Within(p geom.Vec, radius float64) []State {
	return r.statesFor(r.index.within(p, radius))
}

func (r *Registry) statesFor(entries []*spatialEntry) []State {
	states := make([]State, 0, len(entries))
	for _, entry := range entries {
		if e := r.Get(entry.handle); e != nil {
			states = append(states, e.State())
		}
	}
	return states
}
