// Package depgraph builds and queries the producer-to-consumer
// dependency graph over expression keys that the barrier-splitting pass
// analyzes, adapted from the adjacency-map-plus-reverse-index redesign
// suggested in SPEC_FULL.md §9 (in place of the original's flat
// mom/child edge list).
package depgraph

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/h2oxi/pipecut/ir"
)

// Graph is a directed producer -> consumer dependency graph over ir.Key
// nodes, with a dense index assigned to every key seen so its KeySets can
// be represented as bitsets (grounded on the ins/outs/def/use bitset maps
// in the teacher's CFG liveness fixpoint).
type Graph struct {
	succ    map[ir.Key][]ir.Key
	pred    map[ir.Key][]ir.Key
	indexOf map[ir.Key]uint
	keys    []ir.Key
}

// NewGraph returns an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{
		succ:    make(map[ir.Key][]ir.Key),
		pred:    make(map[ir.Key][]ir.Key),
		indexOf: make(map[ir.Key]uint),
	}
}

func (g *Graph) internKey(k ir.Key) uint {
	if idx, ok := g.indexOf[k]; ok {
		return idx
	}
	idx := uint(len(g.keys))
	g.indexOf[k] = idx
	g.keys = append(g.keys, k)
	return idx
}

// AddEdge records that consumer depends on (reads the value produced by)
// producer, the mom->child relationship in original_source's adjacency.
func (g *Graph) AddEdge(producer, consumer ir.Key) {
	g.internKey(producer)
	g.internKey(consumer)
	g.succ[producer] = append(g.succ[producer], consumer)
	g.pred[consumer] = append(g.pred[consumer], producer)
}

// Succs returns the direct consumers of producer.
func (g *Graph) Succs(producer ir.Key) []ir.Key { return g.succ[producer] }

// Preds returns the direct producers consumer reads from.
func (g *Graph) Preds(consumer ir.Key) []ir.Key { return g.pred[consumer] }

// KeySet is a membership set over the graph's interned keys, backed by a
// bitset so union/difference/test are O(words) instead of O(n) map scans.
type KeySet struct {
	g    *Graph
	bits *bitset.BitSet
}

// NewSet returns an empty KeySet sized for the keys currently known to g.
// Keys added to g after a KeySet is created are still usable; the
// underlying bitset grows on demand.
func (g *Graph) NewSet() *KeySet {
	return &KeySet{g: g, bits: bitset.New(uint(len(g.keys)))}
}

// Add inserts k into the set.
func (s *KeySet) Add(k ir.Key) {
	s.bits.Set(s.g.internKey(k))
}

// Has reports whether k is in the set.
func (s *KeySet) Has(k ir.Key) bool {
	idx, ok := s.g.indexOf[k]
	if !ok {
		return false
	}
	return s.bits.Test(idx)
}

// Remove deletes k from the set, if present.
func (s *KeySet) Remove(k ir.Key) {
	if idx, ok := s.g.indexOf[k]; ok {
		s.bits.Clear(idx)
	}
}

// Union adds every member of other into s.
func (s *KeySet) Union(other *KeySet) {
	s.bits.InPlaceUnion(other.bits)
}

// Len returns the number of members in the set.
func (s *KeySet) Len() uint { return s.bits.Count() }

// Keys returns the set's members as ir.Keys, in index order (which is
// insertion-into-graph order, not necessarily key order).
func (s *KeySet) Keys() []ir.Key {
	out := make([]ir.Key, 0, s.bits.Count())
	for i, e := s.bits.NextSet(0); e; i, e = s.bits.NextSet(i + 1) {
		out = append(out, s.g.keys[i])
	}
	return out
}
