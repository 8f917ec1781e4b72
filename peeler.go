// peeler.go -- C3: HypergraphPeeler
//
// For one bucket of k signatures, map each signature to a hyperedge over
// m ~= c*k vertices (GOV3: 3-uniform, GOV4: 4-uniform) and strip leaf edges
// in topological order. §4.3, design note §9 ("Cyclic data in
// peeling"): degree[v]/edgeXor[v] replace per-vertex edge lists so peeling
// needs no pointer webs, just two parallel int arrays and a stack.
//
// The two-phase "iterate keys building per-slot state, iterate again to
// reconcile" shape follows the same preprocess/assign split used by
// sibling MWHC/BBHash-style constructions.

package gov

import "math"

// EdgeArity selects the 3- or 4-uniform hypergraph construction.
type EdgeArity int

const (
	GOV3 EdgeArity = 3
	GOV4 EdgeArity = 4
)

// cGOV3 and cGOV4 are the vertex/key expansion ratios from §4.3. The
// GOV3 ratio (1.10) is also what the MPHF variant uses (c = 1.09 + eps,
// rounded up here to the same constant the static-function variant uses,
// since both need peeling to succeed with high probability).
const (
	cGOV3 = 1.10
	cGOV4 = 1.03
)

// cTimes256 returns floor(c*256) the way §9's open question demands:
// "(int)Math.floor(C * 256)", used for the ceiling-like vertex sizing in
// vertexCount. Keeping this as an integer constant (not a
// recomputed float) is what makes bucket geometry reproduce bit-for-bit.
func cTimes256(arity EdgeArity) int64 {
	switch arity {
	case GOV4:
		return int64(math.Floor(cGOV4 * 256))
	default:
		return int64(math.Floor(cGOV3 * 256))
	}
}

// vertexCount returns the number of vertices for a bucket of 'k' signatures,
// rounded up to a multiple of the edge arity so the arity-many vertex
// "parts" are equal in size.
func vertexCount(arity EdgeArity, k int) int {
	c := cTimes256(arity)
	m := (int64(k)*c + 255) / 256 // ceil(c*k)
	n := int64(arity)
	m = ((m + n - 1) / n) * n
	if m < n {
		m = n
	}
	return int(m)
}

// edge derives the arity-many vertex indices for a signature inside a
// bucket of 'm' vertices under local seed 's'. Each of the arity "parts"
// of [0,m) contributes exactly one vertex, per §3's hyperedge
// invariant.
func edge(arity EdgeArity, sig Signature, localSeed uint8, m int) []int {
	n := int(arity)
	part := m / n
	out := make([]int, n)
	for i := 0; i < n; i++ {
		w := seededWord(sig, i, localSeed)
		out[i] = i*part + int(w%uint64(part))
	}
	return out
}

// seededWord mixes the bucket's local 8-bit retry seed into signature word
// 'i' so that each retry attempt sees a statistically independent
// hyperedge assignment (§4.3 "Retry policy").
func seededWord(sig Signature, i int, localSeed uint8) uint64 {
	idx := i % len(sig)
	return mix64(sig[idx] ^ (uint64(localSeed) * 0x9E3779B97F4A7C15) ^ uint64(i)*0xBF58476D1CE4E5B9)
}

// PeelEntry records one (vertex, edge) pair in the order leaves were
// stripped (§3 "Peel stack").
type PeelEntry struct {
	Vertex int
	Edge   int
}

// PeelResult is the output of peeling one bucket's hypergraph.
type PeelResult struct {
	Arity    EdgeArity
	M        int // vertex count
	Edges    [][]int
	Degree   []int32 // post-peeling residual degree per vertex
	EdgeXor  []int32 // post-peeling residual edge_xor per vertex
	Stack    []PeelEntry
	Peeled   []bool // len(Edges); true if the edge was stripped
	Acyclic  bool   // true iff every edge was peeled (core is empty)
	NumEdges int
}

// peelBucket builds the hypergraph for 'sigs' over 'm' vertices under local
// seed 'localSeed' and peels it. 'm' must be the exact vertex count the
// caller has committed to for this bucket (e.g. via vertexCount, or a
// previously recorded per-bucket width) -- build and query must agree on it
// bit-for-bit, since it determines how edge() partitions [0,m). peelBucket
// never fails: if the hypergraph has a non-empty 2-core, Acyclic is false
// and the caller (FunctionAssembler) must solve the core via C4.
func peelBucket(arity EdgeArity, sigs []Signature, localSeed uint8, m int) *PeelResult {
	k := len(sigs)

	edges := make([][]int, k)
	degree := make([]int32, m)
	edgeXor := make([]int32, m)

	for e, sig := range sigs {
		ev := edge(arity, sig, localSeed, m)
		edges[e] = ev
		for _, v := range ev {
			degree[v]++
			edgeXor[v] ^= int32(e)
		}
	}

	peeled := make([]bool, k)
	stack := make([]PeelEntry, 0, k)

	// work stack: vertices currently known to have degree 1. Insertion
	// order is deterministic given the input (§4.3 tie-break note).
	work := make([]int, 0, m)
	for v := 0; v < m; v++ {
		if degree[v] == 1 {
			work = append(work, v)
		}
	}

	numPeeled := 0
	for len(work) > 0 {
		v := work[len(work)-1]
		work = work[:len(work)-1]

		if degree[v] != 1 {
			continue
		}

		e := int(edgeXor[v])
		if peeled[e] {
			continue
		}
		peeled[e] = true
		numPeeled++
		stack = append(stack, PeelEntry{Vertex: v, Edge: e})

		for _, u := range edges[e] {
			if u == v {
				continue
			}
			degree[u]--
			edgeXor[u] ^= int32(e)
			if degree[u] == 1 {
				work = append(work, u)
			}
		}
		degree[v] = 0
		edgeXor[v] ^= int32(e)
	}

	return &PeelResult{
		Arity:    arity,
		M:        m,
		Edges:    edges,
		Degree:   degree,
		EdgeXor:  edgeXor,
		Stack:    stack,
		Peeled:   peeled,
		Acyclic:  numPeeled == k,
		NumEdges: k,
	}
}

// CoreVertices returns the bitVector marking vertices with nonzero residual
// degree after peeling -- the hypergraph's unpeeled "2-core". Used by C4 to
// compact the sparse vertex-id space into dense linear-system variable ids
// via bitVector.Rank.
func (r *PeelResult) CoreVertices() *bitVector {
	bv := newBitVector(uint64(r.M))
	for v, d := range r.Degree {
		if d > 0 {
			bv.Set(uint64(v))
		}
	}
	return bv
}

// CoreEdges returns the indices of the edges that peeling did not strip.
func (r *PeelResult) CoreEdges() []int {
	var out []int
	for e, p := range r.Peeled {
		if !p {
			out = append(out, e)
		}
	}
	return out
}
