// gf2.go -- C4: lazy Gaussian elimination over GF(2)
//
// Solves the linear system defined by the hypergraph's unpeeled "2-core".
// Equation rows are *bitset.BitSet (bits-and-blooms/bitset) rather than a
// hand-rolled word array -- a plain set-of-variables is exactly what a
// bitset models; bitVector serves as the peeler's core-vertex mask (see
// bitvector.go, peeler.go).

package gov

import "github.com/bits-and-blooms/bitset"

// GF2Equation is one row: a set of variables with coefficient 1, plus a
// constant bit.
type GF2Equation struct {
	vars *bitset.BitSet
	c    uint8
}

// NewGF2Equation creates an all-zero equation over 'numVars' variables.
func NewGF2Equation(numVars int) *GF2Equation {
	return &GF2Equation{vars: bitset.New(uint(numVars))}
}

// SetVar flips variable 'v' into the equation (XOR semantics: setting a
// variable already present clears it, matching how two hyperedge XORs over
// a shared vertex would interact).
func (e *GF2Equation) SetVar(v int) {
	if e.vars.Test(uint(v)) {
		e.vars.Clear(uint(v))
	} else {
		e.vars.Set(uint(v))
	}
}

// SetConstant sets the equation's right-hand side bit.
func (e *GF2Equation) SetConstant(c uint8) { e.c = c & 1 }

// IsEmpty reports whether the equation has no variables (§3).
func (e *GF2Equation) IsEmpty() bool { return e.vars.None() }

// IsUnsolvable reports the empty-with-nonzero-constant condition.
func (e *GF2Equation) IsUnsolvable() bool { return e.IsEmpty() && e.c == 1 }

// IsIdentity reports the empty-with-zero-constant (trivial/discardable)
// condition.
func (e *GF2Equation) IsIdentity() bool { return e.IsEmpty() && e.c == 0 }

func (e *GF2Equation) vlist() []int {
	out := make([]int, 0, e.vars.Count())
	for v, ok := e.vars.NextSet(0); ok; v, ok = e.vars.NextSet(v + 1) {
		out = append(out, int(v))
	}
	return out
}

// GF2System is a collection of equations over a shared set of numVars
// variables.
type GF2System struct {
	numVars int
	eqs     []*GF2Equation
}

// NewGF2System creates an empty system over 'numVars' variables.
func NewGF2System(numVars int) *GF2System {
	return &GF2System{numVars: numVars}
}

// NumVars returns the variable count the system was built over.
func (s *GF2System) NumVars() int { return s.numVars }

// AddEquation appends 'eq' to the system.
func (s *GF2System) AddEquation(eq *GF2Equation) { s.eqs = append(s.eqs, eq) }

// Check verifies a candidate solution against every equation (§4.4
// "Properties preserved: check(sol)").
func (s *GF2System) Check(sol []uint8) bool {
	for _, eq := range s.eqs {
		var sum uint8
		for v, ok := eq.vars.NextSet(0); ok; v, ok = eq.vars.NextSet(v + 1) {
			sum ^= sol[v]
		}
		if sum != eq.c {
			return false
		}
	}
	return true
}

// plainGF2Solve implements §4.4.a: row reduction to echelon form,
// pivoting on the smallest-index set variable, with unsolvable/identity
// row detection.
func plainGF2Solve(numVars int, rows []*bitset.BitSet, consts []uint8) ([]uint8, bool) {
	n := len(rows)
	used := make([]bool, n)
	pivotOfCol := make([]int, numVars)
	for i := range pivotOfCol {
		pivotOfCol[i] = -1
	}

	for col := 0; col < numVars; col++ {
		sel := -1
		for r := 0; r < n; r++ {
			if !used[r] && rows[r].Test(uint(col)) {
				sel = r
				break
			}
		}
		if sel < 0 {
			continue
		}
		used[sel] = true
		pivotOfCol[col] = sel

		for r := 0; r < n; r++ {
			if r != sel && rows[r].Test(uint(col)) {
				rows[r].InPlaceSymmetricDifference(rows[sel])
				consts[r] ^= consts[sel]
			}
		}
	}

	for r := 0; r < n; r++ {
		if rows[r].None() && consts[r] != 0 {
			return nil, false
		}
	}

	sol := make([]uint8, numVars)
	for col, r := range pivotOfCol {
		if r >= 0 {
			sol[col] = consts[r]
		}
	}
	return sol, true
}

// Solve implements §4.4.b: lazy (structured) Gaussian elimination.
// Most variables appear in only a handful of equations; this finds and
// eliminates those "light" pivots first, falls back to plain elimination
// (plainGF2Solve) for the residual dense system over the few "heavy"
// variables, and back-substitutes to recover the light variables. Returns
// (nil, false) if the system is unsolvable.
func (s *GF2System) Solve() ([]uint8, bool) {
	n := len(s.eqs)
	rows := make([]*bitset.BitSet, n)
	consts := make([]uint8, n)
	touches := make([][]int, n)
	for i, eq := range s.eqs {
		rows[i] = eq.vars.Clone()
		consts[i] = eq.c
		touches[i] = eq.vlist()
	}

	eliminate := func(pivot, other, v int) []int {
		rows[other].InPlaceSymmetricDifference(rows[pivot])
		consts[other] ^= consts[pivot]
		return vlistOf(rows[other])
	}
	isEmptyConst := func(i int) bool { return consts[i] != 0 }

	plan, ok := buildLazyPlan(s.numVars, touches, isEmptyConst, eliminate)
	if !ok {
		return nil, false
	}

	heavyIdx := make(map[int]int)
	var heavyVars []int
	heavySet := make([]bool, s.numVars)
	for _, i := range plan.dense {
		for v, ok2 := rows[i].NextSet(0); ok2; v, ok2 = rows[i].NextSet(v + 1) {
			heavySet[v] = true
		}
	}
	for v := 0; v < s.numVars; v++ {
		if heavySet[v] {
			heavyIdx[v] = len(heavyVars)
			heavyVars = append(heavyVars, v)
		}
	}

	denseRows := make([]*bitset.BitSet, len(plan.dense))
	denseConsts := make([]uint8, len(plan.dense))
	for di, i := range plan.dense {
		br := bitset.New(uint(len(heavyVars)))
		for v, ok2 := rows[i].NextSet(0); ok2; v, ok2 = rows[i].NextSet(v + 1) {
			br.Set(uint(heavyIdx[int(v)]))
		}
		denseRows[di] = br
		denseConsts[di] = consts[i]
	}

	denseSol, ok := plainGF2Solve(len(heavyVars), denseRows, denseConsts)
	if !ok {
		return nil, false
	}

	sol := make([]uint8, s.numVars)
	for vi, v := range heavyVars {
		sol[v] = denseSol[vi]
	}

	for pi := len(plan.pivots) - 1; pi >= 0; pi-- {
		pa := plan.pivots[pi]
		sum := consts[pa.eq]
		for v, ok2 := rows[pa.eq].NextSet(0); ok2; v, ok2 = rows[pa.eq].NextSet(v + 1) {
			if int(v) == pa.v {
				continue
			}
			sum ^= sol[v]
		}
		sol[pa.v] = sum & 1
	}

	return sol, true
}

func vlistOf(b *bitset.BitSet) []int {
	out := make([]int, 0, b.Count())
	for v, ok := b.NextSet(0); ok; v, ok = b.NextSet(v + 1) {
		out = append(out, int(v))
	}
	return out
}
