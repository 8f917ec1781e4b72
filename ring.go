// ring.go -- shared scaffolding for lazy (structured) Gaussian elimination
//
// §9 design note: "the solver code is nearly identical for GF(2) and
// GF(3); implementers should use two concrete modules over tagged ring
// traits, not inheritance." The part of §4.4.b steps 1-4 that is
// genuinely ring-independent -- which variable does which equation touch,
// which equations have priority 0/1, which variable is promoted to heavy
// next -- lives here. The part that is NOT ring-independent -- actually
// eliminating a pivot variable from another equation's row, which for GF(2)
// is a plain XOR and for GF(3) is a scaled mod-3 subtraction -- is supplied
// by the caller as the 'eliminate' callback and lives in gf2.go/gf3.go.

package gov

// pivotAssignment records that equation 'eq' was chosen as the pivot for
// light variable 'v', in discovery order -- the order back-substitution
// must run in reverse (§4.4.b step 6).
type pivotAssignment struct {
	eq, v int
}

// lazyPlan is the structural result of the priority/weight bookkeeping:
// which equations pivot on which light variable (in discovery order),
// which equations were discarded as trivial identities, and which
// equations remain live and must be handed to a dense (plain) solve over
// the promoted heavy variables.
type lazyPlan struct {
	pivots  []pivotAssignment
	discard []int
	dense   []int
}

// buildLazyPlan runs §4.4.b steps 1-4. 'touches' holds, per equation,
// the list of variables with a nonzero coefficient; it is mutated in place
// as eliminations happen. 'isEmptyConst' reports whether an equation with
// no remaining variables has a nonzero constant (making the system
// unsolvable). 'eliminate' performs the ring-specific elimination of 'v'
// from equation 'other' using equation 'pivot' as the source row, and
// returns other's new variable-touch list afterward.
func buildLazyPlan(
	numVars int,
	touches [][]int,
	isEmptyConst func(eq int) bool,
	eliminate func(pivot, other, v int) []int,
) (*lazyPlan, bool) {
	n := len(touches)
	live := make([]bool, n)
	for i := range live {
		live[i] = true
	}
	heavy := make([]bool, numVars)
	varEqs := make([][]int, numVars)
	for i, vs := range touches {
		for _, v := range vs {
			varEqs[v] = appendUnique(varEqs[v], i)
		}
	}

	plan := &lazyPlan{}

	lightVars := func(i int) []int {
		var out []int
		for _, v := range touches[i] {
			if !heavy[v] {
				out = append(out, v)
			}
		}
		return out
	}

	for {
		progress := false
		for i := 0; i < n; i++ {
			if !live[i] {
				continue
			}
			light := lightVars(i)
			switch len(light) {
			case 0:
				if len(touches[i]) == 0 {
					if isEmptyConst(i) {
						return nil, false
					}
					live[i] = false
					plan.discard = append(plan.discard, i)
					progress = true
				}
				// else: priority 0 but all-heavy -- leave live for the
				// dense pass (§4.4.b step 3, second bullet).
			case 1:
				v := light[0]
				live[i] = false
				plan.pivots = append(plan.pivots, pivotAssignment{eq: i, v: v})

				for _, j := range appendUnique(nil, varEqs[v]...) {
					if j == i || !live[j] || !containsVar(touches[j], v) {
						continue
					}
					old := touches[j]
					updated := eliminate(i, j, v)
					touches[j] = updated
					for _, nv := range updated {
						if !containsVar(old, nv) {
							varEqs[nv] = appendUnique(varEqs[nv], j)
						}
					}
				}
				progress = true
			}
		}
		if progress {
			continue
		}

		// No priority <=1 equation remains: promote the live light
		// variable with maximum weight to heavy (§4.4.b step 4).
		bestVar, bestWeight := -1, -1
		for v := 0; v < numVars; v++ {
			if heavy[v] {
				continue
			}
			w := 0
			for _, j := range varEqs[v] {
				if live[j] && containsVar(touches[j], v) {
					w++
				}
			}
			if w > bestWeight {
				bestWeight, bestVar = w, v
			}
		}
		if bestVar < 0 {
			break
		}
		heavy[bestVar] = true
	}

	for i := 0; i < n; i++ {
		if live[i] {
			plan.dense = append(plan.dense, i)
		}
	}
	return plan, true
}

func containsVar(vs []int, v int) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

func appendUnique(dst []int, src ...int) []int {
	for _, v := range src {
		if !containsVar(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
