// gf3_test.go -- C4 GF(3) lazy elimination and SWAR mod-3 arithmetic

package gov

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMod3WordArithmetic(t *testing.T) {
	// pack lanes 0..31 with (i mod 3) and verify add/sub/neg against
	// the scalar mod3 function lane by lane.
	var x, y uint64
	for i := 0; i < 32; i++ {
		x |= uint64(i%3) << uint(i*2)
		y |= uint64((2*i+1)%3) << uint(i*2)
	}

	sum := addMod3Word(x, y)
	diff := subMod3Word(x, y)
	neg := negMod3Word(x)

	for i := 0; i < 32; i++ {
		shift := uint(i * 2)
		xi := int((x >> shift) & 3)
		yi := int((y >> shift) & 3)
		require.EqualValues(t, mod3(xi+yi), (sum>>shift)&3, "lane %d sum", i)
		require.EqualValues(t, mod3(xi-yi), (diff>>shift)&3, "lane %d diff", i)
		require.EqualValues(t, mod3(-xi), (neg>>shift)&3, "lane %d neg", i)
	}
}

func TestTriVectorGetSet(t *testing.T) {
	tv := newTriVector(100)
	for i := 0; i < 100; i++ {
		tv.Set(i, uint8(i%3))
	}
	for i := 0; i < 100; i++ {
		require.EqualValues(t, i%3, tv.Get(i))
	}
}

func TestGF3SolveSmallSystem(t *testing.T) {
	// x0 + x1 = 1 (mod 3)
	// x1 + 2*x2 = 2 (mod 3)
	// x2 = 1
	sys := NewGF3System(3)

	e1 := NewGF3Equation(3)
	e1.SetCoeff(0, 1)
	e1.SetCoeff(1, 1)
	e1.SetConstant(1)
	sys.AddEquation(e1)

	e2 := NewGF3Equation(3)
	e2.SetCoeff(1, 1)
	e2.SetCoeff(2, 2)
	e2.SetConstant(2)
	sys.AddEquation(e2)

	e3 := NewGF3Equation(3)
	e3.SetCoeff(2, 1)
	e3.SetConstant(1)
	sys.AddEquation(e3)

	sol, ok := sys.Solve()
	require.True(t, ok)
	require.True(t, sys.Check(sol))
	require.EqualValues(t, 1, sol[2])
}

func TestGF3SolveUnsolvable(t *testing.T) {
	sys := NewGF3System(1)

	e1 := NewGF3Equation(1)
	e1.SetCoeff(0, 1)
	e1.SetConstant(0)
	sys.AddEquation(e1)

	e2 := NewGF3Equation(1)
	e2.SetCoeff(0, 1)
	e2.SetConstant(1)
	sys.AddEquation(e2)

	_, ok := sys.Solve()
	require.False(t, ok)
}

func TestGF3SolveRandomSparse(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const numVars = 150
	const numEqs = 130

	truth := make([]uint8, numVars)
	for i := range truth {
		truth[i] = uint8(rng.Intn(3))
	}

	sys := NewGF3System(numVars)
	for i := 0; i < numEqs; i++ {
		eq := NewGF3Equation(numVars)
		vars := make(map[int]uint8)
		nv := 2 + rng.Intn(2)
		for len(vars) < nv {
			v := rng.Intn(numVars)
			c := uint8(1 + rng.Intn(2))
			vars[v] = c
		}
		var sum int
		for v, c := range vars {
			eq.SetCoeff(v, c)
			sum += int(c) * int(truth[v])
		}
		eq.SetConstant(mod3(sum))
		sys.AddEquation(eq)
	}

	sol, ok := sys.Solve()
	require.True(t, ok, "a system built from a known-consistent truth assignment must be solvable")
	require.True(t, sys.Check(sol))
}
