// function_test.go -- C5 FunctionAssembler (§8 P1/P2/P7, scenarios 1-5)

package gov

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildStaticFunction(t *testing.T, n int, w int) (*StaticFunction, []string, []uint64) {
	t.Helper()
	fb, err := NewFunctionBuilder(nil, t.TempDir(), w)
	require.NoError(t, err)

	keys := make([]string, n)
	vals := make([]uint64, n)
	mask := uint64(1)<<uint(w) - 1
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("function-key-%d", i)
		vals[i] = uint64(i*2654435761) & mask
		require.NoError(t, fb.Add(StringKey(keys[i]), vals[i]))
	}

	f, err := fb.Freeze(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, n, f.N())
	return f, keys, vals
}

func TestStaticFunctionEmpty(t *testing.T) {
	f, _, _ := buildStaticFunction(t, 0, 8)
	require.EqualValues(t, 0, f.N())
}

func TestStaticFunctionSingleton(t *testing.T) {
	f, keys, vals := buildStaticFunction(t, 1, 8)
	require.EqualValues(t, vals[0], f.Get(StringKey(keys[0])))
}

func TestStaticFunctionTiny(t *testing.T) {
	f, keys, vals := buildStaticFunction(t, 7, 8)
	for i, k := range keys {
		require.EqualValues(t, vals[i], f.Get(StringKey(k)), "key %d", i)
	}
}

// TestStaticFunctionStress exercises multiple buckets (DefaultLogBuckets
// starts splitting at n=2048) and the GOV4/GF(2) per-bit-plane solve path
// across every plane of a 16-bit value.
func TestStaticFunctionStress(t *testing.T) {
	const n = 6000
	f, keys, vals := buildStaticFunction(t, n, 16)
	for i, k := range keys {
		require.EqualValues(t, vals[i], f.Get(StringKey(k)), "key %d", i)
	}

	undirectable, unsolvable, duplicate := f.Stats()
	require.Zero(t, unsolvable, "every bucket's core must have solved once accepted")
	require.Zero(t, duplicate)
	t.Logf("stress stats: undirectable=%d unsolvable=%d duplicate=%d", undirectable, unsolvable, duplicate)
}
