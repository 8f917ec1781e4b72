// mphf_test.go -- C6 MPHFRanker (§8 P1/P2/P5, scenarios 1-5)

package gov

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildMPHF(t *testing.T, n int) (*MPHF, []string) {
	t.Helper()
	b, err := NewMPHFBuilder(nil, t.TempDir())
	require.NoError(t, err)

	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("mphf-key-%d", i)
		require.NoError(t, b.Add(StringKey(keys[i])))
	}

	m, err := b.Freeze(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, n, m.N())
	return m, keys
}

// requireBijection checks every key maps into [0,n) with no collisions --
// the defining property of a minimal perfect hash function (§8 P1/P2).
func requireBijection(t *testing.T, m *MPHF, keys []string) {
	t.Helper()
	seen := make(map[uint64]bool, len(keys))
	for _, k := range keys {
		r := m.Rank(StringKey(k))
		require.Less(t, r, uint64(len(keys)), "rank out of range for key %q", k)
		require.False(t, seen[r], "duplicate rank %d for key %q", r, k)
		seen[r] = true
	}
	require.Len(t, seen, len(keys))
}

func TestMPHFEmpty(t *testing.T) {
	m, _ := buildMPHF(t, 0)
	require.EqualValues(t, 0, m.N())
}

func TestMPHFSingleton(t *testing.T) {
	m, keys := buildMPHF(t, 1)
	requireBijection(t, m, keys)
}

func TestMPHFTiny(t *testing.T) {
	m, keys := buildMPHF(t, 9)
	requireBijection(t, m, keys)
}

func TestMPHFStress(t *testing.T) {
	const n = 8000
	m, keys := buildMPHF(t, n)
	requireBijection(t, m, keys)

	undirectable, unsolvable := m.Stats()
	require.Zero(t, unsolvable)
	t.Logf("stress stats: undirectable=%d unsolvable=%d", undirectable, unsolvable)
}

// TestRankIndexExact checks §8 P5: the sampled block-rank index plus
// the in-block popcount must equal a naive from-scratch recount of nonzero
// 2-bit pairs up to every vertex.
func TestRankIndexExact(t *testing.T) {
	m, _ := buildMPHF(t, 3000)

	var naive uint64
	for h := 0; h < m.values.n; h++ {
		got := m.blockRank[h/rankBlockPairs] + popcountNonzeroPairsUpTo(m.values, h)
		require.Equal(t, naive, got, "rank mismatch at position %d", h)
		if m.values.Get(h) != 0 {
			naive++
		}
	}
}
