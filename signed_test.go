// signed_test.go -- signature attachment / dictionary semantics (§8 P7)

package gov

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignedMPHFMembersAlwaysFound(t *testing.T) {
	b, err := NewSignedMPHFBuilder(nil, t.TempDir(), 12)
	require.NoError(t, err)

	const n = 1000
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("signed-key-%d", i)
		require.NoError(t, b.Add(StringKey(keys[i])))
	}

	s, err := b.Freeze(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, n, s.N())

	seen := make(map[uint64]bool, n)
	for _, k := range keys {
		r, ok := s.Get(StringKey(k))
		require.True(t, ok, "member key %q must be found", k)
		require.False(t, seen[r])
		seen[r] = true
	}
}

// TestSignedFalsePositiveRate checks §8 P7: querying random non-member
// keys against a wSig-bit signed MPHF should yield a false "found" at a
// rate bounded by roughly 2^-wSig, measured over 10^4 trials.
func TestSignedFalsePositiveRate(t *testing.T) {
	const wSig = 8
	b, err := NewSignedMPHFBuilder(nil, t.TempDir(), wSig)
	require.NoError(t, err)

	const n = 2000
	member := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("signed-member-%d", i)
		member[k] = true
		require.NoError(t, b.Add(StringKey(k)))
	}

	s, err := b.Freeze(context.Background())
	require.NoError(t, err)

	const trials = 10000
	var falsePositives int
	for i := 0; i < trials; i++ {
		k := fmt.Sprintf("signed-non-member-%d", i)
		require.False(t, member[k])
		if _, ok := s.Get(StringKey(k)); ok {
			falsePositives++
		}
	}

	// Expected false positives ~= trials / 2^wSig = 10000/256 ~= 39; allow
	// generous slack since this is a statistical, not exact, bound.
	require.Less(t, falsePositives, trials/4, "false-positive rate far exceeds the 2^-wSig bound")
}
