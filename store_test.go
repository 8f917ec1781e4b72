// store_test.go -- C2 BucketedHashStore / PartitionedStore (§4.2)

package gov

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultLogBucketsSmallN(t *testing.T) {
	require.EqualValues(t, 0, DefaultLogBuckets(0))
	require.EqualValues(t, 0, DefaultLogBuckets(1023))
	require.Greater(t, DefaultLogBuckets(2048), uint(0))
}

// TestStoreRoundTrip checks that every signature added is recoverable,
// exactly once, across all partitioned buckets -- §4.2's
// "iterating buckets twice yields identical sequences" plus basic
// conservation of signatures through the partition step.
func TestStoreRoundTrip(t *testing.T) {
	s, err := NewBucketedHashStore(nil, t.TempDir())
	require.NoError(t, err)

	const n = 3000
	want := make(map[Signature]int, n)
	for i := 0; i < n; i++ {
		key := StringKey(fmt.Sprintf("store-key-%d", i))
		sig := SpookyHasher.Hash(key.ToBytes(), s.Seed())
		want[sig]++
		require.NoError(t, s.Add(key))
	}
	require.EqualValues(t, n, s.Len())

	logBuckets := DefaultLogBuckets(s.Len())
	part, err := s.CloseAndPartition(logBuckets)
	require.NoError(t, err)
	defer part.Close()

	got := make(map[Signature]int, n)
	var total int
	for bi := 0; bi < part.NumBuckets(); bi++ {
		b, err := part.Bucket(bi)
		require.NoError(t, err)
		for _, sig := range b.Signatures {
			got[sig]++
			total++
		}

		// Fetching the same bucket again must yield an identical sequence.
		b2, err := part.Bucket(bi)
		require.NoError(t, err)
		require.Equal(t, b.Signatures, b2.Signatures)
	}

	require.Equal(t, n, total)
	require.Equal(t, want, got)
	require.NoError(t, part.Check())
}

func TestStoreCheckDetectsDuplicates(t *testing.T) {
	s, err := NewBucketedHashStore(nil, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Add(StringKey("same-key")))
	require.NoError(t, s.Add(StringKey("same-key")))

	part, err := s.CloseAndPartition(DefaultLogBuckets(s.Len()))
	require.NoError(t, err)
	defer part.Close()

	require.ErrorIs(t, part.Check(), ErrDuplicateKeys)
}

func TestStoreReset(t *testing.T) {
	s, err := NewBucketedHashStore(nil, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Add(StringKey("a")))
	require.NoError(t, s.Add(StringKey("b")))
	require.EqualValues(t, 2, s.Len())

	require.NoError(t, s.Reset(123))
	require.EqualValues(t, 0, s.Len())
	require.EqualValues(t, 123, s.Seed())

	require.NoError(t, s.Add(StringKey("c")))
	require.EqualValues(t, 1, s.Len())
	s.Close()
}
