// marshal_test.go -- §6 serialized format round-trips (§8 P6)

package gov

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticFunctionMarshalRoundTrip(t *testing.T) {
	f, keys, vals := buildStaticFunction(t, 500, 12)

	var buf bytes.Buffer
	n, err := f.MarshalBinary(&buf)
	require.NoError(t, err)
	require.EqualValues(t, buf.Len(), n)

	f2, err := UnmarshalFunction(&buf, nil)
	require.NoError(t, err)
	require.Equal(t, f.N(), f2.N())

	for i, k := range keys {
		require.EqualValues(t, vals[i], f2.Get(StringKey(k)))
	}
}

func TestMPHFMarshalRoundTrip(t *testing.T) {
	m, keys := buildMPHF(t, 700)

	var buf bytes.Buffer
	n, err := m.MarshalBinary(&buf)
	require.NoError(t, err)
	require.EqualValues(t, buf.Len(), n)

	m2, err := UnmarshalMPHF(&buf, nil)
	require.NoError(t, err)
	require.Equal(t, m.N(), m2.N())

	seen := make(map[uint64]bool, len(keys))
	for _, k := range keys {
		r := m2.Rank(StringKey(k))
		require.False(t, seen[r])
		seen[r] = true
	}
	require.Len(t, seen, len(keys))
}

func TestMPHFUnmarshalBinaryMmap(t *testing.T) {
	mb, err := NewMPHFBuilder(nil, t.TempDir())
	require.NoError(t, err)

	keys := make([]string, 400)
	for i := range keys {
		keys[i] = fmt.Sprintf("mmap-key-%d", i)
		require.NoError(t, mb.Add(StringKey(keys[i])))
	}
	m, err := mb.Freeze(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.MarshalBinary(&buf)
	require.NoError(t, err)

	var m2 MPHF
	require.NoError(t, m2.UnmarshalBinaryMmap(buf.Bytes(), nil))
	require.Equal(t, m.N(), m2.N())

	for _, k := range keys {
		require.Equal(t, m.Rank(StringKey(k)), m2.Rank(StringKey(k)))
	}
}

func TestUnmarshalFunctionBadMagic(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, 64))
	_, err := UnmarshalFunction(buf, nil)
	require.Error(t, err)
}
