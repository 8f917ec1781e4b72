// dbwriter_test.go -- constant DB round trip (DBWriter/DBReader, §6 composition)

package gov

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDBWriterReaderRoundTrip(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "test.db")

	w, err := NewDBWriter(fn)
	require.NoError(t, err)

	const n = 500
	want := make(map[uint64][]byte, n)
	for i := 0; i < n; i++ {
		key := uint64(i*31 + 7)
		val := []byte(fmt.Sprintf("value-%d", i))
		want[key] = val
		require.NoError(t, w.Add(key, val))
	}
	require.Equal(t, n, w.Len())
	require.NoError(t, w.Freeze())

	rd, err := NewDBReader(fn, 64)
	require.NoError(t, err)
	defer rd.Close()

	require.Equal(t, n, rd.Len())
	for key, val := range want {
		got, ok := rd.Lookup(key)
		require.True(t, ok, "key %d must be found", key)
		require.Equal(t, val, got)
	}

	_, ok := rd.Lookup(^uint64(0))
	require.False(t, ok, "a key never added must not be found")
}

func TestDBWriterRejectsDuplicates(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "dup.db")
	w, err := NewDBWriter(fn)
	require.NoError(t, err)
	defer w.Abort()

	require.NoError(t, w.Add(42, []byte("first")))
	require.ErrorIs(t, w.Add(42, []byte("second")), ErrExists)
}

func TestDBWriterEmptyValues(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "empty.db")
	w, err := NewDBWriter(fn)
	require.NoError(t, err)

	require.NoError(t, w.Add(1, nil))
	require.NoError(t, w.Add(2, []byte{}))
	require.NoError(t, w.Freeze())

	rd, err := NewDBReader(fn, 4)
	require.NoError(t, err)
	defer rd.Close()

	v, ok := rd.Lookup(1)
	require.True(t, ok)
	require.Empty(t, v)
}
