// monotone.go -- monotone MPHF composition
//
// The core never implements a distributor itself -- Elias-Fano long lists,
// Jacobson balanced-parentheses, and hollow/PaCo/z-fast trie distributors
// stay external, as clients that compose two instances of the core. What's
// here is the composition boundary (the Distributor interface) plus one
// concrete, swappable reference implementation built on go-immutable-radix
// so the monotone path is exercisable and testable without pulling in a
// real succinct trie.
//
// A monotone MPHF maps key -> bucket_of_size_2^k (the distributor) plus
// key's rank within that bucket (one StaticFunction instance, built with
// per-key values precomputed from the caller's sort order). The final rank
// is bucket_index*2^k + offset.

package gov

import (
	"context"
	"sort"

	iradix "github.com/hashicorp/go-immutable-radix"
)

// Distributor maps a key to the index of the bucket (of size 2^BucketBits)
// that contains it, given keys were registered in lexicographic order.
// Real distributors (Elias-Fano list, z-fast trie, ...) live outside this
// module; this is the composition seam.
type Distributor interface {
	// BucketOf returns the bucket index for 'key'. Undefined for keys not
	// in the original set.
	BucketOf(key KeyAdapter) uint64

	// BucketBits is the log2 of the bucket size used to split the offset
	// (handled by a StaticFunction) from the bucket index.
	BucketBits() uint
}

// RadixDistributor is a reference Distributor backed by an immutable radix
// tree keyed on the input bytes. It is a direct, swappable stand-in for the
// succinct trie distributors that stay external to this module -- adequate
// for testing the monotone composition, not for production memory
// footprint.
type RadixDistributor struct {
	tree       *iradix.Tree
	bucketBits uint
}

// NewRadixDistributor builds a distributor over 'keys', which MUST already
// be in ascending lexicographic order of ToBytes(). bucketBits controls the
// granularity of the split between distributor and offset function: bucket
// size is 2^bucketBits keys.
func NewRadixDistributor(keys []KeyAdapter, bucketBits uint) *RadixDistributor {
	tree := iradix.New()
	shift := bucketBits
	for i, k := range keys {
		bucket := uint64(i) >> shift
		var buf [8]byte
		putUint64BE(buf[:], bucket)
		tree, _, _ = tree.Insert(k.ToBytes(), append([]byte(nil), buf[:]...))
	}
	return &RadixDistributor{tree: tree, bucketBits: bucketBits}
}

func (d *RadixDistributor) BucketOf(key KeyAdapter) uint64 {
	v, ok := d.tree.Get(key.ToBytes())
	if !ok {
		return 0
	}
	b := v.([]byte)
	return getUint64BE(b)
}

func (d *RadixDistributor) BucketBits() uint { return d.bucketBits }

func putUint64BE(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func getUint64BE(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// MonotoneMPHF is a minimal perfect hash function whose output equals the
// lexicographic rank of the key among the input set (§4/§7, test
// property "Monotone compose"). It composes a Distributor with one
// StaticFunction that resolves the offset within each distributor bucket.
type MonotoneMPHF struct {
	dist   Distributor
	offset *StaticFunction
}

// Get returns the key's lexicographic rank. Undefined for keys outside the
// set the MonotoneMPHF was built over.
func (m *MonotoneMPHF) Get(key KeyAdapter) uint64 {
	bucket := m.dist.BucketOf(key)
	return bucket<<m.dist.BucketBits() | m.offset.Get(key)
}

// N returns the number of keys.
func (m *MonotoneMPHF) N() uint64 { return m.offset.N() }

// MonotoneMPHFBuilder builds a MonotoneMPHF from keys supplied in
// lexicographic order (§6: "the monotone variants require,
// additionally, a lexicographically-order-preserving and prefix-free
// transformation" -- enforcing the transform itself is the caller's key
// adapter's job; this builder only requires the resulting bytes be sorted).
type MonotoneMPHFBuilder struct {
	hasher     Hasher
	tempDir    string
	bucketBits uint
	keys       []KeyAdapter
}

// NewMonotoneMPHFBuilder creates a builder. bucketBits sets the distributor
// bucket size (2^bucketBits); a larger value shrinks the distributor at the
// cost of a wider per-key offset function.
func NewMonotoneMPHFBuilder(hasher Hasher, tempDir string, bucketBits uint) *MonotoneMPHFBuilder {
	if hasher == nil {
		hasher = SpookyHasher
	}
	return &MonotoneMPHFBuilder{hasher: hasher, tempDir: tempDir, bucketBits: bucketBits}
}

// Add registers the next key. Keys MUST be added in ascending lexicographic
// order of ToBytes(); AddSorted below verifies this for callers who are
// unsure.
func (b *MonotoneMPHFBuilder) Add(key KeyAdapter) {
	b.keys = append(b.keys, key)
}

// AddSorted registers 'keys', verifying they are already in ascending
// lexicographic order. Returns an error if the order is violated.
func (b *MonotoneMPHFBuilder) AddSorted(keys []KeyAdapter) error {
	if !sort.SliceIsSorted(keys, func(i, j int) bool {
		return lessBytes(keys[i].ToBytes(), keys[j].ToBytes())
	}) {
		return ErrUnsorted
	}
	b.keys = append(b.keys, keys...)
	return nil
}

func lessBytes(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Freeze builds the distributor and offset function and returns a
// MonotoneMPHF.
func (b *MonotoneMPHFBuilder) Freeze(ctx context.Context) (*MonotoneMPHF, error) {
	dist := NewRadixDistributor(b.keys, b.bucketBits)

	w := bitsFor(uint64(1) << b.bucketBits)
	fb, err := NewFunctionBuilder(b.hasher, b.tempDir, w)
	if err != nil {
		return nil, err
	}
	for i, k := range b.keys {
		offset := uint64(i) & ((uint64(1) << b.bucketBits) - 1)
		if err := fb.Add(k, offset); err != nil {
			return nil, err
		}
	}
	sf, err := fb.Freeze(ctx)
	if err != nil {
		return nil, err
	}

	return &MonotoneMPHF{dist: dist, offset: sf}, nil
}

// bitsFor returns the number of bits needed to represent values in [0, n).
func bitsFor(n uint64) int {
	if n <= 1 {
		return 1
	}
	w := 0
	for (uint64(1) << w) < n {
		w++
	}
	return w
}
