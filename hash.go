// hash.go -- C1: deterministic, seed-parameterised signature hash
//
// Every bucket, every hyperedge and every rank query starts from the same
// 4-word signature produced here. §4.1 leaves the exact mixing
// construction open ("any construction that demonstrably satisfies the
// 3-uniform-hypergraph 'random enough' property... is acceptable") and
// names a 128-bit mixing hash run twice with complementary seeds as the
// reference. Hasher is the interface that lets this module swap that
// construction without touching C2/C3.

package gov

import (
	"encoding/binary"

	"github.com/dchest/siphash"
	"github.com/gtank/blake2/blake2b"
	"github.com/zeebo/xxh3"
)

// Signature is the key's identity throughout the core: a fixed-width tuple
// of 4 unsigned 64-bit words produced by a Hasher from a key's bytes and a
// 64-bit seed (§3).
type Signature [4]uint64

// Hasher produces a Signature from a byte sequence and a seed. Implementations
// must be deterministic and streamable over arbitrarily long inputs; they have
// no failure modes.
type Hasher interface {
	Hash(key []byte, seed uint64) Signature
}

// spookyHasher is the reference construction: a 64-bit siphash-2-4 pass
// (word 0), that word re-mixed with mix64 (Zi Long Tan's superfast-hash
// finalizer, word 1), and a complementary-seeded xxh3-128 pass (words 2
// and 3), yielding 4 words total.
type spookyHasher struct{}

// SpookyHasher is the default Hasher used by BucketedHashStore when none is
// supplied explicitly.
var SpookyHasher Hasher = spookyHasher{}

func (spookyHasher) Hash(key []byte, seed uint64) Signature {
	var sipKey [16]byte
	binary.LittleEndian.PutUint64(sipKey[0:8], seed)
	binary.LittleEndian.PutUint64(sipKey[8:16], ^seed)

	h0 := siphash.Hash(binary.LittleEndian.Uint64(sipKey[0:8]), binary.LittleEndian.Uint64(sipKey[8:16]), key)
	h1 := mix64(h0 ^ seed)

	u128 := xxh3.Hash128Seed(key, ^seed)

	return Signature{h0, h1, u128.Hi, u128.Lo}
}

// blake2Hasher is an alternate Hasher built on BLAKE2b (gtank/blake2), kept
// behind the same interface to demonstrate §4.1's "any construction...
// is acceptable" -- callers who want a cryptographic-strength signature
// (e.g. when the structure is exposed to adversarial input) can pick this
// one instead without touching any other component.
type blake2Hasher struct{}

// Blake2Hasher is a drop-in alternative to SpookyHasher. The serialized
// format (marshal.go) does not record which Hasher built a StaticFunction
// or MPHF; a structure built with Blake2Hasher must be unmarshaled with
// gov.Blake2Hasher passed explicitly; passing nil (or omitting the hasher)
// falls back to SpookyHasher and every Get/Rank will be wrong.
var Blake2Hasher Hasher = blake2Hasher{}

func (blake2Hasher) Hash(key []byte, seed uint64) Signature {
	var seedBytes [8]byte
	binary.LittleEndian.PutUint64(seedBytes[:], seed)

	d, err := blake2b.NewDigest(nil, seedBytes[:8], nil, 32)
	if err != nil {
		// NewDigest only fails on oversized key/salt/personalization, none
		// of which apply here with fixed-size arguments.
		panic(err)
	}
	d.Write(key)
	sum := d.Sum(nil)

	var sig Signature
	for i := range sig {
		sig[i] = binary.LittleEndian.Uint64(sum[i*8 : i*8+8])
	}
	return sig
}

// mix64 is Zi Long Tan's superfast-hash finalizer.
func mix64(h uint64) uint64 {
	h ^= h >> 23
	h *= 0x2127599bf4325c37
	h ^= h >> 47
	return h
}
