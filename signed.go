// signed.go -- optional signature attachment for dictionary semantics
//
// §7's "signed variant": keep a `w_sig`-bit fingerprint per key,
// indexed by the MPHF's own output, separate from `values` (design note
// "Signature attachment: keep the signature array separate from values").
// A query recomputes the same key's fingerprint and compares it against
// the stored one at the computed rank; a mismatch means the queried key
// was never in the set, turning an otherwise-undefined out-of-set lookup
// into a miss with probability 2^-w_sig (§8 P7). Grounded on
// function.go's wordArray (reused verbatim here as the fingerprint table)
// and mphf.go's MPHF, composed rather than duplicated.

package gov

import "context"

// SignedMPHF wraps an MPHF with a per-rank fingerprint table, turning an
// otherwise-undefined out-of-set query into a probabilistic miss.
type SignedMPHF struct {
	mphf *MPHF
	wSig int
	sig  *wordArray
}

// N returns the number of keys.
func (s *SignedMPHF) N() uint64 { return s.mphf.N() }

// Get returns (rank, true) if 'key' was in the built set -- modulo a
// 2^-wSig false-positive probability -- and (0, false) otherwise.
func (s *SignedMPHF) Get(key KeyAdapter) (uint64, bool) {
	r := s.mphf.Rank(key)
	want := fingerprint(key, s.mphf.hasher, s.mphf.globalSeed, s.wSig)
	if s.sig.Get(int(r)) != want {
		return 0, false
	}
	return r, true
}

// fingerprint derives a wSig-bit value from a key, using a seed tweak
// distinct from the one driving bucket/edge placement so the fingerprint
// and the structural hash are independent.
func fingerprint(key KeyAdapter, hasher Hasher, seed uint64, wSig int) uint64 {
	sig := hasher.Hash(key.ToBytes(), seed^0x5349474E41545552)
	if wSig >= 64 {
		return sig[3]
	}
	return sig[3] & (uint64(1)<<uint(wSig) - 1)
}

// SignedMPHFBuilder builds a SignedMPHF.
type SignedMPHFBuilder struct {
	mb   *MPHFBuilder
	wSig int
	keys []KeyAdapter
}

// NewSignedMPHFBuilder creates a builder. wSig is the fingerprint width in
// bits; larger values shrink the false-positive rate at the cost of
// wSig bits per key in the in-memory fingerprint table.
func NewSignedMPHFBuilder(hasher Hasher, tempDir string, wSig int) (*SignedMPHFBuilder, error) {
	mb, err := NewMPHFBuilder(hasher, tempDir)
	if err != nil {
		return nil, err
	}
	return &SignedMPHFBuilder{mb: mb, wSig: wSig}, nil
}

// Add registers a key.
func (b *SignedMPHFBuilder) Add(key KeyAdapter) error {
	if err := b.mb.Add(key); err != nil {
		return err
	}
	b.keys = append(b.keys, key)
	return nil
}

// Freeze builds the underlying MPHF and the per-rank fingerprint table.
func (b *SignedMPHFBuilder) Freeze(ctx context.Context) (*SignedMPHF, error) {
	m, err := b.mb.Freeze(ctx)
	if err != nil {
		return nil, err
	}

	sig := newWordArray(int(m.N())+1, b.wSig)
	for _, k := range b.keys {
		r := m.Rank(k)
		sig.Set(int(r), fingerprint(k, m.hasher, m.globalSeed, b.wSig))
	}

	return &SignedMPHF{mphf: m, wSig: b.wSig, sig: sig}, nil
}
