// marshal.go -- serialized binary format for StaticFunction and MPHF
//
// A single little-endian binary blob: magic+version, global seed, sizing
// metadata, the packed edge_offset[] array, the per-bucket vertexOff[]
// array, the packed values array, and
// (for MPHF) the block rank samples. Follows the MarshalBinary/
// UnmarshalBinaryMmap pair's shape and the byte-slice reinterpretation
// helpers in mmap.go, which let the packed uint64 arrays be written and
// read without a per-word loop.

package gov

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	magicFunction = "GOVFUNC1"
	magicMPHF     = "GOVMPHF1"
)

func writeAllM(w io.Writer, b []byte) (int, error) {
	n, err := w.Write(b)
	if err != nil {
		return n, err
	}
	if n != len(b) {
		return n, errShortWrite(n)
	}
	return n, nil
}

// MarshalBinary writes the serialized binary format for a StaticFunction.
func (f *StaticFunction) MarshalBinary(w io.Writer) (int64, error) {
	var total int64

	hdr := make([]byte, 8+8+8+4+4+4)
	copy(hdr[0:8], magicFunction)
	binary.LittleEndian.PutUint64(hdr[8:16], f.globalSeed)
	binary.LittleEndian.PutUint64(hdr[16:24], f.n)
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(f.logBuckets))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(f.w))
	binary.LittleEndian.PutUint32(hdr[32:36], uint32(f.arity))
	n, err := writeAllM(w, hdr)
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = writeAllM(w, u64sToByteSlice(f.edgeOffset))
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = writeAllM(w, u64sToByteSlice(f.vertexOff))
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = writeAllM(w, u64sToByteSlice(f.values.words))
	total += int64(n)
	return total, err
}

// UnmarshalFunction reads back a StaticFunction written by MarshalBinary.
func UnmarshalFunction(r io.Reader, hasher Hasher) (*StaticFunction, error) {
	if hasher == nil {
		hasher = SpookyHasher
	}

	hdr := make([]byte, 8+8+8+4+4+4)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	if string(hdr[0:8]) != magicFunction {
		return nil, fmt.Errorf("gov: bad magic for static function")
	}

	f := &StaticFunction{
		hasher:     hasher,
		globalSeed: binary.LittleEndian.Uint64(hdr[8:16]),
		n:          binary.LittleEndian.Uint64(hdr[16:24]),
		logBuckets: uint(binary.LittleEndian.Uint32(hdr[24:28])),
		w:          int(binary.LittleEndian.Uint32(hdr[28:32])),
		arity:      EdgeArity(binary.LittleEndian.Uint32(hdr[32:36])),
	}

	numBuckets := 1 << f.logBuckets
	eo := make([]byte, (numBuckets+1)*8)
	if _, err := io.ReadFull(r, eo); err != nil {
		return nil, err
	}
	f.edgeOffset = append([]uint64(nil), bsToUint64Slice(eo)...)

	vo := make([]byte, (numBuckets+1)*8)
	if _, err := io.ReadFull(r, vo); err != nil {
		return nil, err
	}
	f.vertexOff = append([]uint64(nil), bsToUint64Slice(vo)...)

	total := int(f.vertexOff[numBuckets])
	wa := newWordArray(total+1, f.w)
	vb := make([]byte, len(wa.words)*8)
	if _, err := io.ReadFull(r, vb); err != nil {
		return nil, err
	}
	copy(u64sToByteSlice(wa.words), vb)
	f.values = wa

	return f, nil
}

// MarshalBinary writes the serialized binary format for an MPHF.
func (m *MPHF) MarshalBinary(w io.Writer) (int64, error) {
	var total int64

	hdr := make([]byte, 8+8+8+4)
	copy(hdr[0:8], magicMPHF)
	binary.LittleEndian.PutUint64(hdr[8:16], m.globalSeed)
	binary.LittleEndian.PutUint64(hdr[16:24], m.n)
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(m.logBuckets))
	n, err := writeAllM(w, hdr)
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = writeAllM(w, u64sToByteSlice(m.edgeOffset))
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = writeAllM(w, u64sToByteSlice(m.vertexOff))
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = writeAllM(w, u64sToByteSlice(m.values.words))
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = writeAllM(w, u64sToByteSlice(m.blockRank))
	total += int64(n)
	return total, err
}

// UnmarshalMPHF reads back an MPHF written by MarshalBinary.
func UnmarshalMPHF(r io.Reader, hasher Hasher) (*MPHF, error) {
	if hasher == nil {
		hasher = SpookyHasher
	}

	hdr := make([]byte, 8+8+8+4)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	if string(hdr[0:8]) != magicMPHF {
		return nil, fmt.Errorf("gov: bad magic for mphf")
	}

	m := &MPHF{
		hasher:     hasher,
		globalSeed: binary.LittleEndian.Uint64(hdr[8:16]),
		n:          binary.LittleEndian.Uint64(hdr[16:24]),
		logBuckets: uint(binary.LittleEndian.Uint32(hdr[24:28])),
	}

	numBuckets := 1 << m.logBuckets
	eo := make([]byte, (numBuckets+1)*8)
	if _, err := io.ReadFull(r, eo); err != nil {
		return nil, err
	}
	m.edgeOffset = append([]uint64(nil), bsToUint64Slice(eo)...)

	vo := make([]byte, (numBuckets+1)*8)
	if _, err := io.ReadFull(r, vo); err != nil {
		return nil, err
	}
	m.vertexOff = append([]uint64(nil), bsToUint64Slice(vo)...)

	total := int(m.vertexOff[numBuckets])
	tv := newTriVector(total + 1)
	vb := make([]byte, len(tv.words)*8)
	if _, err := io.ReadFull(r, vb); err != nil {
		return nil, err
	}
	copy(u64sToByteSlice(tv.words), vb)
	m.values = tv

	numBlocks := (tv.n+rankBlockPairs-1)/rankBlockPairs + 1
	rb := make([]byte, numBlocks*8)
	if _, err := io.ReadFull(r, rb); err != nil {
		return nil, err
	}
	m.blockRank = append([]uint64(nil), bsToUint64Slice(rb)...)

	return m, nil
}

// UnmarshalBinaryMmap initializes 'm' from a memory-mapped byte slice
// without copying the packed arrays -- the caller (DBReader) owns the
// mmap's lifetime and must keep it alive for as long as 'm' is in use.
// Mirrors UnmarshalMPHF but reads directly from an mmap'd byte slice.
func (m *MPHF) UnmarshalBinaryMmap(b []byte, hasher Hasher) error {
	if hasher == nil {
		hasher = SpookyHasher
	}
	if len(b) < len(magicMPHF)+8+8+4 {
		return fmt.Errorf("gov: truncated mphf header")
	}
	if string(b[0:8]) != magicMPHF {
		return fmt.Errorf("gov: bad magic for mphf")
	}

	m.hasher = hasher
	m.globalSeed = binary.LittleEndian.Uint64(b[8:16])
	m.n = binary.LittleEndian.Uint64(b[16:24])
	m.logBuckets = uint(binary.LittleEndian.Uint32(b[24:28]))

	off := 28
	numBuckets := 1 << m.logBuckets
	eoLen := (numBuckets + 1) * 8
	m.edgeOffset = bsToUint64Slice(b[off : off+eoLen])
	off += eoLen

	voLen := (numBuckets + 1) * 8
	m.vertexOff = bsToUint64Slice(b[off : off+voLen])
	off += voLen

	total := int(m.vertexOff[numBuckets])
	tv := &triVector{n: total + 1}
	valWords := (tv.n + 31) / 32
	tv.words = bsToUint64Slice(b[off : off+valWords*8])
	m.values = tv
	off += valWords * 8

	numBlocks := (tv.n+rankBlockPairs-1)/rankBlockPairs + 1
	m.blockRank = bsToUint64Slice(b[off : off+numBlocks*8])

	return nil
}
