// store.go -- C2: BucketedHashStore
//
// Ingests keys, hashes them into 4-word Signatures, and partitions them into
// 2^b disk-backed buckets so the rest of construction (C3/C4/C5) can run
// bucket-by-bucket with memory bounded by the largest single bucket rather
// than by the whole key set. Follows DBWriter's temp-file lifecycle
// (open-tmp, write, rename-on-success, Abort-on-failure) in dbwriter.go,
// generalized from "one output file" to "2^preBucketBits spillable staging
// files plus 2^b final bucket files".

package gov

import (
	"bufio"
	"encoding/binary"
	"io"
	"math/bits"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// preBucketBits is the number of high bits of signature word 0 used to
// shard incoming keys into on-disk staging files before the final
// partition size (log_buckets) is known. A store supports final partitions
// up to 2^preBucketBits buckets without the (rarer, large-n) fallback path
// in CloseAndPartition.
const preBucketBits = 16
const preBucketCount = 1 << preBucketBits

// defaultMemLimit is the number of signatures a staging shard holds in memory
// before it is spilled to disk.
const defaultMemLimit = 4096

// sigSize is the on-disk size of one Signature: 4 uint64 words.
const sigSize = 32

type preBucket struct {
	mem  []Signature
	path string
	fd   *os.File
	n    int // total signatures ever added to this shard (mem + spilled)
}

// BucketedHashStore ingests keys, hashes them with a Hasher under a single
// global seed, and stages them on disk pending CloseAndPartition.
type BucketedHashStore struct {
	hasher  Hasher
	seed    uint64
	tempDir string
	memLim  int

	pre [preBucketCount]preBucket
	n   uint64

	closed bool
}

// NewBucketedHashStore creates an empty store rooted under 'tempDir' (created
// if empty, using a uuid-named subdirectory so concurrent builds never
// collide; a store manages many concurrently-open staging files, so a whole
// scratch directory -- rather than a single temp file -- is what it needs).
func NewBucketedHashStore(hasher Hasher, tempDir string) (*BucketedHashStore, error) {
	if hasher == nil {
		hasher = SpookyHasher
	}

	dir := filepath.Join(tempDir, "govstore-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	s := &BucketedHashStore{
		hasher:  hasher,
		seed:    rand64(),
		tempDir: dir,
		memLim:  defaultMemLimit,
	}
	return s, nil
}

// Reset discards all staged buckets and re-seeds the store. Used when C5
// must retry the whole build with a fresh global seed after InputDuplicates.
func (s *BucketedHashStore) Reset(seed uint64) error {
	for i := range s.pre {
		pb := &s.pre[i]
		if pb.fd != nil {
			pb.fd.Close()
			os.Remove(pb.path)
		}
		pb.mem = nil
		pb.fd = nil
		pb.path = ""
		pb.n = 0
	}
	s.seed = seed
	s.n = 0
	s.closed = false
	return nil
}

// Seed returns the store's current global hash seed.
func (s *BucketedHashStore) Seed() uint64 { return s.seed }

// Add hashes 'key' under the store's seed and stages the resulting
// signature. Single-threaded producer (§4.2 concurrency note).
func (s *BucketedHashStore) Add(key KeyAdapter) error {
	if s.closed {
		return ErrFrozen
	}

	sig := s.hasher.Hash(key.ToBytes(), s.seed)
	idx := sig[0] >> (64 - preBucketBits)
	pb := &s.pre[idx]
	pb.mem = append(pb.mem, sig)
	pb.n++
	s.n++

	if len(pb.mem) > s.memLim {
		if err := s.spill(pb); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of signatures staged so far.
func (s *BucketedHashStore) Len() uint64 { return s.n }

func (s *BucketedHashStore) spill(pb *preBucket) error {
	if pb.fd == nil {
		path := filepath.Join(s.tempDir, uuid.NewString()+".pre")
		fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return err
		}
		pb.fd = fd
		pb.path = path
	}

	buf := make([]byte, sigSize*len(pb.mem))
	for i, sig := range pb.mem {
		off := i * sigSize
		for w := 0; w < 4; w++ {
			binary.LittleEndian.PutUint64(buf[off+w*8:], sig[w])
		}
	}
	if _, err := pb.fd.Write(buf); err != nil {
		return err
	}
	pb.mem = pb.mem[:0]
	return nil
}

// readAll returns every signature ever staged in 'pb', in deterministic
// (file-then-memory) order: reading it twice yields identical sequences,
// satisfying §4.2's "iterating buckets twice yields identical
// sequences" invariant.
func (pb *preBucket) readAll() ([]Signature, error) {
	out := make([]Signature, 0, pb.n)

	if pb.fd != nil {
		if _, err := pb.fd.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		r := bufio.NewReader(pb.fd)
		var rec [sigSize]byte
		for {
			_, err := io.ReadFull(r, rec[:])
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			var sig Signature
			for w := 0; w < 4; w++ {
				sig[w] = binary.LittleEndian.Uint64(rec[w*8:])
			}
			out = append(out, sig)
		}
	}
	out = append(out, pb.mem...)
	return out, nil
}

// Close closes and removes all staging files. Safe to call after
// CloseAndPartition or on an aborted build.
func (s *BucketedHashStore) Close() {
	for i := range s.pre {
		pb := &s.pre[i]
		if pb.fd != nil {
			pb.fd.Close()
			os.Remove(pb.path)
		}
	}
	os.RemoveAll(s.tempDir)
	s.closed = true
}

// Bucket is a contiguous, disk-resident group of signatures sharing the
// top logBuckets bits of word 0 (§3).
type Bucket struct {
	Index      int
	Signatures []Signature
}

// PartitionedStore is the result of CloseAndPartition: 2^logBuckets
// disk-resident buckets, ready for bucket-by-bucket iteration by C5.
type PartitionedStore struct {
	logBuckets uint
	dir        string
	counts     []int
	files      []string // "" if the bucket's signatures fit entirely via direct prebucket passthrough in-memory
	inmem      [][]Signature
	n          uint64
}

// LogBuckets returns the partition's bucket-count exponent.
func (p *PartitionedStore) LogBuckets() uint { return p.logBuckets }

// NumBuckets returns 2^LogBuckets().
func (p *PartitionedStore) NumBuckets() int { return 1 << p.logBuckets }

// Len returns the total number of signatures across all buckets.
func (p *PartitionedStore) Len() uint64 { return p.n }

// Bucket returns bucket 'i' (0 <= i < NumBuckets()), reading it from disk if
// necessary. Buckets are independent once produced -- callers may fetch them
// out of order or concurrently (§5: "buckets are fully independent
// once C2 has emitted them").
func (p *PartitionedStore) Bucket(i int) (*Bucket, error) {
	if p.inmem[i] != nil || p.counts[i] == 0 {
		return &Bucket{Index: i, Signatures: p.inmem[i]}, nil
	}

	fd, err := os.Open(p.files[i])
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	sigs := make([]Signature, p.counts[i])
	buf := make([]byte, sigSize*p.counts[i])
	if _, err := io.ReadFull(fd, buf); err != nil {
		return nil, err
	}
	for i2 := range sigs {
		off := i2 * sigSize
		for w := 0; w < 4; w++ {
			sigs[i2][w] = binary.LittleEndian.Uint64(buf[off+w*8:])
		}
	}
	return &Bucket{Index: i, Signatures: sigs}, nil
}

// Close removes the partitioned bucket files on disk.
func (p *PartitionedStore) Close() {
	for _, f := range p.files {
		if f != "" {
			os.Remove(f)
		}
	}
}

// DefaultLogBuckets implements §9's floor-based derivation:
// log_buckets = max(0, msb(n >> 10)), i.e. a single bucket for n < 2048 and
// an average bucket occupancy that hovers near 1024 keys beyond that.
func DefaultLogBuckets(n uint64) uint {
	shifted := n >> 10
	if shifted == 0 {
		return 0
	}
	return uint(bits.Len64(shifted)) - 1
}

// CloseAndPartition commits all staged signatures and re-splits them into
// 2^targetLogBuckets disk-resident final buckets, returning a
// PartitionedStore. The store itself is left usable only for Close() after
// this call (§4.2 "close_and_partition").
func (s *BucketedHashStore) CloseAndPartition(targetLogBuckets uint) (*PartitionedStore, error) {
	if s.closed {
		return nil, ErrFrozen
	}
	for i := range s.pre {
		if len(s.pre[i].mem) > 0 && s.pre[i].fd == nil && s.pre[i].n > s.memLim {
			if err := s.spill(&s.pre[i]); err != nil {
				return nil, err
			}
		}
	}

	p := &PartitionedStore{
		logBuckets: targetLogBuckets,
		dir:        s.tempDir,
		n:          s.n,
	}
	finalCount := 1 << targetLogBuckets
	p.counts = make([]int, finalCount)
	p.files = make([]string, finalCount)
	p.inmem = make([][]Signature, finalCount)

	if targetLogBuckets <= preBucketBits {
		groupSize := 1 << (preBucketBits - targetLogBuckets)
		for b := 0; b < finalCount; b++ {
			var sigs []Signature
			for g := 0; g < groupSize; g++ {
				pbi := b*groupSize + g
				more, err := s.pre[pbi].readAll()
				if err != nil {
					return nil, err
				}
				sigs = append(sigs, more...)
			}
			if err := p.writeBucket(b, sigs); err != nil {
				return nil, err
			}
		}
	} else {
		// Rare: caller wants a finer partition than the staging layer's
		// fixed prebucket width supports. Each prebucket spans several
		// final buckets; load it whole and split in memory.
		extra := targetLogBuckets - preBucketBits
		groups := make([][]Signature, 1<<extra)
		for pbi := range s.pre {
			sigs, err := s.pre[pbi].readAll()
			if err != nil {
				return nil, err
			}
			for g := range groups {
				groups[g] = groups[g][:0]
			}
			for _, sig := range sigs {
				sub := (sig[0] >> (64 - targetLogBuckets)) & ((1 << extra) - 1)
				groups[sub] = append(groups[sub], sig)
			}
			for g, gs := range groups {
				b := pbi<<extra | g
				if err := p.writeBucket(b, gs); err != nil {
					return nil, err
				}
			}
		}
	}

	s.Close()
	return p, nil
}

func (p *PartitionedStore) writeBucket(b int, sigs []Signature) error {
	p.counts[b] = len(sigs)
	if len(sigs) == 0 {
		return nil
	}

	// Small buckets stay resident; this is also exactly what lets
	// scenario 1/2/3 (empty/singleton/tiny) skip disk I/O entirely.
	if len(sigs) <= defaultMemLimit {
		p.inmem[b] = sigs
		return nil
	}

	path := filepath.Join(p.dir, uuid.NewString()+".bucket")
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer fd.Close()

	buf := make([]byte, sigSize*len(sigs))
	for i, sig := range sigs {
		off := i * sigSize
		for w := 0; w < 4; w++ {
			binary.LittleEndian.PutUint64(buf[off+w*8:], sig[w])
		}
	}
	if _, err := fd.Write(buf); err != nil {
		return err
	}
	p.files[b] = path
	return nil
}

// Check scans every bucket for duplicate signatures (§4.2 "check()").
// A duplicate here almost always means a duplicate input key, since
// Signature collisions between distinct keys have probability ~2^-256.
func (p *PartitionedStore) Check() error {
	for i := 0; i < p.NumBuckets(); i++ {
		b, err := p.Bucket(i)
		if err != nil {
			return err
		}
		seen := make(map[Signature]bool, len(b.Signatures))
		for _, sig := range b.Signatures {
			if seen[sig] {
				return ErrDuplicateKeys
			}
			seen[sig] = true
		}
	}
	return nil
}
