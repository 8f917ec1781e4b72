//
// (c) Sudhi Herle 2018
//
// Author: Sudhi Herle <sudhi@herle.net>
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package gov

import (
	"errors"
	"fmt"
)

func errShortWrite(n int) error {
	return fmt.Errorf("gov: incomplete write; wrote only %d bytes", n)
}

var (
	// ErrMPHFail is returned by DBWriter.Freeze() when building the
	// underlying minimal perfect hash function fails for any reason.
	ErrMPHFail = errors.New("failed to build MPH")

	// ErrFrozen is returned when attempting to add new records to an already
	// frozen builder/DB. It is also returned when trying to freeze twice.
	ErrFrozen = errors.New("gov: already frozen")

	// ErrValueTooLarge is returned if the value-length is larger than 2^32-1 bytes
	ErrValueTooLarge = errors.New("gov: value is larger than 2^32-1 bytes")

	// ErrExists is returned if a duplicate key is added to a builder or DB
	ErrExists = errors.New("gov: key exists")

	// ErrNoKey is returned when a key cannot be found
	ErrNoKey = errors.New("gov: no such key")

	// ErrDuplicateKeys is returned by PartitionedStore.Check() (and
	// propagated by FunctionBuilder.Freeze and MPHFBuilder.Freeze) when two
	// keys share all 4 signature words inside the same bucket. The builders
	// return it on the first detection; they do not re-add the keys under a
	// new global seed. §7 "InputDuplicates".
	ErrDuplicateKeys = errors.New("gov: duplicate signatures in input (duplicate keys?)")

	// ErrSeedExhausted is returned when a bucket cannot be peeled or solved
	// with any of the 256 local seeds. §7 "SeedExhausted"; statistically
	// improbable for a correctly sized vertex/key ratio.
	ErrSeedExhausted = errors.New("gov: exhausted local seeds for bucket")

	// ErrUnsolvable names the "this local seed yields an inconsistent linear
	// system" condition. No function in this package returns it: the
	// GF(2)/GF(3) solvers report that condition as a false result, and the
	// builders bump the local seed and retry.
	ErrUnsolvable = errors.New("gov: linear system has no solution")

	// ErrBuildCanceled is returned when the caller-supplied context is
	// canceled between buckets during Freeze.
	ErrBuildCanceled = errors.New("gov: build canceled")

	// ErrEmpty names the empty-key-set condition. No function in this
	// package returns it: every builder accepts n==0 and produces an empty
	// structure.
	ErrEmpty = errors.New("gov: empty key set")

	// ErrUnsorted is returned by MonotoneMPHFBuilder.AddSorted when the
	// supplied keys are not in ascending lexicographic order, a
	// precondition for monotone composition (§6).
	ErrUnsorted = errors.New("gov: keys not in lexicographic order")
)
