// keys.go -- the key adapter boundary (§6, "Key adapter (input side)")
//
// The core never decides how a caller's domain object turns into bytes; it
// only asks for bytes (or, for monotone composition, an order-preserving bit
// sequence) through this small interface. UTF-16/UTF-32/Hu-Tucker transform
// strategies are callers' business, not this package's.

package gov

// KeyAdapter turns an arbitrary key into the byte sequence the hasher
// consumes, and reports its own size for accounting.
// Implementations must be deterministic: the same key always yields the
// same bytes.
type KeyAdapter interface {
	// ToBytes returns the byte encoding of the key. Implementations should
	// not retain the returned slice across calls if it aliases internal
	// storage that can change.
	ToBytes() []byte

	// NumBits returns the self-described size of the key in bits, used
	// only for accounting/diagnostics, never for hashing.
	NumBits() int
}

// BytesKey adapts a raw []byte into a KeyAdapter.
type BytesKey []byte

func (b BytesKey) ToBytes() []byte { return []byte(b) }
func (b BytesKey) NumBits() int    { return len(b) * 8 }

// StringKey adapts a string into a KeyAdapter; ToBytes returns a fresh copy
// of the string's bytes.
type StringKey string

func (s StringKey) ToBytes() []byte { return []byte(s) }
func (s StringKey) NumBits() int    { return len(s) * 8 }

// Uint64Key adapts a native uint64 into a KeyAdapter, big-endian encoded so
// that byte-lexicographic order matches numeric order -- a prerequisite for
// using it with the monotone variant (§6: "lexicographically-order-
// preserving and prefix-free").
type Uint64Key uint64

func (u Uint64Key) ToBytes() []byte {
	var b [8]byte
	v := uint64(u)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b[:]
}

func (u Uint64Key) NumBits() int { return 64 }
