package hive

import (
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// Path is an ordered sequence of string components
// naming one key in an index namespace.
// Two paths are the same key iff their components are equal,
// element-wise and in order.
// There is no case folding or other normalization.
type Path []string

// KeyHash is the hashed form of a Path,
// used as the base of links in the ledger's link graph.
type KeyHash [32]byte

func (h KeyHash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h KeyHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *KeyHash) UnmarshalText(b []byte) error {
	if len(b) != 2*len(h) {
		return errors.New("wrong length")
	}
	_, err := hex.Decode(h[:], b)
	return err
}

// Value implements driver.Valuer.
func (h KeyHash) Value() (driver.Value, error) {
	return h[:], nil
}

// KeyHashFromBytes copies b into a KeyHash.
func KeyHashFromBytes(b []byte) KeyHash {
	var out KeyHash
	copy(out[:], b)
	return out
}

// pathDomainKey keys the BLAKE3 hash of index paths.
// Changing it orphans every existing index entry.
var pathDomainKey = [32]byte{
	'h', 'i', 'v', 'e', '.', 'i', 'n', 'd', 'e', 'x', '.', 'p', 'a', 't', 'h',
}

// Hash computes the KeyHash of p.
// Each component is length-prefixed,
// so ["ab", "c"] and ["a", "bc"] hash differently.
func (p Path) Hash() KeyHash {
	hasher, err := blake3.NewKeyed(pathDomainKey[:])
	if err != nil {
		panic("hive: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	var lenbuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenbuf[:], uint64(len(p)))
	hasher.Write(lenbuf[:n])
	for _, c := range p {
		n = binary.PutUvarint(lenbuf[:], uint64(len(c)))
		hasher.Write(lenbuf[:n])
		hasher.Write([]byte(c))
	}

	var out KeyHash
	copy(out[:], hasher.Sum(nil))
	return out
}

// Equal tells whether p and other name the same key.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}
