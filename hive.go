package hive

import (
	"bytes"
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"

	"github.com/pkg/errors"
)

// Ref is the content address of a ledger action:
// the sha256 hash of its canonical encoding.
// Revisions, deletes, and links are all addressed by Refs.
type Ref [sha256.Size]byte

// Zero is the zero value of a Ref.
var Zero Ref

func (r Ref) String() string {
	return hex.EncodeToString(r[:])
}

// IsZero tells whether r is the zero Ref.
func (r Ref) IsZero() bool {
	return r == Zero
}

// Less orders Refs lexicographically.
func (r Ref) Less(other Ref) bool {
	return bytes.Compare(r[:], other[:]) < 0
}

// FromHex parses a hex-encoded ref into r.
func (r *Ref) FromHex(s string) error {
	if len(s) != 2*sha256.Size {
		return errors.New("wrong length")
	}
	_, err := hex.Decode(r[:], []byte(s))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ref) UnmarshalText(b []byte) error {
	return r.FromHex(string(b))
}

// Value implements driver.Valuer.
func (r Ref) Value() (driver.Value, error) {
	return r[:], nil
}

// Scan implements sql.Scanner.
func (r *Ref) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok {
		return errors.Errorf("cannot scan %T into Ref", src)
	}
	if len(b) != sha256.Size {
		return errors.Errorf("cannot scan %d bytes into Ref", len(b))
	}
	copy(r[:], b)
	return nil
}

// RefFromBytes copies b into a Ref.
func RefFromBytes(b []byte) Ref {
	var out Ref
	copy(out[:], b)
	return out
}

// RefFromHex parses a hex-encoded Ref.
func RefFromHex(s string) (Ref, error) {
	var out Ref
	err := out.FromHex(s)
	return out, err
}
