package hive

import (
	"crypto/sha256"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Entries and actions use the protocol buffer wire format,
// written field by field in ascending field order with empty fields omitted,
// so a given value always encodes to the same bytes.
// Decoders skip unknown fields.
//
//	Content { 1: Header header; 2: bytes bytes }
//	Header  { 1: string id; 2: string hive_id; 3: string content_type; 4: ACL acl; 5: string revision_key }
//	ACL     { 1: Entity owner; 2: repeated Entity admin; 3: repeated Entity writer; 4: repeated Entity reader }
//	Entity  { 1: string id; 2: string type }
//
//	Action  { 1: kind; 2: string author; 3: sint64 unix_nanos; 4: bytes previous; 5: bytes entry_hash;
//	          6: bytes base; 7: bytes target; 8: namespace; 9: bytes tag }

// EncodeContent produces the ledger entry for c.
func EncodeContent(c *Content) []byte {
	var b []byte
	if hb := encodeHeader(&c.Header); len(hb) > 0 {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, hb)
	}
	if len(c.Bytes) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, c.Bytes)
	}
	return b
}

// DecodeContent parses a ledger entry produced by EncodeContent.
func DecodeContent(b []byte) (*Content, error) {
	var c Content
	err := eachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1:
			return errors.Wrap(decodeHeader(v, &c.Header), "decoding header")
		case 2:
			c.Bytes = append([]byte(nil), v...)
		}
		return nil
	})
	return &c, errors.Wrap(err, "decoding content")
}

func encodeHeader(h *Header) []byte {
	var b []byte
	b = appendString(b, 1, h.ID)
	b = appendString(b, 2, h.HiveID)
	b = appendString(b, 3, h.ContentType)
	if ab := encodeACL(&h.ACL); len(ab) > 0 {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, ab)
	}
	b = appendString(b, 5, h.RevisionKey)
	return b
}

func decodeHeader(b []byte, h *Header) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1:
			h.ID = string(v)
		case 2:
			h.HiveID = string(v)
		case 3:
			h.ContentType = string(v)
		case 4:
			return errors.Wrap(decodeACL(v, &h.ACL), "decoding acl")
		case 5:
			h.RevisionKey = string(v)
		}
		return nil
	})
}

func encodeACL(a *ACL) []byte {
	var b []byte
	if eb := encodeEntity(&a.Owner); len(eb) > 0 {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, eb)
	}
	for i, list := range [][]Entity{a.Admin, a.Writer, a.Reader} {
		for j := range list {
			b = protowire.AppendTag(b, protowire.Number(i+2), protowire.BytesType)
			b = protowire.AppendBytes(b, encodeEntity(&list[j]))
		}
	}
	return b
}

func decodeACL(b []byte, a *ACL) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		var e Entity
		if err := decodeEntity(v, &e); err != nil {
			return errors.Wrapf(err, "decoding entity in field %d", num)
		}
		switch num {
		case 1:
			a.Owner = e
		case 2:
			a.Admin = append(a.Admin, e)
		case 3:
			a.Writer = append(a.Writer, e)
		case 4:
			a.Reader = append(a.Reader, e)
		}
		return nil
	})
}

func encodeEntity(e *Entity) []byte {
	var b []byte
	b = appendString(b, 1, e.ID)
	b = appendString(b, 2, e.Type)
	return b
}

func decodeEntity(b []byte, e *Entity) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1:
			e.ID = string(v)
		case 2:
			e.Type = string(v)
		}
		return nil
	})
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// eachField calls f for each length-delimited field in b.
// Fields of other wire types are skipped.
func eachField(b []byte, f func(protowire.Number, protowire.Type, []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if err := f(num, typ, v); err != nil {
			return err
		}
	}
	return nil
}

type actionKind uint64

const (
	kindCreate actionKind = iota + 1
	kindUpdate
	kindDelete
	kindLink
)

type action struct {
	kind      actionKind
	author    string
	at        time.Time
	previous  Ref
	entryHash []byte
	base      []byte
	target    Ref
	ns        Namespace
	tag       []byte
}

func (a *action) ref() Ref {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(a.kind))
	b = appendString(b, 2, a.author)
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(a.at.UnixNano()))
	if !a.previous.IsZero() {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, a.previous[:])
	}
	if len(a.entryHash) > 0 {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, a.entryHash)
	}
	if len(a.base) > 0 {
		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendBytes(b, a.base)
	}
	if !a.target.IsZero() {
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendBytes(b, a.target[:])
	}
	if a.ns != 0 {
		b = protowire.AppendTag(b, 8, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(a.ns))
	}
	if len(a.tag) > 0 {
		b = protowire.AppendTag(b, 9, protowire.BytesType)
		b = protowire.AppendBytes(b, a.tag)
	}
	return sha256.Sum256(b)
}

// RevisionRef computes the address of a revision action.
// Previous is Zero for a create.
// Every Ledger implementation addresses revisions this way,
// so the same action has the same Ref on every backend.
func RevisionRef(author string, at time.Time, previous Ref, entry []byte) Ref {
	eh := sha256.Sum256(entry)
	a := action{
		kind:      kindCreate,
		author:    author,
		at:        at,
		previous:  previous,
		entryHash: eh[:],
	}
	if !previous.IsZero() {
		a.kind = kindUpdate
	}
	return a.ref()
}

// DeleteRef computes the address of a delete action.
func DeleteRef(author string, at time.Time, target Ref) Ref {
	a := action{
		kind:   kindDelete,
		author: author,
		at:     at,
		target: target,
	}
	return a.ref()
}

// LinkRef computes the address of a link action.
func LinkRef(author string, at time.Time, base KeyHash, target Ref, ns Namespace, tag []byte) Ref {
	a := action{
		kind:   kindLink,
		author: author,
		at:     at,
		base:   base[:],
		target: target,
		ns:     ns,
		tag:    tag,
	}
	return a.ref()
}
