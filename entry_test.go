package hive

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protowire"
)

func testContent() *Content {
	return &Content{
		Header: Header{
			ID:          "item1",
			HiveID:      "hive1",
			ContentType: "note",
			ACL: ACL{
				Owner:  Entity{ID: "O", Type: "agent"},
				Admin:  []Entity{{ID: "A"}},
				Writer: []Entity{{ID: "B"}, {ID: "B2"}},
				Reader: []Entity{{ID: "C", Type: "group"}},
			},
			RevisionKey: "key",
		},
		Bytes: []byte{0, 1, 2, 0xff},
	}
}

func TestContentEncoding(t *testing.T) {
	c := testContent()

	b1 := EncodeContent(c)
	b2 := EncodeContent(testContent())
	if !bytes.Equal(b1, b2) {
		t.Fatal("equal values encoded differently")
	}

	got, err := DecodeContent(b1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestContentEncodingEmpty(t *testing.T) {
	b := EncodeContent(&Content{})
	if len(b) != 0 {
		t.Errorf("got %x for the zero Content", b)
	}
	got, err := DecodeContent(nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&Content{}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestContentDecodingSkipsUnknown(t *testing.T) {
	b := EncodeContent(testContent())
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = protowire.AppendTag(b, 10, protowire.BytesType)
	b = protowire.AppendString(b, "future")

	got, err := DecodeContent(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testContent(), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := DecodeContent([]byte{0x0a, 0x05, 'x'}); err == nil {
		t.Error("got no error for truncated input")
	}
}

func TestActionRefs(t *testing.T) {
	var (
		at    = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
		entry = []byte("entry")
		base  = Path{"a"}.Hash()
	)

	refs := []Ref{
		RevisionRef("alice", at, Zero, entry),
		RevisionRef("bob", at, Zero, entry),
		RevisionRef("alice", at.Add(time.Nanosecond), Zero, entry),
		RevisionRef("alice", at, Zero, []byte("other")),
		RevisionRef("alice", at, Ref{1}, entry),
		DeleteRef("alice", at, Ref{1}),
		LinkRef("alice", at, base, Ref{1}, Author, nil),
		LinkRef("alice", at, base, Ref{1}, Hive, nil),
		LinkRef("alice", at, base, Ref{1}, Author, []byte("t")),
		LinkRef("alice", at, Path{"b"}.Hash(), Ref{1}, Author, nil),
	}
	seen := make(map[Ref]int)
	for i, ref := range refs {
		if j, ok := seen[ref]; ok {
			t.Errorf("refs %d and %d collide", j, i)
		}
		seen[ref] = i
	}

	// Location does not matter, only the instant.
	if RevisionRef("alice", at, Zero, entry) != RevisionRef("alice", at.In(time.FixedZone("X", 3600)), Zero, entry) {
		t.Error("revision ref depends on time zone")
	}
}

func TestPathHash(t *testing.T) {
	cases := []struct {
		a, b Path
		same bool
	}{
		{a: Path{"x", "y"}, b: Path{"x", "y"}, same: true},
		{a: Path{"x", "y"}, b: Path{"y", "x"}},
		{a: Path{"ab", "c"}, b: Path{"a", "bc"}},
		{a: Path{"abc"}, b: Path{"ab", "c"}},
		{a: Path{"X"}, b: Path{"x"}},
		{a: Path{""}, b: Path{}},
		{a: Path{"", ""}, b: Path{""}},
	}
	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%02d", i+1), func(t *testing.T) {
			if got := c.a.Hash() == c.b.Hash(); got != c.same {
				t.Errorf("hash(%q) == hash(%q) is %v, want %v", c.a, c.b, got, c.same)
			}
			if got := c.a.Equal(c.b); got != c.same {
				t.Errorf("%q.Equal(%q) is %v, want %v", c.a, c.b, got, c.same)
			}
		})
	}
}

func TestNamespaces(t *testing.T) {
	for _, ns := range Namespaces {
		got, err := ParseNamespace(ns.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != ns {
			t.Errorf("got %s, want %s", got, ns)
		}
		if !ns.Valid() {
			t.Errorf("%s is not valid", ns)
		}
	}
	if Namespace(0).Valid() || Namespace(len(Namespaces)+1).Valid() {
		t.Error("out-of-range namespace is valid")
	}
	if _, err := ParseNamespace("Author"); err == nil {
		t.Error("namespace names are case-sensitive")
	}
}

func TestIndexError(t *testing.T) {
	cause := errors.New("boom")
	var err error = &IndexError{
		Target: Ref{1},
		Failures: []IndexFailure{
			{Namespace: Writer, Path: Path{"h", "t", "e"}, Err: cause},
			{Namespace: Reader, Path: Path{"h", "t", "e"}, Err: ErrStoreUnavailable},
		},
	}
	if !errors.Is(err, ErrPartialIndex) {
		t.Error("IndexError is not ErrPartialIndex")
	}
	if !errors.Is(err, cause) || !errors.Is(err, ErrStoreUnavailable) {
		t.Error("IndexError does not unwrap to its causes")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("IndexError is ErrNotFound")
	}
}

func TestStoreUnavailable(t *testing.T) {
	cause := errors.New("connection reset")
	err := StoreUnavailable(cause)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Error("StoreUnavailable is not ErrStoreUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("StoreUnavailable does not unwrap to its cause")
	}
	if StoreUnavailable(nil) != nil {
		t.Error("StoreUnavailable(nil) is not nil")
	}
}

func TestRef(t *testing.T) {
	ref := RevisionRef("alice", time.Unix(0, 1), Zero, nil)
	got, err := RefFromHex(ref.String())
	if err != nil {
		t.Fatal(err)
	}
	if got != ref {
		t.Errorf("got %s, want %s", got, ref)
	}
	if _, err := RefFromHex("abc"); err == nil {
		t.Error("got no error for short hex")
	}

	var scanned Ref
	v, _ := ref.Value()
	if err := scanned.Scan(v); err != nil {
		t.Fatal(err)
	}
	if scanned != ref {
		t.Errorf("scanned %s, want %s", scanned, ref)
	}
	if err := scanned.Scan("nope"); err == nil {
		t.Error("got no error scanning a string")
	}
}
