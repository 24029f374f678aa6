package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hummearth/hive"
)

func TestRoundTrip(t *testing.T) {
	ev := hive.Event{
		Op:      hive.OpUpdate,
		Address: hive.Ref{1, 2, 3},
		Record: &hive.Record{
			Content: hive.Content{
				Header: hive.Header{ID: "x", HiveID: "h", ContentType: "note"},
				Bytes:  []byte("payload"),
			},
			Address:   hive.Ref{1, 2, 3},
			Original:  hive.Ref{4},
			Previous:  hive.Ref{4},
			Author:    "alice",
			Timestamp: time.Date(2021, 6, 1, 0, 0, 0, 123456789, time.UTC),
		},
	}

	b, err := Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	var got hive.Event
	if err := Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ev, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDeterministic(t *testing.T) {
	m1 := map[string]int{"b": 2, "a": 1, "c": 3}
	m2 := map[string]int{"c": 3, "a": 1, "b": 2}
	b1, err := Marshal(m1)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := Marshal(m2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b1, b2) {
		t.Errorf("got %x and %x for equal maps", b1, b2)
	}
}

func TestGRPC(t *testing.T) {
	var c GRPC
	if c.Name() != Name {
		t.Errorf("got name %s, want %s", c.Name(), Name)
	}
	b, err := c.Marshal(&struct{ A string }{A: "x"})
	if err != nil {
		t.Fatal(err)
	}
	var got struct{ A string }
	if err := c.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.A != "x" {
		t.Errorf("got %q, want x", got.A)
	}
}
