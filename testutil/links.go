package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/hummearth/hive"
)

// Links exercises the link graph of a ledger.
func Links(ctx context.Context, t *testing.T, l hive.Ledger) {
	// Persistent backends may hold links from earlier runs.
	run := uuid.NewString()

	var (
		b1 = hive.Path{"links", run, "one"}.Hash()
		b2 = hive.Path{"links", run, "two"}.Hash()

		r1 = hive.Ref{0x1}
		r2 = hive.Ref{0x2}
		r3 = hive.Ref{0x3}
	)

	writes := []struct {
		base   hive.KeyHash
		target hive.Ref
		ns     hive.Namespace
		tag    string
	}{
		{base: b1, target: r1, ns: hive.Author, tag: "apple"},
		{base: b1, target: r2, ns: hive.Author, tag: "apricot"},
		{base: b1, target: r3, ns: hive.Author, tag: "banana"},
		{base: b1, target: r1, ns: hive.Hive},
		{base: b2, target: r2, ns: hive.Author, tag: "apple"},
	}
	addrs := make(map[hive.Ref]bool)
	for _, w := range writes {
		addr, err := l.CreateLink(ctx, w.base, w.target, w.ns, []byte(w.tag))
		if err != nil {
			t.Fatal(err)
		}
		if addrs[addr] {
			t.Errorf("duplicate link address %s", addr)
		}
		addrs[addr] = true
	}

	cases := []struct {
		base   hive.KeyHash
		ns     hive.Namespace
		prefix string
		want   []hive.Ref
	}{
		{base: b1, ns: hive.Author, want: []hive.Ref{r1, r2, r3}},
		{base: b1, ns: hive.Author, prefix: "ap", want: []hive.Ref{r1, r2}},
		{base: b1, ns: hive.Author, prefix: "apple", want: []hive.Ref{r1}},
		{base: b1, ns: hive.Author, prefix: "cherry"},
		{base: b1, ns: hive.Hive, want: []hive.Ref{r1}},
		{base: b1, ns: hive.Reader},
		{base: b2, ns: hive.Author, want: []hive.Ref{r2}},
		{base: hive.Path{"links", run, "three"}.Hash(), ns: hive.Author},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%02d", i+1), func(t *testing.T) {
			links, err := l.Links(ctx, c.base, c.ns, []byte(c.prefix))
			if err != nil {
				t.Fatal(err)
			}
			var got []hive.Ref
			for _, link := range links {
				if link.Base != c.base || link.Namespace != c.ns {
					t.Errorf("link %s has base %s namespace %s", link.Address, link.Base, link.Namespace)
				}
				if want := hive.LinkRef(link.Author, link.Timestamp, link.Base, link.Target, link.Namespace, link.Tag); want != link.Address {
					t.Errorf("link address %s does not match computed %s", link.Address, want)
				}
				got = append(got, link.Target)
			}
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Ledger runs every conformance check against a ledger.
func Ledger(ctx context.Context, t *testing.T, l hive.Ledger) {
	t.Run("revisions", func(t *testing.T) { Revisions(ctx, t, l) })
	t.Run("links", func(t *testing.T) { Links(ctx, t, l) })
	t.Run("entries", func(t *testing.T) { Entries(ctx, t, l) })
}
