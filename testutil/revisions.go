package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hummearth/hive"
)

// Revisions exercises the revision lifecycle of a ledger:
// create, update, details, and delete.
func Revisions(ctx context.Context, t *testing.T, l hive.Ledger) {
	agent, err := l.Agent(ctx)
	if err != nil {
		t.Fatal(err)
	}

	orig, err := l.Create(ctx, []byte("v1"))
	if err != nil {
		t.Fatal(err)
	}
	rev, err := l.Get(ctx, orig, hive.Latest)
	if err != nil {
		t.Fatal(err)
	}
	if rev.Address != orig || rev.Original != orig || !rev.Previous.IsZero() {
		t.Errorf("create: got address %s original %s previous %s, want %s %s zero", rev.Address, rev.Original, rev.Previous, orig, orig)
	}
	if rev.Author != agent {
		t.Errorf("create: got author %s, want %s", rev.Author, agent)
	}
	if want := hive.RevisionRef(rev.Author, rev.Timestamp, hive.Zero, rev.Entry); want != orig {
		t.Errorf("create: address %s does not match computed %s", orig, want)
	}

	u1, err := l.Update(ctx, orig, []byte("v2"))
	if err != nil {
		t.Fatal(err)
	}
	u2, err := l.Update(ctx, u1, []byte("v3"))
	if err != nil {
		t.Fatal(err)
	}

	rev2, err := l.Get(ctx, u2, hive.Latest)
	if err != nil {
		t.Fatal(err)
	}
	if rev2.Original != orig || rev2.Previous != u1 {
		t.Errorf("update: got original %s previous %s, want %s %s", rev2.Original, rev2.Previous, orig, u1)
	}
	if want := hive.RevisionRef(rev2.Author, rev2.Timestamp, u1, rev2.Entry); want != u2 {
		t.Errorf("update: address %s does not match computed %s", u2, want)
	}

	d, err := l.Details(ctx, orig, hive.Latest)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Live {
		t.Error("details: original not live")
	}
	var gotUpdates []hive.Ref
	for _, u := range d.Updates {
		gotUpdates = append(gotUpdates, u.Address)
	}
	if diff := cmp.Diff([]hive.Ref{u1, u2}, gotUpdates); diff != "" {
		t.Errorf("details: updates mismatch (-want +got):\n%s", diff)
	}

	if _, err := l.Get(ctx, hive.Ref{0xff}, hive.Latest); !errors.Is(err, hive.ErrNotFound) {
		t.Errorf("get unknown: got %v, want ErrNotFound", err)
	}
	if _, err := l.Details(ctx, hive.Ref{0xff}, hive.Latest); !errors.Is(err, hive.ErrNotFound) {
		t.Errorf("details unknown: got %v, want ErrNotFound", err)
	}
	if _, err := l.Update(ctx, hive.Ref{0xff}, []byte("x")); !errors.Is(err, hive.ErrNotFound) {
		t.Errorf("update unknown: got %v, want ErrNotFound", err)
	}
	if _, err := l.Delete(ctx, hive.Ref{0xff}); !errors.Is(err, hive.ErrNotFound) {
		t.Errorf("delete unknown: got %v, want ErrNotFound", err)
	}

	del, err := l.Delete(ctx, u2)
	if err != nil {
		t.Fatal(err)
	}
	if del.IsZero() || del == u2 {
		t.Errorf("delete: got action address %s", del)
	}
	if _, err := l.Get(ctx, u2, hive.Latest); !errors.Is(err, hive.ErrNotFound) {
		t.Errorf("get deleted: got %v, want ErrNotFound", err)
	}
	d, err = l.Details(ctx, u2, hive.Latest)
	if err != nil {
		t.Fatal(err)
	}
	if d.Live || !d.Revision.Deleted {
		t.Errorf("details deleted: got live %v deleted %v", d.Live, d.Revision.Deleted)
	}

	d, err = l.Details(ctx, orig, hive.Latest)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Updates) != 2 || !d.Updates[1].Deleted {
		t.Errorf("details after delete: got %d updates, want the second deleted", len(d.Updates))
	}
}
