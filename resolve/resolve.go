// Package resolve determines the head revision of a logical content item.
package resolve

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/hummearth/hive"
)

// Comparator orders two revisions.
// It returns a negative number if a sorts before b,
// a positive number if after,
// and zero if the two are tied.
// The head is the revision that sorts last.
type Comparator func(a, b *hive.Revision) int

// ByTimestamp orders revisions by timestamp alone.
// Tied revisions keep the order in which the ledger returned them,
// so the later arrival wins.
// That order can differ between peers.
func ByTimestamp(a, b *hive.Revision) int {
	switch {
	case a.Timestamp.Before(b.Timestamp):
		return -1
	case a.Timestamp.After(b.Timestamp):
		return 1
	}
	return 0
}

// ByTimestampThenAddress orders revisions by timestamp,
// breaking ties by address.
// Every peer holding the same set of revisions picks the same head.
func ByTimestampThenAddress(a, b *hive.Revision) int {
	if c := ByTimestamp(a, b); c != 0 {
		return c
	}
	switch {
	case a.Address.Less(b.Address):
		return -1
	case b.Address.Less(a.Address):
		return 1
	}
	return 0
}

// Head picks the head revision out of d.
//
// If the original has been deleted,
// or the head itself has been,
// the item is gone and the result is hive.ErrNotFound.
// With no updates the original is the head.
// Otherwise the updates are stably sorted with cmp
// and the last one wins.
// Head does not modify d.
func Head(d *hive.Details, cmp Comparator) (*hive.Revision, error) {
	if !d.Live || d.Revision.Deleted {
		return nil, errors.Wrapf(hive.ErrNotFound, "item %s was deleted", d.Revision.Address)
	}
	if len(d.Updates) == 0 {
		rev := d.Revision
		return &rev, nil
	}

	updates := make([]*hive.Revision, 0, len(d.Updates))
	for i := range d.Updates {
		updates = append(updates, &d.Updates[i])
	}
	sort.SliceStable(updates, func(i, j int) bool {
		return cmp(updates[i], updates[j]) < 0
	})

	head := *updates[len(updates)-1]
	if head.Deleted {
		return nil, errors.Wrapf(hive.ErrNotFound, "head %s of item %s was deleted", head.Address, d.Revision.Address)
	}
	return &head, nil
}

// Resolver finds head revisions using a Ledger.
type Resolver struct {
	l   hive.Ledger
	cmp Comparator
	f   hive.Freshness
}

// New produces a Resolver.
// A nil cmp means ByTimestamp.
func New(l hive.Ledger, cmp Comparator, f hive.Freshness) *Resolver {
	if cmp == nil {
		cmp = ByTimestamp
	}
	return &Resolver{l: l, cmp: cmp, f: f}
}

// Latest resolves the head of the item that ref belongs to
// by examining the item's full update set.
// Ref may be the original or any later revision.
func (r *Resolver) Latest(ctx context.Context, ref hive.Ref) (*hive.Revision, error) {
	d, err := r.l.Details(ctx, ref, r.f)
	if err != nil {
		return nil, errors.Wrapf(err, "getting details of %s", ref)
	}
	if orig := d.Revision.Original; !orig.IsZero() && orig != ref {
		d, err = r.l.Details(ctx, orig, r.f)
		if err != nil {
			return nil, errors.Wrapf(err, "getting details of original %s", orig)
		}
	}
	return Head(d, r.cmp)
}

// PointerKey is the index path of the head pointer for an original.
func PointerKey(original hive.Ref) hive.Path {
	return hive.Path{original.String()}
}

// Hint resolves the head through the original's head pointer:
// the most recently written link in the hive.Original namespace.
// The pointer is only advisory,
// since concurrent updates race to write it.
// When there is no pointer,
// or its target no longer resolves,
// Hint falls back to Latest.
func (r *Resolver) Hint(ctx context.Context, original hive.Ref) (*hive.Revision, error) {
	links, err := r.l.Links(ctx, PointerKey(original).Hash(), hive.Original, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "getting head pointer of %s", original)
	}
	if len(links) == 0 {
		return r.Latest(ctx, original)
	}

	newest := links[0]
	for _, link := range links[1:] {
		if !link.Timestamp.Before(newest.Timestamp) {
			newest = link
		}
	}

	rev, err := r.l.Get(ctx, newest.Target, r.f)
	if errors.Is(err, hive.ErrNotFound) {
		return r.Latest(ctx, original)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting head %s of %s", newest.Target, original)
	}
	if rev.Address != original {
		// A deleted original ends the item no matter where the pointer leads.
		if _, err := r.l.Get(ctx, original, r.f); err != nil {
			return nil, errors.Wrapf(err, "getting original %s", original)
		}
	}
	return rev, nil
}
