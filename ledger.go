package hive

import (
	"context"
	"time"
)

// Freshness tells a Ledger how current a read must be.
type Freshness int

const (
	// Latest asks the ledger for the most current view it can get.
	Latest Freshness = iota

	// Cached lets the ledger answer from whatever it already holds.
	Cached
)

// Revision is a revision action as recorded by a Ledger.
type Revision struct {
	Address  Ref
	Original Ref // equal to Address for a create
	Previous Ref // Zero for a create

	Author    string
	Timestamp time.Time
	Entry     []byte

	// Deleted is set when a delete action has targeted this revision.
	// Ledger.Get never returns deleted revisions;
	// Ledger.Details does, with this flag set.
	Deleted bool
}

// Details is everything a Ledger knows about one original revision
// and the revisions that update it.
type Details struct {
	Revision Revision

	// Updates are the revisions whose Original is Revision.Address,
	// in the order the ledger received them.
	// That order may differ from peer to peer.
	Updates []Revision

	// Live is false once Revision has been deleted.
	Live bool
}

// Link is one edge in the ledger's link graph.
type Link struct {
	Address   Ref
	Base      KeyHash
	Target    Ref
	Namespace Namespace
	Tag       []byte
	Author    string
	Timestamp time.Time
}

// Ledger is the replicated storage platform underneath the content store.
// Implementations live in the subpackages of store/.
//
// Every method must be safe for concurrent use.
// A Ledger is a view of shared state as seen by one agent:
// writes are authored by that agent.
type Ledger interface {
	// Agent returns the identity of the agent this Ledger acts for.
	Agent(context.Context) (string, error)

	// Create records a new revision and returns its address.
	Create(ctx context.Context, entry []byte) (Ref, error)

	// Update records a revision superseding previous.
	// The new revision inherits previous's Original.
	// It is ErrNotFound if previous does not exist.
	Update(ctx context.Context, previous Ref, entry []byte) (Ref, error)

	// Get returns the revision at ref.
	// It is ErrNotFound if there is none or it has been deleted.
	Get(ctx context.Context, ref Ref, f Freshness) (*Revision, error)

	// Details returns the revision at ref
	// together with every revision updating it.
	// It is ErrNotFound only if ref was never recorded.
	Details(ctx context.Context, ref Ref, f Freshness) (*Details, error)

	// Delete marks the revision at ref deleted
	// and returns the address of the delete action.
	Delete(ctx context.Context, ref Ref) (Ref, error)

	// CreateLink adds an edge from base to target in the given namespace.
	// Links are never removed.
	CreateLink(ctx context.Context, base KeyHash, target Ref, ns Namespace, tag []byte) (Ref, error)

	// Links returns the links from base in the given namespace
	// whose tag begins with tagPrefix,
	// in the order the ledger received them.
	Links(ctx context.Context, base KeyHash, ns Namespace, tagPrefix []byte) ([]Link, error)
}
