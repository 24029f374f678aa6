// Package hive is a versioned, multi-indexed content store
// built on a replicated, content-addressed ledger.
//
// The ledger
// (anything implementing the Ledger interface)
// provides three primitives:
// append-only revisions addressed by the hash of the action that wrote them,
// a link graph keyed by hashed index paths,
// and the identity of the calling agent.
// This module adds everything needed to treat those primitives as a content store.
//
// Content is an opaque,
// already-encrypted payload
// plus a Header naming its logical id,
// its hive (group),
// its content type,
// and its access-control list.
// Every create or update produces a new Revision with a new Ref.
// The Ref of the first revision is the item's "original" address,
// and it never changes:
// it is the handle callers keep to refer to the logical item
// while its content mutates.
//
// A single write is fanned out into several secondary indexes,
// each a distinct Namespace in the link graph:
// by author,
// by hive and content type,
// by access-control role and entity,
// by content id,
// by caller-defined dynamic tag,
// and by time.
// Index entries are append-only.
// Deleting a revision leaves its index entries dangling,
// and readers silently skip them.
//
// The latest revision of an item is resolved without any central sequence number:
// the resolve package sorts the item's updates by timestamp
// with a configurable tie-break,
// and the OriginalPointer links provide a cheaper,
// advisory shortcut.
//
// Backends live under store/.
// The content package is the engine that ties it all together.
package hive
