package hive

import (
	"context"
	"fmt"
	"time"
)

// Entity is a principal named in an access-control list.
// Entities are opaque:
// nothing here checks that one exists or who it is.
// Only the ID takes part in indexing.
type Entity struct {
	ID   string `json:"id"`
	Type string `json:"entity_type,omitempty"`
}

// ACL is the access-control list of a content item.
// The roles nest:
// every admin is also a writer,
// and every writer is also a reader.
// See package acl for the expansion.
type ACL struct {
	Owner  Entity   `json:"owner"`
	Admin  []Entity `json:"admin,omitempty"`
	Writer []Entity `json:"writer,omitempty"`
	Reader []Entity `json:"reader,omitempty"`
}

// Header is the metadata embedded in every revision of a content item.
type Header struct {
	// ID is the caller's stable, application-level id for the logical item.
	ID string `json:"id"`

	// HiveID is the group the content belongs to.
	// The empty string is the hive of group-less content.
	HiveID string `json:"hive_id"`

	ContentType string `json:"content_type"`
	ACL         ACL    `json:"acl"`

	// RevisionKey optionally names the key that signs revisions of this item.
	RevisionKey string `json:"revision_key,omitempty"`
}

// Content is one revision's entry: a header plus opaque payload bytes.
type Content struct {
	Header Header `json:"header"`
	Bytes  []byte `json:"bytes"`
}

// Record is a decoded revision as returned to callers.
type Record struct {
	Content Content `json:"content"`

	// Address is the Ref of this revision.
	Address Ref `json:"address"`

	// Original is the Ref of the item's first revision.
	// It is the same for every revision of the item.
	Original Ref `json:"original"`

	// Previous is the revision this one superseded.
	// It is Zero for the first revision.
	Previous Ref `json:"previous,omitempty"`

	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecord decodes rev's entry into a Record.
func NewRecord(rev *Revision) (*Record, error) {
	c, err := DecodeContent(rev.Entry)
	if err != nil {
		return nil, err
	}
	return &Record{
		Content:   *c,
		Address:   rev.Address,
		Original:  rev.Original,
		Previous:  rev.Previous,
		Author:    rev.Author,
		Timestamp: rev.Timestamp,
	}, nil
}

// Op is the kind of change reported in an Event.
type Op int

// The change operations.
const (
	OpCreate Op = iota + 1
	OpUpdate
	OpDelete
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Event describes one change to the store.
type Event struct {
	Op Op

	// Address is the revision that was created, updated to, or deleted.
	Address Ref

	// Record is the resulting snapshot.
	// For a delete it is the snapshot just before deletion,
	// or nil if that could not be fetched.
	Record *Record
}

// Broadcaster delivers change events to whoever may be listening.
// Delivery is best-effort and at most once.
// Callers never learn whether anyone received an event.
type Broadcaster interface {
	Broadcast(context.Context, Event)
}
