// Package timeindex keeps a chronological index of revisions
// per author and content type,
// and answers bounded range queries against it.
//
// Entries are links in the hive.Time namespace.
// Each link's tag holds the revision's timestamp,
// so a query filters and orders entries without fetching any revisions.
package timeindex

import (
	"context"
	"encoding/binary"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/hummearth/hive"
)

// Entry is one indexed revision.
type Entry struct {
	At  time.Time
	Ref hive.Ref
}

// Writer is the part of hive.Ledger that Append needs.
type Writer interface {
	CreateLink(ctx context.Context, base hive.KeyHash, target hive.Ref, ns hive.Namespace, tag []byte) (hive.Ref, error)
}

// Reader is the part of hive.Ledger that Query needs.
type Reader interface {
	Links(ctx context.Context, base hive.KeyHash, ns hive.Namespace, tagPrefix []byte) ([]hive.Link, error)
}

// Key is the index path for an author's content of one type.
func Key(author, contentType string) hive.Path {
	return hive.Path{author, contentType}
}

// TagLen is the length of an encoded tag.
const TagLen = 8

// Tag encodes a timestamp as a link tag:
// big-endian unix nanoseconds.
func Tag(at time.Time) []byte {
	var b [TagLen]byte
	binary.BigEndian.PutUint64(b[:], uint64(at.UnixNano()))
	return b[:]
}

// ParseTag decodes a link tag produced by Tag.
func ParseTag(tag []byte) (time.Time, error) {
	if len(tag) != TagLen {
		return time.Time{}, errors.Errorf("time tag has length %d, want %d", len(tag), TagLen)
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(tag))), nil
}

// Append indexes ref under (author, contentType) at the given time.
func Append(ctx context.Context, w Writer, author, contentType string, ref hive.Ref, at time.Time) error {
	_, err := w.CreateLink(ctx, Key(author, contentType).Hash(), ref, hive.Time, Tag(at))
	return errors.Wrapf(err, "appending %s to time index of %s/%s", ref, author, contentType)
}

// Query selects entries from one (author, content type) index.
type Query struct {
	Author      string
	ContentType string

	// Start and End bound the query, inclusively.
	// A nil bound leaves that side open.
	Start, End *time.Time

	// Limit, if positive, caps the number of entries returned.
	Limit int
}

// Run runs q against r.
// See Select for the ordering and truncation rules.
func Run(ctx context.Context, r Reader, q Query) ([]Entry, error) {
	links, err := r.Links(ctx, Key(q.Author, q.ContentType).Hash(), hive.Time, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "getting time index of %s/%s", q.Author, q.ContentType)
	}
	entries := make([]Entry, 0, len(links))
	for _, link := range links {
		at, err := ParseTag(link.Tag)
		if err != nil {
			// Not written by Append.
			continue
		}
		entries = append(entries, Entry{At: at, Ref: link.Target})
	}
	return Select(entries, q.Start, q.End, q.Limit), nil
}

// Select returns the entries whose time lies within [start, end],
// sorted oldest first.
// Entries with equal times keep their relative order.
// A positive limit keeps only the oldest limit entries.
// The input slice is not modified.
func Select(entries []Entry, start, end *time.Time, limit int) []Entry {
	var out []Entry
	for _, e := range entries {
		if start != nil && e.At.Before(*start) {
			continue
		}
		if end != nil && e.At.After(*end) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.Before(out[j].At)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
