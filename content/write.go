package content

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/acl"
	"github.com/hummearth/hive/resolve"
	"github.com/hummearth/hive/timeindex"
)

// CreateInput describes a new content item.
type CreateInput struct {
	ID          string
	HiveID      string
	ContentType string
	Bytes       []byte
	ACL         hive.ACL
	RevisionKey string

	// DynamicLinks are caller-defined tags
	// under which the item can be found with ListByDynamicLink.
	DynamicLinks []string
}

// UpdateInput describes a new revision of an existing item.
type UpdateInput struct {
	// Previous is the revision being superseded.
	Previous hive.Ref

	Content      hive.Content
	DynamicLinks []string
}

// AuthorKey is the index path of an author's items of one type.
// An empty contentType gives the path of all the author's items.
func AuthorKey(author, contentType string) hive.Path {
	if contentType == "" {
		return hive.Path{author}
	}
	return hive.Path{author, contentType}
}

// HiveKey is the index path of a hive's items of one type.
func HiveKey(hiveID, contentType string) hive.Path {
	return hive.Path{hiveID, contentType}
}

// ContentIDKey is the index path of the item with a given id in a hive.
func ContentIDKey(hiveID, id string) hive.Path {
	return hive.Path{hiveID, id}
}

// DynamicLinkKey is the index path of a hive's items of one type carrying tag.
func DynamicLinkKey(hiveID, contentType, tag string) hive.Path {
	return hive.Path{hiveID, contentType, tag}
}

type indexEntry struct {
	ns     hive.Namespace
	path   hive.Path
	target hive.Ref
	tag    []byte
}

// indexPlan lists the index entries for rec.
// The content-id entry names the logical item,
// so only the first revision gets one.
func indexPlan(rec *hive.Record, dynamicLinks []string) []indexEntry {
	var (
		h      = &rec.Content.Header
		target = rec.Address
	)

	plan := []indexEntry{
		{ns: hive.Author, path: AuthorKey(rec.Author, h.ContentType), target: target},
		{ns: hive.Hive, path: HiveKey(h.HiveID, h.ContentType), target: target},
	}
	if h.ContentType != "" {
		plan = append(plan, indexEntry{ns: hive.Author, path: AuthorKey(rec.Author, ""), target: target})
	}

	for _, g := range acl.Expand(h.ACL) {
		for _, e := range g.Entities {
			plan = append(plan, indexEntry{ns: g.Role.Namespace(), path: acl.Key(h.HiveID, h.ContentType, e.ID), target: target})
		}
	}

	if rec.Previous.IsZero() {
		plan = append(plan, indexEntry{ns: hive.ContentID, path: ContentIDKey(h.HiveID, h.ID), target: rec.Original})
	}

	seen := make(map[string]bool)
	for _, tag := range dynamicLinks {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		plan = append(plan, indexEntry{ns: hive.DynamicLink, path: DynamicLinkKey(h.HiveID, h.ContentType, tag), target: target})
	}

	plan = append(plan,
		indexEntry{ns: hive.Time, path: timeindex.Key(rec.Author, h.ContentType), target: target, tag: timeindex.Tag(rec.Timestamp)},
		indexEntry{ns: hive.Original, path: resolve.PointerKey(rec.Original), target: target},
	)
	return plan
}

// writeIndex writes every entry in plan, in order.
// A failed write does not stop the others.
// The failures come back as a *hive.IndexError.
func (s *Service) writeIndex(ctx context.Context, target hive.Ref, plan []indexEntry) error {
	var failures []hive.IndexFailure
	for _, e := range plan {
		_, err := s.l.CreateLink(ctx, e.path.Hash(), e.target, e.ns, e.tag)
		if err != nil {
			s.log.WithFields(logrus.Fields{"ns": e.ns, "target": e.target}).WithError(err).Warn("index write failed")
			failures = append(failures, hive.IndexFailure{
				Namespace: e.ns,
				Path:      e.path,
				Target:    e.target,
				Tag:       e.tag,
				Err:       err,
			})
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &hive.IndexError{Target: target, Failures: failures}
}

// RetryIndex re-issues the index entries that failed in e.
// It returns a new *hive.IndexError for any that fail again.
func (s *Service) RetryIndex(ctx context.Context, e *hive.IndexError) error {
	plan := make([]indexEntry, 0, len(e.Failures))
	for _, f := range e.Failures {
		plan = append(plan, indexEntry{ns: f.Namespace, path: f.Path, target: f.Target, tag: f.Tag})
	}
	return s.writeIndex(ctx, e.Target, plan)
}

// written fetches a just-written revision and indexes it.
func (s *Service) written(ctx context.Context, op hive.Op, ref hive.Ref, dynamicLinks []string) (*hive.Record, error) {
	// The ledger assigns author and timestamp,
	// and both are part of the index.
	rec, err := s.getWritten(ctx, ref)
	if err != nil {
		return nil, err
	}

	idxErr := s.writeIndex(ctx, ref, indexPlan(rec, dynamicLinks))

	s.b.Broadcast(ctx, hive.Event{Op: op, Address: ref, Record: rec})

	if idxErr != nil {
		return rec, idxErr
	}
	return rec, nil
}

func (s *Service) getWritten(ctx context.Context, ref hive.Ref) (*hive.Record, error) {
	rev, err := s.l.Get(ctx, ref, hive.Latest)
	if err != nil {
		return nil, errors.Wrapf(err, "reading back revision %s", ref)
	}
	return hive.NewRecord(rev)
}

// Create stores a new content item and indexes it.
//
// If the item is stored but some index entries cannot be written,
// Create returns the record together with a *hive.IndexError.
// The item is not rolled back;
// pass the error to RetryIndex to finish indexing.
func (s *Service) Create(ctx context.Context, in CreateInput) (*hive.Record, error) {
	c := hive.Content{
		Header: hive.Header{
			ID:          in.ID,
			HiveID:      in.HiveID,
			ContentType: in.ContentType,
			ACL:         in.ACL,
			RevisionKey: in.RevisionKey,
		},
		Bytes: in.Bytes,
	}
	ref, err := s.CreateRevision(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.written(ctx, hive.OpCreate, ref, in.DynamicLinks)
}

// Update stores a new revision of an item and indexes it.
// The record's Original is the item's first revision,
// not the new one.
// Partial index failure is reported as for Create.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*hive.Record, error) {
	ref, err := s.UpdateRevision(ctx, in.Previous, in.Content)
	if err != nil {
		return nil, err
	}
	return s.written(ctx, hive.OpUpdate, ref, in.DynamicLinks)
}

// Delete deletes the revision at current
// and returns the address of the delete acknowledgement.
// Index entries pointing at the revision are left in place.
// Lists skip them.
func (s *Service) Delete(ctx context.Context, current hive.Ref) (hive.Ref, error) {
	snapshot, err := s.GetRevision(ctx, current)
	if err != nil && !errors.Is(err, hive.ErrNotFound) {
		s.log.WithField("ref", current).WithError(err).Warn("fetching snapshot before delete")
	}

	del, err := s.DeleteRevision(ctx, current)
	if err != nil {
		return hive.Zero, err
	}

	s.b.Broadcast(ctx, hive.Event{Op: hive.OpDelete, Address: current, Record: snapshot})
	return del, nil
}
