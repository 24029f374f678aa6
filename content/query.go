package content

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/acl"
	"github.com/hummearth/hive/timeindex"
)

// Get returns the head revision of the item whose first revision is original.
// See WithConsistency.
func (s *Service) Get(ctx context.Context, original hive.Ref) (*hive.Record, error) {
	var (
		rev *hive.Revision
		err error
	)
	if s.consistency == Fast {
		rev, err = s.r.Hint(ctx, original)
	} else {
		rev, err = s.r.Latest(ctx, original)
	}
	if err != nil {
		return nil, err
	}
	return hive.NewRecord(rev)
}

// GetByContentID returns the head revision of the item with the given id in a hive.
// If more than one item was created with that id,
// the most recently created one wins.
func (s *Service) GetByContentID(ctx context.Context, hiveID, id string) (*hive.Record, error) {
	links, err := s.l.Links(ctx, ContentIDKey(hiveID, id).Hash(), hive.ContentID, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "looking up content id %s", id)
	}
	if len(links) == 0 {
		return nil, errors.Wrapf(hive.ErrNotFound, "content id %s", id)
	}
	newest := links[0]
	for _, link := range links[1:] {
		if !link.Timestamp.Before(newest.Timestamp) {
			newest = link
		}
	}
	return s.Get(ctx, newest.Target)
}

// GetMany returns the exact revisions named by refs, in order.
// Unlike the list calls it fails if any one is missing.
func (s *Service) GetMany(ctx context.Context, refs []hive.Ref) ([]*hive.Record, error) {
	out := make([]*hive.Record, 0, len(refs))
	for _, ref := range refs {
		rec, err := s.GetRevision(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ListByAuthor lists the revisions an author wrote of one content type,
// or of every type if contentType is empty.
func (s *Service) ListByAuthor(ctx context.Context, author, contentType string) ([]*hive.Record, error) {
	return s.list(ctx, AuthorKey(author, contentType), hive.Author)
}

// ListByHive lists the revisions of one content type in a hive.
func (s *Service) ListByHive(ctx context.Context, hiveID, contentType string) ([]*hive.Record, error) {
	return s.list(ctx, HiveKey(hiveID, contentType), hive.Hive)
}

// ListByContentID lists the items created with the given id in a hive,
// as their first revisions.
func (s *Service) ListByContentID(ctx context.Context, hiveID, id string) ([]*hive.Record, error) {
	return s.list(ctx, ContentIDKey(hiveID, id), hive.ContentID)
}

// ListByDynamicLink lists the revisions of one content type in a hive
// that were written with the given dynamic tag.
func (s *Service) ListByDynamicLink(ctx context.Context, hiveID, contentType, tag string) ([]*hive.Record, error) {
	return s.list(ctx, DynamicLinkKey(hiveID, contentType, tag), hive.DynamicLink)
}

// ACLQuery names one role's index for one entity.
type ACLQuery struct {
	HiveID      string
	ContentType string

	// Role is one of "Owner", "Admin", "Writer", or "Reader", exactly.
	Role string

	EntityID string
}

// ListByACL lists the revisions in which an entity holds a role,
// counting role inclusion:
// admins are writers and writers are readers.
// An unknown role is hive.ErrInvalidAclRole,
// reported before any lookup.
func (s *Service) ListByACL(ctx context.Context, q ACLQuery) ([]*hive.Record, error) {
	role, err := acl.ParseRole(q.Role)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, acl.Key(q.HiveID, q.ContentType, q.EntityID), role.Namespace())
}

// ListByTime lists an author's revisions of one content type
// in ascending time order,
// within the query's bounds and limit.
// The limit counts index entries.
// Deleted revisions are dropped after it is applied,
// so fewer than limit records can come back.
func (s *Service) ListByTime(ctx context.Context, q timeindex.Query) ([]*hive.Record, error) {
	entries, err := timeindex.Run(ctx, s.l, q)
	if err != nil {
		return nil, err
	}
	refs := make([]hive.Ref, 0, len(entries))
	for _, e := range entries {
		refs = append(refs, e.Ref)
	}
	return s.fetch(ctx, refs)
}

func (s *Service) list(ctx context.Context, path hive.Path, ns hive.Namespace) ([]*hive.Record, error) {
	links, err := s.l.Links(ctx, path.Hash(), ns, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "getting %s index", ns)
	}
	refs := make([]hive.Ref, 0, len(links))
	for _, link := range links {
		refs = append(refs, link.Target)
	}
	return s.fetch(ctx, refs)
}

// fetch gets the revisions at refs concurrently,
// preserving their order.
// A revision that cannot be fetched is left out:
// silently if it is gone,
// with a warning otherwise.
func (s *Service) fetch(ctx context.Context, refs []hive.Ref) ([]*hive.Record, error) {
	recs := make([]*hive.Record, len(refs))

	var g errgroup.Group
	g.SetLimit(s.fetchLimit)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			rec, err := s.GetRevision(ctx, ref)
			if errors.Is(err, hive.ErrNotFound) {
				return nil
			}
			if err != nil {
				s.log.WithField("ref", ref).WithError(err).Warn("skipping revision")
				return nil
			}
			recs[i] = rec
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*hive.Record, 0, len(recs))
	for _, rec := range recs {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}
