// Package content is the versioned, multi-indexed content store.
//
// A Service writes each content revision to a hive.Ledger
// and fans it out into the secondary indexes it belongs to:
// by author, by hive and type, by ACL role, by content id,
// by dynamic tag, and by time.
// Reads resolve those indexes back to records,
// and resolve a logical item to its head revision.
package content

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/notify"
	"github.com/hummearth/hive/resolve"
)

// Consistency selects how Get finds the head of an item.
type Consistency int

const (
	// Strong resolves the head from the item's full update set.
	Strong Consistency = iota

	// Fast follows the item's head pointer,
	// falling back to Strong resolution when there is none.
	// Concurrent updates may leave the pointer at a revision other than the head.
	Fast
)

// DefaultFetchLimit is the default bound on concurrent revision fetches in one list call.
const DefaultFetchLimit = 8

// Service is the content store.
// It holds only configuration
// and is safe for concurrent use if its Ledger and Broadcaster are.
type Service struct {
	l           hive.Ledger
	log         logrus.FieldLogger
	b           hive.Broadcaster
	cmp         resolve.Comparator
	consistency Consistency
	f           hive.Freshness
	fetchLimit  int
	r           *resolve.Resolver
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
// The default is the standard logrus logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// WithBroadcaster sets where change events go.
// The default discards them.
func WithBroadcaster(b hive.Broadcaster) Option {
	return func(s *Service) { s.b = b }
}

// WithComparator sets the ordering used to pick the head among an item's updates.
// The default is resolve.ByTimestamp.
func WithComparator(cmp resolve.Comparator) Option {
	return func(s *Service) { s.cmp = cmp }
}

// WithConsistency sets how Get finds heads.
// The default is Strong.
func WithConsistency(c Consistency) Option {
	return func(s *Service) { s.consistency = c }
}

// WithFreshness sets the freshness of ledger reads.
// The default is hive.Latest.
func WithFreshness(f hive.Freshness) Option {
	return func(s *Service) { s.f = f }
}

// WithFetchLimit bounds the concurrent revision fetches of one list call.
// Values below 1 mean DefaultFetchLimit.
func WithFetchLimit(n int) Option {
	return func(s *Service) { s.fetchLimit = n }
}

// New produces a Service storing content in l.
func New(l hive.Ledger, opts ...Option) *Service {
	s := &Service{
		l:   l,
		log: logrus.StandardLogger(),
		b:   notify.Discard,
		cmp: resolve.ByTimestamp,
		f:   hive.Latest,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetchLimit < 1 {
		s.fetchLimit = DefaultFetchLimit
	}
	s.r = resolve.New(l, s.cmp, s.f)
	return s
}

// Ledger returns the ledger s writes to.
func (s *Service) Ledger() hive.Ledger {
	return s.l
}

// CreateRevision records c as the first revision of a new item.
func (s *Service) CreateRevision(ctx context.Context, c hive.Content) (hive.Ref, error) {
	ref, err := s.l.Create(ctx, hive.EncodeContent(&c))
	return ref, errors.Wrap(err, "creating revision")
}

// UpdateRevision records c as a revision superseding previous.
func (s *Service) UpdateRevision(ctx context.Context, previous hive.Ref, c hive.Content) (hive.Ref, error) {
	ref, err := s.l.Update(ctx, previous, hive.EncodeContent(&c))
	return ref, errors.Wrapf(err, "updating revision %s", previous)
}

// GetRevision fetches and decodes the revision at ref.
// It is hive.ErrNotFound if there is none or it has been deleted.
func (s *Service) GetRevision(ctx context.Context, ref hive.Ref) (*hive.Record, error) {
	rev, err := s.l.Get(ctx, ref, s.f)
	if err != nil {
		return nil, errors.Wrapf(err, "getting revision %s", ref)
	}
	rec, err := hive.NewRecord(rev)
	return rec, errors.Wrapf(err, "decoding revision %s", ref)
}

// GetRevisionDetails fetches every revision recorded against ref,
// with liveness.
func (s *Service) GetRevisionDetails(ctx context.Context, ref hive.Ref) (*hive.Details, error) {
	d, err := s.l.Details(ctx, ref, s.f)
	return d, errors.Wrapf(err, "getting details of %s", ref)
}

// DeleteRevision deletes the revision at ref
// and returns the address of the delete acknowledgement.
func (s *Service) DeleteRevision(ctx context.Context, ref hive.Ref) (hive.Ref, error) {
	del, err := s.l.Delete(ctx, ref)
	return del, errors.Wrapf(err, "deleting revision %s", ref)
}
