// Package lru implements a ledger that acts as a least-recently-used cache for a nested ledger.
package lru

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/store"
)

var _ hive.Ledger = &Store{}

// Store implements a memory-based least-recently-used cache for a ledger.
// At present it caches only revisions, not details or links.
// Only reads at hive.Cached freshness are answered from the cache;
// reads at hive.Latest go to the nested ledger and refresh the cache.
// Writes pass through to the nested ledger.
type Store struct {
	c *lru.Cache // Ref->hive.Revision
	hive.Ledger
}

// New produces a new Store backed by l and caching up to size revisions.
func New(l hive.Ledger, size int) (*Store, error) {
	c, err := lru.New(size)
	return &Store{Ledger: l, c: c}, err
}

// Get implements hive.Ledger.
func (s *Store) Get(ctx context.Context, ref hive.Ref, f hive.Freshness) (*hive.Revision, error) {
	if f == hive.Cached {
		if got, ok := s.c.Get(ref); ok {
			rev := got.(hive.Revision)
			return &rev, nil
		}
	}
	rev, err := s.Ledger.Get(ctx, ref, f)
	if err != nil {
		if errors.Is(err, hive.ErrNotFound) {
			s.c.Remove(ref)
		}
		return nil, err
	}
	s.c.Add(ref, *rev)
	return rev, nil
}

// Delete implements hive.Ledger.
func (s *Store) Delete(ctx context.Context, ref hive.Ref) (hive.Ref, error) {
	s.c.Remove(ref)
	return s.Ledger.Delete(ctx, ref)
}

func init() {
	store.Register("lru", func(ctx context.Context, conf map[string]interface{}) (hive.Ledger, error) {
		var size int
		switch v := conf["size"].(type) {
		case int:
			size = v
		case float64:
			size = int(v)
		default:
			return nil, errors.New(`missing "size" parameter`)
		}
		nested, err := store.Nested(ctx, conf)
		if err != nil {
			return nil, err
		}
		return New(nested, size)
	})
}
