// Package transform implements a ledger that transforms entries
// on their way into and out of a nested ledger.
//
// The nested ledger stores, and computes addresses over,
// the transformed bytes.
// Links pass through untouched.
package transform

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/store"
)

var _ hive.Ledger = &Store{}

// Store is a ledger wrapping a nested ledger and a Transformer.
type Store struct {
	hive.Ledger
	x Transformer
}

// Transformer tells how to transform an entry on its way into and out of a Store.
// Out should be the inverse of In.
type Transformer interface {
	// In transforms an entry on its way into the store.
	In(context.Context, []byte) ([]byte, error)

	// Out transforms an entry on its way out of the store.
	Out(context.Context, []byte) ([]byte, error)
}

// New produces a new Store.
func New(l hive.Ledger, x Transformer) *Store {
	return &Store{Ledger: l, x: x}
}

// Create implements hive.Ledger.
func (s *Store) Create(ctx context.Context, entry []byte) (hive.Ref, error) {
	in, err := s.x.In(ctx, entry)
	if err != nil {
		return hive.Zero, errors.Wrap(err, "transforming entry")
	}
	return s.Ledger.Create(ctx, in)
}

// Update implements hive.Ledger.
func (s *Store) Update(ctx context.Context, previous hive.Ref, entry []byte) (hive.Ref, error) {
	in, err := s.x.In(ctx, entry)
	if err != nil {
		return hive.Zero, errors.Wrap(err, "transforming entry")
	}
	return s.Ledger.Update(ctx, previous, in)
}

// Get implements hive.Ledger.
func (s *Store) Get(ctx context.Context, ref hive.Ref, f hive.Freshness) (*hive.Revision, error) {
	rev, err := s.Ledger.Get(ctx, ref, f)
	if err != nil {
		return nil, err
	}
	if err = s.out(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// Details implements hive.Ledger.
func (s *Store) Details(ctx context.Context, ref hive.Ref, f hive.Freshness) (*hive.Details, error) {
	d, err := s.Ledger.Details(ctx, ref, f)
	if err != nil {
		return nil, err
	}
	if err = s.out(ctx, &d.Revision); err != nil {
		return nil, err
	}
	for i := range d.Updates {
		if err = s.out(ctx, &d.Updates[i]); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (s *Store) out(ctx context.Context, rev *hive.Revision) error {
	entry, err := s.x.Out(ctx, rev.Entry)
	if err != nil {
		return errors.Wrapf(err, "untransforming entry of %s", rev.Address)
	}
	rev.Entry = entry
	return nil
}

func init() {
	store.Register("transform", func(ctx context.Context, conf map[string]interface{}) (hive.Ledger, error) {
		x, err := transformer(conf)
		if err != nil {
			return nil, err
		}
		nested, err := store.Nested(ctx, conf)
		if err != nil {
			return nil, err
		}
		return New(nested, x), nil
	})
}

func transformer(conf map[string]interface{}) (Transformer, error) {
	name, ok := conf["transformer"].(string)
	if !ok {
		return nil, errors.New(`missing "transformer" parameter`)
	}
	switch name {
	case "lzw":
		return LZW{Order: LSB}, nil

	case "flate":
		level := -1
		if l, ok := conf["level"].(float64); ok {
			level = int(l)
		}
		return Flate{Level: level}, nil

	default:
		return nil, fmt.Errorf(`unknown transformer "%s"`, name)
	}
}
