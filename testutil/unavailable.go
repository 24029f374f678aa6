package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/hummearth/hive"
)

// Unavailable checks that every storage call on l fails with hive.ErrStoreUnavailable.
// Call it after l's storage has gone away.
// Ref should name a revision written while the storage was still up.
func Unavailable(ctx context.Context, t *testing.T, l hive.Ledger, ref hive.Ref) {
	base := hive.Path{"unavailable"}.Hash()

	cases := []struct {
		name string
		call func() error
	}{{
		name: "Create",
		call: func() error {
			_, err := l.Create(ctx, []byte("x"))
			return err
		},
	}, {
		name: "Update",
		call: func() error {
			_, err := l.Update(ctx, ref, []byte("y"))
			return err
		},
	}, {
		name: "Get",
		call: func() error {
			_, err := l.Get(ctx, ref, hive.Latest)
			return err
		},
	}, {
		name: "Details",
		call: func() error {
			_, err := l.Details(ctx, ref, hive.Latest)
			return err
		},
	}, {
		name: "Delete",
		call: func() error {
			_, err := l.Delete(ctx, ref)
			return err
		},
	}, {
		name: "CreateLink",
		call: func() error {
			_, err := l.CreateLink(ctx, base, ref, hive.ContentID, nil)
			return err
		},
	}, {
		name: "Links",
		call: func() error {
			_, err := l.Links(ctx, base, hive.ContentID, nil)
			return err
		},
	}}

	for _, c := range cases {
		if err := c.call(); !errors.Is(err, hive.ErrStoreUnavailable) {
			t.Errorf("%s: got error %v, want %v", c.name, err, hive.ErrStoreUnavailable)
		}
	}
}
