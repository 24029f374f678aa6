package testutil

import (
	"bytes"
	"context"
	"testing"
	"testing/quick"

	"github.com/hummearth/hive"
)

// Entries writes a random set of random entries to a ledger
// and makes sure each one comes back intact from Get.
func Entries(ctx context.Context, t *testing.T, l hive.Ledger) {
	if err := quick.Check(entriesHelper(ctx, t, l), nil); err != nil {
		t.Error(err)
	}
}

func entriesHelper(ctx context.Context, t *testing.T, l hive.Ledger) func([][]byte) bool {
	return func(entries [][]byte) bool {
		refs := make([]hive.Ref, 0, len(entries))
		for _, entry := range entries {
			ref, err := l.Create(ctx, entry)
			if err != nil {
				t.Fatal(err)
			}
			refs = append(refs, ref)
		}
		for i, ref := range refs {
			got, err := l.Get(ctx, ref, hive.Latest)
			if err != nil {
				t.Logf("getting %s: %s", ref, err)
				return false
			}
			if !bytes.Equal(got.Entry, entries[i]) {
				t.Logf("entry mismatch for %s: got %x, want %x", ref, got.Entry, entries[i])
				return false
			}
		}
		return true
	}
}
