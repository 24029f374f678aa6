package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/store/mem"
)

var t0 = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

func rev(addr byte, secs int) hive.Revision {
	return hive.Revision{Address: hive.Ref{addr}, Original: hive.Ref{0xff}, Timestamp: t0.Add(time.Duration(secs) * time.Second)}
}

func TestHead(t *testing.T) {
	orig := hive.Revision{Address: hive.Ref{0xff}, Original: hive.Ref{0xff}, Timestamp: t0}

	deleted := rev(3, 30)
	deleted.Deleted = true

	cases := []struct {
		updates []hive.Revision
		live    bool
		cmp     Comparator
		want    hive.Ref
		wantErr error
	}{
		{live: true, cmp: ByTimestamp, want: orig.Address},
		{live: false, cmp: ByTimestamp, wantErr: hive.ErrNotFound},
		{updates: []hive.Revision{rev(1, 10), rev(2, 20)}, live: true, cmp: ByTimestamp, want: hive.Ref{2}},
		{updates: []hive.Revision{rev(2, 20), rev(1, 10)}, live: true, cmp: ByTimestamp, want: hive.Ref{2}},
		{updates: []hive.Revision{rev(1, 10), rev(2, 20), rev(3, 5)}, live: true, cmp: ByTimestamp, want: hive.Ref{2}},

		// Ties.
		{updates: []hive.Revision{rev(2, 10), rev(1, 10)}, live: true, cmp: ByTimestamp, want: hive.Ref{1}},
		{updates: []hive.Revision{rev(1, 10), rev(2, 10)}, live: true, cmp: ByTimestamp, want: hive.Ref{2}},
		{updates: []hive.Revision{rev(2, 10), rev(1, 10)}, live: true, cmp: ByTimestampThenAddress, want: hive.Ref{2}},
		{updates: []hive.Revision{rev(1, 10), rev(2, 10)}, live: true, cmp: ByTimestampThenAddress, want: hive.Ref{2}},

		// A deleted head withdraws the item.
		{updates: []hive.Revision{rev(1, 10), deleted}, live: true, cmp: ByTimestamp, wantErr: hive.ErrNotFound},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%02d", i+1), func(t *testing.T) {
			d := &hive.Details{Revision: orig, Updates: c.updates, Live: c.live}
			before := fmt.Sprint(d.Updates)

			got, err := Head(d, c.cmp)
			if c.wantErr != nil {
				if !errors.Is(err, c.wantErr) {
					t.Fatalf("got error %v, want %v", err, c.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.Address != c.want {
				t.Errorf("got %s, want %s", got.Address, c.want)
			}
			if after := fmt.Sprint(d.Updates); after != before {
				t.Error("Head reordered its input")
			}

			// Same input, same answer.
			again, err := Head(d, c.cmp)
			if err != nil {
				t.Fatal(err)
			}
			if again.Address != got.Address {
				t.Errorf("second call got %s, first got %s", again.Address, got.Address)
			}
		})
	}
}

func TestLatest(t *testing.T) {
	ctx := context.Background()
	l := mem.New()
	r := New(l, nil, hive.Latest)

	orig, err := l.Create(ctx, []byte("v1"))
	if err != nil {
		t.Fatal(err)
	}
	u1, err := l.Update(ctx, orig, []byte("v2"))
	if err != nil {
		t.Fatal(err)
	}
	u2, err := l.Update(ctx, u1, []byte("v3"))
	if err != nil {
		t.Fatal(err)
	}

	for _, ref := range []hive.Ref{orig, u1, u2} {
		got, err := r.Latest(ctx, ref)
		if err != nil {
			t.Fatal(err)
		}
		if got.Address != u2 {
			t.Errorf("Latest(%s) = %s, want %s", ref, got.Address, u2)
		}
	}

	if _, err := r.Latest(ctx, hive.Ref{1}); !errors.Is(err, hive.ErrNotFound) {
		t.Errorf("unknown ref: got %v, want ErrNotFound", err)
	}

	if _, err := l.Delete(ctx, u2); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Latest(ctx, orig); !errors.Is(err, hive.ErrNotFound) {
		t.Errorf("deleted head: got %v, want ErrNotFound", err)
	}
}

func TestHint(t *testing.T) {
	ctx := context.Background()
	l := mem.New()
	r := New(l, nil, hive.Latest)

	orig, err := l.Create(ctx, []byte("v1"))
	if err != nil {
		t.Fatal(err)
	}

	// No pointer yet: falls back to Latest.
	got, err := r.Hint(ctx, orig)
	if err != nil {
		t.Fatal(err)
	}
	if got.Address != orig {
		t.Errorf("got %s, want %s", got.Address, orig)
	}

	u1, err := l.Update(ctx, orig, []byte("v2"))
	if err != nil {
		t.Fatal(err)
	}
	u2, err := l.Update(ctx, u1, []byte("v3"))
	if err != nil {
		t.Fatal(err)
	}

	// The pointer lags behind the head.
	base := PointerKey(orig).Hash()
	for _, target := range []hive.Ref{orig, u1} {
		if _, err := l.CreateLink(ctx, base, target, hive.Original, nil); err != nil {
			t.Fatal(err)
		}
	}
	got, err = r.Hint(ctx, orig)
	if err != nil {
		t.Fatal(err)
	}
	if got.Address != u1 {
		t.Errorf("got %s, want pointer target %s", got.Address, u1)
	}

	// A pointer to a deleted revision falls back to Latest.
	if _, err := l.Delete(ctx, u1); err != nil {
		t.Fatal(err)
	}
	got, err = r.Hint(ctx, orig)
	if err != nil {
		t.Fatal(err)
	}
	if got.Address != u2 {
		t.Errorf("got %s, want head %s", got.Address, u2)
	}

	if _, err := l.Delete(ctx, orig); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Hint(ctx, orig); !errors.Is(err, hive.ErrNotFound) {
		t.Errorf("deleted original: got %v, want ErrNotFound", err)
	}
}
