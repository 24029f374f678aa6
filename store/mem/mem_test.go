package mem

import (
	"context"
	"testing"
	"time"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/store"
	"github.com/hummearth/hive/testutil"
)

func TestLedger(t *testing.T) {
	testutil.Ledger(context.Background(), t, New())
}

func TestSharedNetwork(t *testing.T) {
	ctx := context.Background()

	fixed := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	alice := New(WithAgent("alice"), WithClock(func() time.Time { return fixed }))
	bob := alice.As("bob")

	ref, err := alice.Create(ctx, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	u1, err := alice.Update(ctx, ref, []byte("from alice"))
	if err != nil {
		t.Fatal(err)
	}
	u2, err := bob.Update(ctx, ref, []byte("from bob"))
	if err != nil {
		t.Fatal(err)
	}

	d, err := bob.Details(ctx, ref, hive.Latest)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(d.Updates))
	}
	if d.Updates[0].Address != u1 || d.Updates[1].Address != u2 {
		t.Errorf("updates out of arrival order")
	}
	if d.Updates[0].Author != "alice" || d.Updates[1].Author != "bob" {
		t.Errorf("got authors %s and %s", d.Updates[0].Author, d.Updates[1].Author)
	}

	// Alice's clock is stuck, so her second action is bumped by a nanosecond.
	// Bob's first action is not.
	if !d.Updates[0].Timestamp.Equal(fixed.Add(time.Nanosecond)) {
		t.Errorf("got alice update time %s", d.Updates[0].Timestamp)
	}
	if !d.Updates[1].Timestamp.Equal(fixed) {
		t.Errorf("got bob update time %s", d.Updates[1].Timestamp)
	}

	// Another Store acting for alice shares her clock.
	alice2 := bob.As("alice", WithClock(func() time.Time { return fixed.Add(-time.Hour) }))
	u3, err := alice2.Update(ctx, u1, []byte("alice again"))
	if err != nil {
		t.Fatal(err)
	}
	rev, err := alice.Get(ctx, u3, hive.Latest)
	if err != nil {
		t.Fatal(err)
	}
	if want := fixed.Add(2 * time.Nanosecond); !rev.Timestamp.Equal(want) || rev.Timestamp.Location() != time.UTC {
		t.Errorf("got alice time %s, want %s", rev.Timestamp, want)
	}
}

func TestRegistry(t *testing.T) {
	l, err := store.Create(context.Background(), "mem", map[string]interface{}{"agent": "carol"})
	if err != nil {
		t.Fatal(err)
	}
	agent, err := l.Agent(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if agent != "carol" {
		t.Errorf("got agent %s, want carol", agent)
	}
}
