package store

import (
	"context"
	"testing"
	"time"

	"github.com/hummearth/hive"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	var gotConf map[string]interface{}
	Register("test-registry", func(_ context.Context, conf map[string]interface{}) (hive.Ledger, error) {
		gotConf = conf
		return nil, nil
	})

	if _, err := Create(ctx, "no-such-store", nil); err == nil {
		t.Error("got no error for an unregistered key")
	}

	conf := map[string]interface{}{"x": "y"}
	if _, err := Create(ctx, "test-registry", conf); err != nil {
		t.Fatal(err)
	}
	if gotConf["x"] != "y" {
		t.Errorf("factory got conf %v", gotConf)
	}

	_, err := Nested(ctx, map[string]interface{}{"nested": map[string]interface{}{"type": "test-registry"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Nested(ctx, map[string]interface{}{}); err == nil {
		t.Error("got no error for missing nested config")
	}

	var found bool
	for _, k := range Keys() {
		if k == "test-registry" {
			found = true
		}
	}
	if !found {
		t.Error("Keys does not include test-registry")
	}
}

func TestAgent(t *testing.T) {
	if _, err := Agent(map[string]interface{}{}); err == nil {
		t.Error("got no error for missing agent")
	}
	got, err := Agent(map[string]interface{}{"agent": "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "alice" {
		t.Errorf("got %s, want alice", got)
	}
}

func TestClock(t *testing.T) {
	fixed := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	c := &Clock{Now: func() time.Time { return fixed }}
	t1 := c.Next()
	t2 := c.Next()
	if !t1.Equal(fixed) {
		t.Errorf("got %s, want %s", t1, fixed)
	}
	if !t2.Equal(fixed.Add(time.Nanosecond)) {
		t.Errorf("got %s, want %s", t2, fixed.Add(time.Nanosecond))
	}
}
