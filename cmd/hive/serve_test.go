package main

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/notify"
)

func TestLogEvents(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := notify.New(1)
	done := make(chan struct{})
	go func() {
		logEvents(ctx, hub)
		close(done)
	}()

	hub.Broadcast(ctx, hive.Event{Op: hive.OpCreate, Address: hive.Ref{1}})

	deadline := time.Now().Add(5 * time.Second)
	for len(hook.AllEntries()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event not logged")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := hook.LastEntry().Data["op"]; got != hive.OpCreate {
		t.Errorf("got op %v, want %v", got, hive.OpCreate)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("logEvents did not return after cancel")
	}
}
