package rpc

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/notify"
	"github.com/hummearth/hive/store/mem"
	"github.com/hummearth/hive/testutil"
)

func TestRPC(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := notify.New(4)

	grpcSrv := grpc.NewServer()
	Register(grpcSrv, NewServer(mem.New(mem.WithAgent("server")), hub))
	defer grpcSrv.GracefulStop()

	l := bufconn.Listen(4096)

	go grpcSrv.Serve(l)

	options := []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
			return l.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}

	cc, err := grpc.DialContext(ctx, "bufnet", options...)
	if err != nil {
		t.Fatal(err)
	}
	defer cc.Close()

	c := NewClient(cc)

	t.Run("agent", func(t *testing.T) {
		agent, err := c.Agent(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if agent != "server" {
			t.Errorf("got agent %s, want server", agent)
		}
	})
	t.Run("ledger", func(t *testing.T) {
		testutil.Ledger(ctx, t, c)
	})
	t.Run("broadcast", func(t *testing.T) {
		ev := hive.Event{
			Op:      hive.OpCreate,
			Address: hive.Ref{1},
			Record: &hive.Record{
				Content: hive.Content{
					Header: hive.Header{ID: "x", ContentType: "note"},
					Bytes:  []byte("hi"),
				},
				Address:  hive.Ref{1},
				Original: hive.Ref{1},
				Author:   "alice",
			},
		}
		c.Broadcast(ctx, ev)

		select {
		case got := <-hub.Events():
			if got.Op != ev.Op || got.Address != ev.Address {
				t.Errorf("got event %v %s, want %v %s", got.Op, got.Address, ev.Op, ev.Address)
			}
			if got.Record == nil || got.Record.Content.Header.ID != "x" || string(got.Record.Content.Bytes) != "hi" {
				t.Errorf("got record %+v", got.Record)
			}
		default:
			t.Error("no event delivered")
		}
	})
}
