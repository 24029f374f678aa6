package main

import (
	"context"
	"fmt"
	"net"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/hummearth/hive/notify"
	"github.com/hummearth/hive/store/rpc"
)

// Serve exposes the configured ledger over gRPC
// until ctx is done.
// Events broadcast by clients are logged.
func (c maincmd) serve(ctx context.Context, addr string, _ []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := notify.New(64)
	go logEvents(ctx, hub)

	gs := grpc.NewServer()
	rpc.Register(gs, rpc.NewServer(c.l, hub))

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", addr)
	}
	defer lis.Close()

	fmt.Fprintf(c.out, "Listening on %s\n", lis.Addr())

	go func() {
		<-ctx.Done()
		gs.GracefulStop()
	}()

	return gs.Serve(lis)
}

func logEvents(ctx context.Context, hub *notify.Hub) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-hub.Events():
			logrus.WithFields(logrus.Fields{
				"op":      ev.Op,
				"address": ev.Address,
			}).Info("event")
		}
	}
}
