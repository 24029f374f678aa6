package rpc

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/codec"
	"github.com/hummearth/hive/store"
)

var (
	_ hive.Ledger      = &Client{}
	_ hive.Broadcaster = &Client{}
)

// Client is a hive.Ledger backed by a remote Server.
// It is also a hive.Broadcaster that forwards events to the Server.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp interface{}) error {
	err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, req, resp, grpc.CallContentSubtype(codec.Name))
	switch status.Code(err) {
	case codes.OK:
		return nil
	case codes.NotFound:
		return hive.ErrNotFound
	case codes.Unavailable:
		return hive.StoreUnavailable(errors.Wrapf(err, "calling %s", method))
	}
	return errors.Wrapf(err, "calling %s", method)
}

func (c *Client) Agent(ctx context.Context) (string, error) {
	var resp agentResponse
	err := c.invoke(ctx, "Agent", &agentRequest{}, &resp)
	return resp.Agent, err
}

func (c *Client) Create(ctx context.Context, entry []byte) (hive.Ref, error) {
	var resp refResponse
	err := c.invoke(ctx, "Create", &createRequest{Entry: entry}, &resp)
	return resp.Ref, err
}

func (c *Client) Update(ctx context.Context, previous hive.Ref, entry []byte) (hive.Ref, error) {
	var resp refResponse
	err := c.invoke(ctx, "Update", &updateRequest{Previous: previous, Entry: entry}, &resp)
	return resp.Ref, err
}

func (c *Client) Get(ctx context.Context, ref hive.Ref, f hive.Freshness) (*hive.Revision, error) {
	var resp revision
	if err := c.invoke(ctx, "Get", &getRequest{Ref: ref, Freshness: f}, &resp); err != nil {
		return nil, err
	}
	rev := resp.toRevision()
	return &rev, nil
}

func (c *Client) Details(ctx context.Context, ref hive.Ref, f hive.Freshness) (*hive.Details, error) {
	var resp detailsResponse
	if err := c.invoke(ctx, "Details", &getRequest{Ref: ref, Freshness: f}, &resp); err != nil {
		return nil, err
	}
	d := &hive.Details{Revision: resp.Revision.toRevision(), Live: resp.Live}
	for i := range resp.Updates {
		d.Updates = append(d.Updates, resp.Updates[i].toRevision())
	}
	return d, nil
}

func (c *Client) Delete(ctx context.Context, ref hive.Ref) (hive.Ref, error) {
	var resp refResponse
	err := c.invoke(ctx, "Delete", &deleteRequest{Ref: ref}, &resp)
	return resp.Ref, err
}

func (c *Client) CreateLink(ctx context.Context, base hive.KeyHash, target hive.Ref, ns hive.Namespace, tag []byte) (hive.Ref, error) {
	var resp refResponse
	err := c.invoke(ctx, "CreateLink", &createLinkRequest{Base: base, Target: target, Namespace: ns, Tag: tag}, &resp)
	return resp.Ref, err
}

func (c *Client) Links(ctx context.Context, base hive.KeyHash, ns hive.Namespace, tagPrefix []byte) ([]hive.Link, error) {
	var resp linksResponse
	if err := c.invoke(ctx, "Links", &linksRequest{Base: base, Namespace: ns, TagPrefix: tagPrefix}, &resp); err != nil {
		return nil, err
	}
	var out []hive.Link
	for _, l := range resp.Links {
		out = append(out, hive.Link{
			Address:   l.Address,
			Base:      base,
			Target:    l.Target,
			Namespace: ns,
			Tag:       l.Tag,
			Author:    l.Author,
			Timestamp: l.Timestamp,
		})
	}
	return out, nil
}

// Broadcast implements hive.Broadcaster.
// Failures are logged and otherwise ignored.
func (c *Client) Broadcast(ctx context.Context, ev hive.Event) {
	if err := c.invoke(ctx, "Broadcast", &broadcastRequest{Event: ev}, &emptyResponse{}); err != nil {
		logrus.WithError(err).WithField("address", ev.Address).Warn("broadcast failed")
	}
}

func init() {
	store.Register("rpc", func(_ context.Context, conf map[string]interface{}) (hive.Ledger, error) {
		addr, ok := conf["addr"].(string)
		if !ok {
			return nil, errors.New(`missing "addr" parameter`)
		}
		var opts []grpc.DialOption
		if ins, _ := conf["insecure"].(bool); ins {
			opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		}
		cc, err := grpc.Dial(addr, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "connecting to %s", addr)
		}
		return NewClient(cc), nil
	})
}
