// Package rpc exposes a hive.Ledger over gRPC
// and implements a hive.Ledger as a client of one.
//
// Messages are plain Go structs carried by the CBOR codec
// registered under the content-subtype "cbor",
// so there is no generated code.
package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/codec"
)

func init() {
	encoding.RegisterCodec(codec.GRPC{})
}

const serviceName = "hive.Ledger"

type (
	agentRequest  struct{}
	agentResponse struct {
		Agent string `cbor:"1,keyasint"`
	}

	createRequest struct {
		Entry []byte `cbor:"1,keyasint,omitempty"`
	}
	updateRequest struct {
		Previous hive.Ref `cbor:"1,keyasint"`
		Entry    []byte   `cbor:"2,keyasint,omitempty"`
	}
	refResponse struct {
		Ref hive.Ref `cbor:"1,keyasint"`
	}

	getRequest struct {
		Ref       hive.Ref       `cbor:"1,keyasint"`
		Freshness hive.Freshness `cbor:"2,keyasint"`
	}
	revision struct {
		Address   hive.Ref  `cbor:"1,keyasint"`
		Original  hive.Ref  `cbor:"2,keyasint"`
		Previous  hive.Ref  `cbor:"3,keyasint"`
		Author    string    `cbor:"4,keyasint"`
		Timestamp time.Time `cbor:"5,keyasint"`
		Entry     []byte    `cbor:"6,keyasint,omitempty"`
		Deleted   bool      `cbor:"7,keyasint,omitempty"`
	}
	detailsResponse struct {
		Revision revision   `cbor:"1,keyasint"`
		Updates  []revision `cbor:"2,keyasint,omitempty"`
		Live     bool       `cbor:"3,keyasint"`
	}

	deleteRequest struct {
		Ref hive.Ref `cbor:"1,keyasint"`
	}

	createLinkRequest struct {
		Base      hive.KeyHash   `cbor:"1,keyasint"`
		Target    hive.Ref       `cbor:"2,keyasint"`
		Namespace hive.Namespace `cbor:"3,keyasint"`
		Tag       []byte         `cbor:"4,keyasint,omitempty"`
	}
	linksRequest struct {
		Base      hive.KeyHash   `cbor:"1,keyasint"`
		Namespace hive.Namespace `cbor:"2,keyasint"`
		TagPrefix []byte         `cbor:"3,keyasint,omitempty"`
	}
	link struct {
		Address   hive.Ref  `cbor:"1,keyasint"`
		Target    hive.Ref  `cbor:"2,keyasint"`
		Tag       []byte    `cbor:"3,keyasint,omitempty"`
		Author    string    `cbor:"4,keyasint"`
		Timestamp time.Time `cbor:"5,keyasint"`
	}
	linksResponse struct {
		Links []link `cbor:"1,keyasint,omitempty"`
	}

	broadcastRequest struct {
		Event hive.Event `cbor:"1,keyasint"`
	}
	emptyResponse struct{}
)

func fromRevision(rev *hive.Revision) revision {
	return revision{
		Address:   rev.Address,
		Original:  rev.Original,
		Previous:  rev.Previous,
		Author:    rev.Author,
		Timestamp: rev.Timestamp,
		Entry:     rev.Entry,
		Deleted:   rev.Deleted,
	}
}

func (r *revision) toRevision() hive.Revision {
	return hive.Revision{
		Address:   r.Address,
		Original:  r.Original,
		Previous:  r.Previous,
		Author:    r.Author,
		Timestamp: r.Timestamp,
		Entry:     r.Entry,
		Deleted:   r.Deleted,
	}
}

// unary adapts a typed method to a grpc.MethodHandler.
func unary[Req any](name string, call func(*Server, context.Context, *Req) (interface{}, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			s := srv.(*Server)
			if interceptor == nil {
				return call(s, ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + name}
			return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		unary("Agent", (*Server).agent),
		unary("Create", (*Server).create),
		unary("Update", (*Server).update),
		unary("Get", (*Server).get),
		unary("Details", (*Server).details),
		unary("Delete", (*Server).delete),
		unary("CreateLink", (*Server).createLink),
		unary("Links", (*Server).links),
		unary("Broadcast", (*Server).broadcast),
	},
	Metadata: "hive/store/rpc",
}

// Register registers s with the given gRPC server.
func Register(g *grpc.Server, s *Server) {
	g.RegisterService(&serviceDesc, s)
}
