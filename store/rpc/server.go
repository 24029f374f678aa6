package rpc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hummearth/hive"
)

// Server serves a hive.Ledger over gRPC.
// Broadcast calls from clients are handed to a hive.Broadcaster.
type Server struct {
	l hive.Ledger
	b hive.Broadcaster
}

// NewServer produces a Server for l.
// If b is nil, broadcasts are discarded.
func NewServer(l hive.Ledger, b hive.Broadcaster) *Server {
	return &Server{l: l, b: b}
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, hive.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	if errors.Is(err, hive.ErrStoreUnavailable) {
		return status.Error(codes.Unavailable, err.Error())
	}
	return status.Error(codes.Unknown, err.Error())
}

func (s *Server) agent(ctx context.Context, _ *agentRequest) (interface{}, error) {
	agent, err := s.l.Agent(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &agentResponse{Agent: agent}, nil
}

func (s *Server) create(ctx context.Context, req *createRequest) (interface{}, error) {
	ref, err := s.l.Create(ctx, req.Entry)
	if err != nil {
		return nil, toStatus(err)
	}
	return &refResponse{Ref: ref}, nil
}

func (s *Server) update(ctx context.Context, req *updateRequest) (interface{}, error) {
	ref, err := s.l.Update(ctx, req.Previous, req.Entry)
	if err != nil {
		return nil, toStatus(err)
	}
	return &refResponse{Ref: ref}, nil
}

func (s *Server) get(ctx context.Context, req *getRequest) (interface{}, error) {
	rev, err := s.l.Get(ctx, req.Ref, req.Freshness)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := fromRevision(rev)
	return &resp, nil
}

func (s *Server) details(ctx context.Context, req *getRequest) (interface{}, error) {
	d, err := s.l.Details(ctx, req.Ref, req.Freshness)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &detailsResponse{Revision: fromRevision(&d.Revision), Live: d.Live}
	for i := range d.Updates {
		resp.Updates = append(resp.Updates, fromRevision(&d.Updates[i]))
	}
	return resp, nil
}

func (s *Server) delete(ctx context.Context, req *deleteRequest) (interface{}, error) {
	ref, err := s.l.Delete(ctx, req.Ref)
	if err != nil {
		return nil, toStatus(err)
	}
	return &refResponse{Ref: ref}, nil
}

func (s *Server) createLink(ctx context.Context, req *createLinkRequest) (interface{}, error) {
	ref, err := s.l.CreateLink(ctx, req.Base, req.Target, req.Namespace, req.Tag)
	if err != nil {
		return nil, toStatus(err)
	}
	return &refResponse{Ref: ref}, nil
}

func (s *Server) links(ctx context.Context, req *linksRequest) (interface{}, error) {
	links, err := s.l.Links(ctx, req.Base, req.Namespace, req.TagPrefix)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := new(linksResponse)
	for _, l := range links {
		resp.Links = append(resp.Links, link{
			Address:   l.Address,
			Target:    l.Target,
			Tag:       l.Tag,
			Author:    l.Author,
			Timestamp: l.Timestamp,
		})
	}
	return resp, nil
}

func (s *Server) broadcast(ctx context.Context, req *broadcastRequest) (interface{}, error) {
	if s.b != nil {
		s.b.Broadcast(ctx, req.Event)
	}
	return &emptyResponse{}, nil
}
