package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/content"
	"github.com/hummearth/hive/timeindex"
)

func (c maincmd) get(ctx context.Context, refstr string, fast bool, _ []string) error {
	ref, err := hive.RefFromHex(refstr)
	if err != nil {
		return errors.Wrapf(err, "decoding ref %s", refstr)
	}

	s := c.s
	if fast {
		s = content.New(c.l, append(c.opts, content.WithConsistency(content.Fast))...)
	}

	rec, err := s.Get(ctx, ref)
	if err != nil {
		return errors.Wrapf(err, "getting %s", ref)
	}
	return c.print(rec)
}

func (c maincmd) getByID(ctx context.Context, hiveID, id string, _ []string) error {
	rec, err := c.s.GetByContentID(ctx, hiveID, id)
	if err != nil {
		return errors.Wrapf(err, "getting content id %s", id)
	}
	return c.print(rec)
}

func (c maincmd) byAuthor(ctx context.Context, author, typ string, _ []string) error {
	author, err := c.agentOr(ctx, author)
	if err != nil {
		return err
	}
	recs, err := c.s.ListByAuthor(ctx, author, typ)
	if err != nil {
		return err
	}
	return c.print(recs...)
}

func (c maincmd) byHive(ctx context.Context, hiveID, typ string, _ []string) error {
	recs, err := c.s.ListByHive(ctx, hiveID, typ)
	if err != nil {
		return err
	}
	return c.print(recs...)
}

func (c maincmd) byID(ctx context.Context, hiveID, id string, _ []string) error {
	recs, err := c.s.ListByContentID(ctx, hiveID, id)
	if err != nil {
		return err
	}
	return c.print(recs...)
}

func (c maincmd) byTag(ctx context.Context, hiveID, typ, tag string, _ []string) error {
	recs, err := c.s.ListByDynamicLink(ctx, hiveID, typ, tag)
	if err != nil {
		return err
	}
	return c.print(recs...)
}

func (c maincmd) byACL(ctx context.Context, hiveID, typ, role, entity string, _ []string) error {
	recs, err := c.s.ListByACL(ctx, content.ACLQuery{
		HiveID:      hiveID,
		ContentType: typ,
		Role:        role,
		EntityID:    entity,
	})
	if err != nil {
		return err
	}
	return c.print(recs...)
}

func (c maincmd) byTime(ctx context.Context, author, typ, startstr, endstr string, limit int, _ []string) error {
	author, err := c.agentOr(ctx, author)
	if err != nil {
		return err
	}

	q := timeindex.Query{Author: author, ContentType: typ, Limit: limit}
	if q.Start, err = optTime(startstr); err != nil {
		return errors.Wrap(err, "parsing -start")
	}
	if q.End, err = optTime(endstr); err != nil {
		return errors.Wrap(err, "parsing -end")
	}

	recs, err := c.s.ListByTime(ctx, q)
	if err != nil {
		return err
	}
	return c.print(recs...)
}

// agentOr returns author, or this ledger's agent if author is empty.
func (c maincmd) agentOr(ctx context.Context, author string) (string, error) {
	if author != "" {
		return author, nil
	}
	agent, err := c.l.Agent(ctx)
	return agent, errors.Wrap(err, "getting agent")
}

func optTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parsetime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
