package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/content"
)

func (c maincmd) create(ctx context.Context, id, hiveID, typ, owner, admin, writer, reader, tags, key, data string, _ []string) error {
	if id == "" {
		id = uuid.NewString()
	}
	if owner == "" {
		var err error
		owner, err = c.l.Agent(ctx)
		if err != nil {
			return errors.Wrap(err, "getting agent")
		}
	}

	payload, err := c.payload(data)
	if err != nil {
		return err
	}

	rec, err := c.s.Create(ctx, content.CreateInput{
		ID:          id,
		HiveID:      hiveID,
		ContentType: typ,
		Bytes:       payload,
		ACL: hive.ACL{
			Owner:  hive.Entity{ID: owner},
			Admin:  entities(admin),
			Writer: entities(writer),
			Reader: entities(reader),
		},
		RevisionKey:  key,
		DynamicLinks: split(tags),
	})
	return c.written(rec, err)
}

func (c maincmd) update(ctx context.Context, prevstr, tags, data string, _ []string) error {
	prev, err := hive.RefFromHex(prevstr)
	if err != nil {
		return errors.Wrapf(err, "decoding ref %s", prevstr)
	}

	// The new revision keeps the header of the one it replaces.
	old, err := c.s.GetRevision(ctx, prev)
	if err != nil {
		return errors.Wrapf(err, "getting revision %s", prev)
	}

	payload, err := c.payload(data)
	if err != nil {
		return err
	}

	rec, err := c.s.Update(ctx, content.UpdateInput{
		Previous:     prev,
		Content:      hive.Content{Header: old.Content.Header, Bytes: payload},
		DynamicLinks: split(tags),
	})
	return c.written(rec, err)
}

func (c maincmd) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete REF")
	}

	ref, err := hive.RefFromHex(args[0])
	if err != nil {
		return errors.Wrapf(err, "decoding ref %s", args[0])
	}
	del, err := c.s.Delete(ctx, ref)
	if err != nil {
		return errors.Wrapf(err, "deleting %s", ref)
	}
	_, err = fmt.Fprintln(c.out, del)
	return err
}

// A record stored with an incomplete index is still printed
// so its ref is not lost.
func (c maincmd) written(rec *hive.Record, err error) error {
	var ierr *hive.IndexError
	if errors.As(err, &ierr) && rec != nil {
		if perr := c.print(rec); perr != nil {
			return perr
		}
		return err
	}
	if err != nil {
		return err
	}
	return c.print(rec)
}

func (c maincmd) payload(data string) ([]byte, error) {
	if data != "" {
		return []byte(data), nil
	}
	b, err := io.ReadAll(c.in)
	return b, errors.Wrap(err, "reading stdin")
}

func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func entities(s string) []hive.Entity {
	var out []hive.Entity
	for _, id := range split(s) {
		out = append(out, hive.Entity{ID: id})
	}
	return out
}
