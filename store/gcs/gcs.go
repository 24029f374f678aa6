// Package gcs implements a hive.Ledger on Google Cloud Storage.
//
// Every action is an immutable object.
// Object names are laid out so that a prefix listing
// answers each query:
//
//	r:<ref>                          revision record
//	u:<original>:<time>:<ref>        update to original (empty object)
//	d:<target>:<ref>                 delete record
//	l:<base>:<ns>:<time>:<ref>       link record
//
// Listings come back in lexical order,
// which the fixed-width <time> component turns into chronological order.
// A link's timestamp is read back from its object name.
package gcs

import (
	"bytes"
	"context"
	stderrs "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/codec"
	"github.com/hummearth/hive/store"
)

var _ hive.Ledger = &Store{}

// Store is a Google Cloud Storage-based ledger acting for one agent.
type Store struct {
	bucket *storage.BucketHandle
	agent  string
	clock  store.Clock
}

// New produces a new Store.
func New(bucket *storage.BucketHandle, agent string) *Store {
	return &Store{bucket: bucket, agent: agent}
}

type revisionRecord struct {
	Original hive.Ref  `cbor:"1,keyasint"`
	Previous hive.Ref  `cbor:"2,keyasint"`
	Author   string    `cbor:"3,keyasint"`
	At       time.Time `cbor:"4,keyasint"`
	Entry    []byte    `cbor:"5,keyasint,omitempty"`
}

type deleteRecord struct {
	Author string    `cbor:"1,keyasint"`
	At     time.Time `cbor:"2,keyasint"`
}

type linkRecord struct {
	Target hive.Ref `cbor:"1,keyasint"`
	Tag    []byte   `cbor:"2,keyasint,omitempty"`
	Author string   `cbor:"3,keyasint"`
}

func revisionObjName(ref hive.Ref) string {
	return "r:" + ref.String()
}

func updatePrefix(original hive.Ref) string {
	return "u:" + original.String() + ":"
}

func deletePrefix(target hive.Ref) string {
	return "d:" + target.String() + ":"
}

func linkPrefix(base hive.KeyHash, ns hive.Namespace) string {
	return fmt.Sprintf("l:%s:%d:", base, ns)
}

// refFromObjName parses the ref that ends every listed object name.
func refFromObjName(name string) (hive.Ref, error) {
	i := strings.LastIndexByte(name, ':')
	return hive.RefFromHex(name[i+1:])
}

// timedObjName parses the <time>:<ref> suffix of an update or link object name.
func timedObjName(name string) (time.Time, hive.Ref, error) {
	ref, err := refFromObjName(name)
	if err != nil {
		return time.Time{}, hive.Zero, err
	}
	rest := name[:strings.LastIndexByte(name, ':')]
	at, ok := timeFromKey(rest[strings.LastIndexByte(rest, ':')+1:])
	if !ok {
		return time.Time{}, hive.Zero, errors.Errorf("no time in object name %s", name)
	}
	return at, ref, nil
}

// storeErr marks errors meaning Cloud Storage cannot be reached.
// Any API error other than a bad request or a missing object counts.
func storeErr(err error) error {
	var (
		gerr *googleapi.Error
		nerr net.Error
	)
	if stderrs.As(err, &gerr) {
		if gerr.Code == http.StatusBadRequest || gerr.Code == http.StatusNotFound {
			return err
		}
		return hive.StoreUnavailable(err)
	}
	if stderrs.As(err, &nerr) {
		return hive.StoreUnavailable(err)
	}
	return err
}

func (s *Store) write(ctx context.Context, name string, v interface{}) error {
	var data []byte
	if v != nil {
		var err error
		data, err = codec.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "encoding %s", name)
		}
	}

	w := s.bucket.Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return errors.Wrapf(storeErr(err), "writing object %s", name)
	}
	err := w.Close()
	var e *googleapi.Error
	if stderrs.As(err, &e) && e.Code == http.StatusPreconditionFailed {
		// Same name means same content.
		return nil
	}
	return errors.Wrapf(storeErr(err), "writing object %s", name)
}

func (s *Store) read(ctx context.Context, name string, v interface{}) error {
	r, err := s.bucket.Object(name).NewReader(ctx)
	if stderrs.Is(err, storage.ErrObjectNotExist) {
		return hive.ErrNotFound
	}
	if err != nil {
		return errors.Wrapf(storeErr(err), "reading info of object %s", name)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrapf(storeErr(err), "reading contents of object %s", name)
	}
	return errors.Wrapf(codec.Unmarshal(data, v), "decoding object %s", name)
}

// each calls f on every object whose name begins with prefix.
func (s *Store) each(ctx context.Context, prefix string, f func(*storage.ObjectAttrs) error) error {
	iter := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := iter.Next()
		if stderrs.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(storeErr(err), "listing objects with prefix %s", prefix)
		}
		if err := f(attrs); err != nil {
			return err
		}
	}
}

func (s *Store) deleted(ctx context.Context, ref hive.Ref) (bool, error) {
	var found bool
	err := s.each(ctx, deletePrefix(ref), func(*storage.ObjectAttrs) error {
		found = true
		return nil
	})
	return found, err
}

func (s *Store) revision(ctx context.Context, ref hive.Ref) (*hive.Revision, error) {
	var rec revisionRecord
	if err := s.read(ctx, revisionObjName(ref), &rec); err != nil {
		return nil, err
	}
	deleted, err := s.deleted(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &hive.Revision{
		Address:   ref,
		Original:  rec.Original,
		Previous:  rec.Previous,
		Author:    rec.Author,
		Timestamp: rec.At,
		Entry:     rec.Entry,
		Deleted:   deleted,
	}, nil
}

// Agent implements hive.Ledger.
func (s *Store) Agent(context.Context) (string, error) {
	return s.agent, nil
}

// Create implements hive.Ledger.
func (s *Store) Create(ctx context.Context, entry []byte) (hive.Ref, error) {
	at := s.clock.Next()
	ref := hive.RevisionRef(s.agent, at, hive.Zero, entry)
	err := s.write(ctx, revisionObjName(ref), &revisionRecord{
		Original: ref,
		Author:   s.agent,
		At:       at,
		Entry:    entry,
	})
	return ref, err
}

// Update implements hive.Ledger.
func (s *Store) Update(ctx context.Context, previous hive.Ref, entry []byte) (hive.Ref, error) {
	prev, err := s.revision(ctx, previous)
	if err != nil {
		return hive.Zero, errors.Wrapf(err, "updating %s", previous)
	}
	if prev.Deleted {
		return hive.Zero, errors.Wrapf(hive.ErrNotFound, "updating %s", previous)
	}

	at := s.clock.Next()
	ref := hive.RevisionRef(s.agent, at, previous, entry)
	err = s.write(ctx, revisionObjName(ref), &revisionRecord{
		Original: prev.Original,
		Previous: previous,
		Author:   s.agent,
		At:       at,
		Entry:    entry,
	})
	if err != nil {
		return hive.Zero, err
	}
	err = s.write(ctx, updatePrefix(prev.Original)+timeKey(at)+":"+ref.String(), nil)
	return ref, err
}

// Get implements hive.Ledger.
func (s *Store) Get(ctx context.Context, ref hive.Ref, _ hive.Freshness) (*hive.Revision, error) {
	rev, err := s.revision(ctx, ref)
	if err != nil {
		return nil, err
	}
	if rev.Deleted {
		return nil, hive.ErrNotFound
	}
	return rev, nil
}

// Details implements hive.Ledger.
func (s *Store) Details(ctx context.Context, ref hive.Ref, _ hive.Freshness) (*hive.Details, error) {
	rev, err := s.revision(ctx, ref)
	if err != nil {
		return nil, err
	}
	d := &hive.Details{Revision: *rev, Live: !rev.Deleted}
	err = s.each(ctx, updatePrefix(ref), func(attrs *storage.ObjectAttrs) error {
		uref, err := refFromObjName(attrs.Name)
		if err != nil {
			return errors.Wrapf(err, "parsing object name %s", attrs.Name)
		}
		u, err := s.revision(ctx, uref)
		if err != nil {
			return errors.Wrapf(err, "getting update %s", uref)
		}
		d.Updates = append(d.Updates, *u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Delete implements hive.Ledger.
func (s *Store) Delete(ctx context.Context, ref hive.Ref) (hive.Ref, error) {
	_, err := s.bucket.Object(revisionObjName(ref)).Attrs(ctx)
	if stderrs.Is(err, storage.ErrObjectNotExist) {
		return hive.Zero, errors.Wrapf(hive.ErrNotFound, "deleting %s", ref)
	}
	if err != nil {
		return hive.Zero, errors.Wrapf(storeErr(err), "getting object attrs for %s", ref)
	}

	at := s.clock.Next()
	del := hive.DeleteRef(s.agent, at, ref)
	err = s.write(ctx, deletePrefix(ref)+del.String(), &deleteRecord{Author: s.agent, At: at})
	return del, err
}

// CreateLink implements hive.Ledger.
func (s *Store) CreateLink(ctx context.Context, base hive.KeyHash, target hive.Ref, ns hive.Namespace, tag []byte) (hive.Ref, error) {
	if !ns.Valid() {
		return hive.Zero, errors.Errorf("invalid namespace %s", ns)
	}
	at := s.clock.Next()
	ref := hive.LinkRef(s.agent, at, base, target, ns, tag)
	name := linkPrefix(base, ns) + timeKey(at) + ":" + ref.String()
	err := s.write(ctx, name, &linkRecord{Target: target, Tag: tag, Author: s.agent})
	return ref, err
}

// Links implements hive.Ledger.
func (s *Store) Links(ctx context.Context, base hive.KeyHash, ns hive.Namespace, tagPrefix []byte) ([]hive.Link, error) {
	var out []hive.Link
	err := s.each(ctx, linkPrefix(base, ns), func(attrs *storage.ObjectAttrs) error {
		at, ref, err := timedObjName(attrs.Name)
		if err != nil {
			return errors.Wrapf(err, "parsing object name %s", attrs.Name)
		}
		var rec linkRecord
		if err := s.read(ctx, attrs.Name, &rec); err != nil {
			return err
		}
		if !bytes.HasPrefix(rec.Tag, tagPrefix) {
			return nil
		}
		out = append(out, hive.Link{
			Address:   ref,
			Base:      base,
			Target:    rec.Target,
			Namespace: ns,
			Tag:       rec.Tag,
			Author:    rec.Author,
			Timestamp: at,
		})
		return nil
	})
	return out, err
}

func init() {
	store.Register("gcs", func(ctx context.Context, conf map[string]interface{}) (hive.Ledger, error) {
		var options []option.ClientOption
		creds, ok := conf["creds"].(string)
		if !ok {
			return nil, errors.New(`missing "creds" parameter`)
		}
		bucketName, ok := conf["bucket"].(string)
		if !ok {
			return nil, errors.New(`missing "bucket" parameter`)
		}
		agent, err := store.Agent(conf)
		if err != nil {
			return nil, err
		}
		options = append(options, option.WithCredentialsFile(creds))
		c, err := storage.NewClient(ctx, options...)
		if err != nil {
			return nil, errors.Wrap(err, "creating cloud storage client")
		}
		return New(c.Bucket(bucketName), agent), nil
	})
}
