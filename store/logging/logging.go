// Package logging implements a ledger that delegates everything to a nested ledger,
// logging operations as they happen.
package logging

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/store"
)

var _ hive.Ledger = &Store{}

type Store struct {
	l   hive.Ledger
	log logrus.FieldLogger
}

// New produces a Store logging to log,
// or to the standard logrus logger if log is nil.
func New(l hive.Ledger, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{l: l, log: log}
}

func (s *Store) done(entry *logrus.Entry, op string, err error) {
	if err != nil {
		entry.WithError(err).Errorf("%s failed", op)
	} else {
		entry.Debug(op)
	}
}

func (s *Store) Agent(ctx context.Context) (string, error) {
	return s.l.Agent(ctx)
}

func (s *Store) Create(ctx context.Context, entry []byte) (hive.Ref, error) {
	ref, err := s.l.Create(ctx, entry)
	s.done(s.log.WithFields(logrus.Fields{"ref": ref, "size": len(entry)}), "Create", err)
	return ref, err
}

func (s *Store) Update(ctx context.Context, previous hive.Ref, entry []byte) (hive.Ref, error) {
	ref, err := s.l.Update(ctx, previous, entry)
	s.done(s.log.WithFields(logrus.Fields{"ref": ref, "previous": previous, "size": len(entry)}), "Update", err)
	return ref, err
}

func (s *Store) Get(ctx context.Context, ref hive.Ref, f hive.Freshness) (*hive.Revision, error) {
	rev, err := s.l.Get(ctx, ref, f)
	s.done(s.log.WithFields(logrus.Fields{"ref": ref, "freshness": f}), "Get", err)
	return rev, err
}

func (s *Store) Details(ctx context.Context, ref hive.Ref, f hive.Freshness) (*hive.Details, error) {
	d, err := s.l.Details(ctx, ref, f)
	fields := logrus.Fields{"ref": ref, "freshness": f}
	if d != nil {
		fields["updates"] = len(d.Updates)
		fields["live"] = d.Live
	}
	s.done(s.log.WithFields(fields), "Details", err)
	return d, err
}

func (s *Store) Delete(ctx context.Context, ref hive.Ref) (hive.Ref, error) {
	del, err := s.l.Delete(ctx, ref)
	s.done(s.log.WithFields(logrus.Fields{"ref": ref, "delete": del}), "Delete", err)
	return del, err
}

func (s *Store) CreateLink(ctx context.Context, base hive.KeyHash, target hive.Ref, ns hive.Namespace, tag []byte) (hive.Ref, error) {
	ref, err := s.l.CreateLink(ctx, base, target, ns, tag)
	s.done(s.log.WithFields(logrus.Fields{"ref": ref, "base": base, "target": target, "ns": ns, "tag": tag}), "CreateLink", err)
	return ref, err
}

func (s *Store) Links(ctx context.Context, base hive.KeyHash, ns hive.Namespace, tagPrefix []byte) ([]hive.Link, error) {
	links, err := s.l.Links(ctx, base, ns, tagPrefix)
	s.done(s.log.WithFields(logrus.Fields{"base": base, "ns": ns, "prefix": tagPrefix, "count": len(links)}), "Links", err)
	return links, err
}

func init() {
	store.Register("logging", func(ctx context.Context, conf map[string]interface{}) (hive.Ledger, error) {
		nested, err := store.Nested(ctx, conf)
		if err != nil {
			return nil, err
		}
		return New(nested, nil), nil
	})
}
