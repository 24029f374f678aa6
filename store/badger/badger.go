// Package badger implements a hive.Ledger in a Badger key-value database.
//
// Keys are laid out as follows:
//
//	r:<ref>               revision record
//	u:<original><seq>     ref of an update to original
//	d:<ref>               delete record
//	l:<base><ns><seq>     link record
//
// Seq is a database-wide sequence number,
// so iterating a prefix yields values in arrival order.
package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	stderrs "errors"
	"io/fs"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/codec"
	"github.com/hummearth/hive/store"
)

var _ hive.Ledger = &Store{}

// Store is a Badger-based ledger acting for one agent.
type Store struct {
	db    *badger.DB
	seq   *badger.Sequence
	agent string
	clock store.Clock
}

type revisionRecord struct {
	Original hive.Ref  `cbor:"1,keyasint"`
	Previous hive.Ref  `cbor:"2,keyasint"`
	Author   string    `cbor:"3,keyasint"`
	At       time.Time `cbor:"4,keyasint"`
	Entry    []byte    `cbor:"5,keyasint,omitempty"`
	Deleted  bool      `cbor:"6,keyasint,omitempty"`
}

type deleteRecord struct {
	Target hive.Ref  `cbor:"1,keyasint"`
	Author string    `cbor:"2,keyasint"`
	At     time.Time `cbor:"3,keyasint"`
}

type linkRecord struct {
	Ref    hive.Ref  `cbor:"1,keyasint"`
	Target hive.Ref  `cbor:"2,keyasint"`
	Tag    []byte    `cbor:"3,keyasint,omitempty"`
	Author string    `cbor:"4,keyasint"`
	At     time.Time `cbor:"5,keyasint"`
}

// Open opens (or creates) a Badger database in dir
// and produces a Store acting for agent.
// An empty dir means an in-memory database.
func Open(dir, agent string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(logrus.WithField("store", "badger"))
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "opening badger db")
	}
	s, err := New(db, agent)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New produces a Store using db for storage.
func New(db *badger.DB, agent string) (*Store, error) {
	seq, err := db.GetSequence([]byte("seq"), 256)
	if err != nil {
		return nil, errors.Wrap(err, "getting sequence")
	}
	return &Store{db: db, seq: seq, agent: agent}, nil
}

// Close releases the sequence and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		return errors.Wrap(err, "releasing sequence")
	}
	return s.db.Close()
}

func revisionKey(ref hive.Ref) []byte {
	return append([]byte("r:"), ref[:]...)
}

func updatePrefix(original hive.Ref) []byte {
	return append([]byte("u:"), original[:]...)
}

func deleteKey(ref hive.Ref) []byte {
	return append([]byte("d:"), ref[:]...)
}

func linkPrefix(base hive.KeyHash, ns hive.Namespace) []byte {
	k := append([]byte("l:"), base[:]...)
	return append(k, byte(ns))
}

func (s *Store) withSeq(prefix []byte) ([]byte, error) {
	n, err := s.seq.Next()
	if err != nil {
		return nil, errors.Wrap(err, "getting sequence number")
	}
	return binary.BigEndian.AppendUint64(prefix, n), nil
}

func getRecord(txn *badger.Txn, key []byte, v interface{}) error {
	item, err := txn.Get(key)
	if stderrs.Is(err, badger.ErrKeyNotFound) {
		return hive.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return codec.Unmarshal(val, v)
	})
}

func setRecord(txn *badger.Txn, key []byte, v interface{}) error {
	val, err := codec.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding record")
	}
	return txn.Set(key, val)
}

// Agent implements hive.Ledger.
func (s *Store) Agent(context.Context) (string, error) {
	return s.agent, nil
}

// Create implements hive.Ledger.
func (s *Store) Create(_ context.Context, entry []byte) (hive.Ref, error) {
	at := s.clock.Next()
	ref := hive.RevisionRef(s.agent, at, hive.Zero, entry)
	err := s.db.Update(func(txn *badger.Txn) error {
		return setRecord(txn, revisionKey(ref), &revisionRecord{
			Original: ref,
			Author:   s.agent,
			At:       at,
			Entry:    entry,
		})
	})
	return ref, errors.Wrap(storeErr(err), "storing revision")
}

// Update implements hive.Ledger.
func (s *Store) Update(_ context.Context, previous hive.Ref, entry []byte) (hive.Ref, error) {
	at := s.clock.Next()
	ref := hive.RevisionRef(s.agent, at, previous, entry)
	err := s.db.Update(func(txn *badger.Txn) error {
		var prev revisionRecord
		if err := getRecord(txn, revisionKey(previous), &prev); err != nil {
			return errors.Wrapf(err, "updating %s", previous)
		}
		if prev.Deleted {
			return errors.Wrapf(hive.ErrNotFound, "updating %s", previous)
		}
		err := setRecord(txn, revisionKey(ref), &revisionRecord{
			Original: prev.Original,
			Previous: previous,
			Author:   s.agent,
			At:       at,
			Entry:    entry,
		})
		if err != nil {
			return err
		}
		ukey, err := s.withSeq(updatePrefix(prev.Original))
		if err != nil {
			return err
		}
		return txn.Set(ukey, ref[:])
	})
	if err != nil {
		return hive.Zero, storeErr(err)
	}
	return ref, nil
}

func (rec *revisionRecord) revision(ref hive.Ref) hive.Revision {
	return hive.Revision{
		Address:   ref,
		Original:  rec.Original,
		Previous:  rec.Previous,
		Author:    rec.Author,
		Timestamp: rec.At,
		Entry:     rec.Entry,
		Deleted:   rec.Deleted,
	}
}

// Get implements hive.Ledger.
func (s *Store) Get(_ context.Context, ref hive.Ref, _ hive.Freshness) (*hive.Revision, error) {
	var rec revisionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getRecord(txn, revisionKey(ref), &rec)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if rec.Deleted {
		return nil, hive.ErrNotFound
	}
	rev := rec.revision(ref)
	return &rev, nil
}

// Details implements hive.Ledger.
func (s *Store) Details(_ context.Context, ref hive.Ref, _ hive.Freshness) (*hive.Details, error) {
	d := new(hive.Details)
	err := s.db.View(func(txn *badger.Txn) error {
		var rec revisionRecord
		if err := getRecord(txn, revisionKey(ref), &rec); err != nil {
			return err
		}
		d.Revision = rec.revision(ref)
		d.Live = !rec.Deleted

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := updatePrefix(ref)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return errors.Wrap(err, "reading update ref")
			}
			uref := hive.RefFromBytes(val)
			var urec revisionRecord
			if err := getRecord(txn, revisionKey(uref), &urec); err != nil {
				return errors.Wrapf(err, "getting update %s", uref)
			}
			d.Updates = append(d.Updates, urec.revision(uref))
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return d, nil
}

// Delete implements hive.Ledger.
func (s *Store) Delete(_ context.Context, ref hive.Ref) (hive.Ref, error) {
	at := s.clock.Next()
	del := hive.DeleteRef(s.agent, at, ref)
	err := s.db.Update(func(txn *badger.Txn) error {
		var rec revisionRecord
		if err := getRecord(txn, revisionKey(ref), &rec); err != nil {
			return errors.Wrapf(err, "deleting %s", ref)
		}
		rec.Deleted = true
		if err := setRecord(txn, revisionKey(ref), &rec); err != nil {
			return err
		}
		return setRecord(txn, deleteKey(del), &deleteRecord{Target: ref, Author: s.agent, At: at})
	})
	if err != nil {
		return hive.Zero, storeErr(err)
	}
	return del, nil
}

// CreateLink implements hive.Ledger.
func (s *Store) CreateLink(_ context.Context, base hive.KeyHash, target hive.Ref, ns hive.Namespace, tag []byte) (hive.Ref, error) {
	if !ns.Valid() {
		return hive.Zero, errors.Errorf("invalid namespace %s", ns)
	}
	at := s.clock.Next()
	ref := hive.LinkRef(s.agent, at, base, target, ns, tag)
	err := s.db.Update(func(txn *badger.Txn) error {
		key, err := s.withSeq(linkPrefix(base, ns))
		if err != nil {
			return err
		}
		return setRecord(txn, key, &linkRecord{Ref: ref, Target: target, Tag: tag, Author: s.agent, At: at})
	})
	if err != nil {
		return hive.Zero, errors.Wrap(storeErr(err), "storing link")
	}
	return ref, nil
}

// Links implements hive.Ledger.
func (s *Store) Links(_ context.Context, base hive.KeyHash, ns hive.Namespace, tagPrefix []byte) ([]hive.Link, error) {
	var out []hive.Link
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := linkPrefix(base, ns)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec linkRecord
			err := it.Item().Value(func(val []byte) error {
				return codec.Unmarshal(val, &rec)
			})
			if err != nil {
				return errors.Wrap(err, "decoding link")
			}
			if !bytes.HasPrefix(rec.Tag, tagPrefix) {
				continue
			}
			out = append(out, hive.Link{
				Address:   rec.Ref,
				Base:      base,
				Target:    rec.Target,
				Namespace: ns,
				Tag:       rec.Tag,
				Author:    rec.Author,
				Timestamp: rec.At,
			})
		}
		return nil
	})
	return out, storeErr(err)
}

// storeErr marks errors from a closed or failing database.
func storeErr(err error) error {
	var perr *fs.PathError
	if stderrs.Is(err, badger.ErrDBClosed) || stderrs.As(err, &perr) {
		return hive.StoreUnavailable(err)
	}
	return err
}

func init() {
	store.Register("badger", func(_ context.Context, conf map[string]interface{}) (hive.Ledger, error) {
		dir, _ := conf["dir"].(string)
		agent, err := store.Agent(conf)
		if err != nil {
			return nil, err
		}
		return Open(dir, agent)
	})
}
