// Package sqlstore is the SQL implementation of hive.Ledger
// shared by the sqlite3 and pg backends.
//
// Each backend supplies a schema creating the tables
// `revisions`, `deletes`, and `links`
// with the columns used here.
// Statements use $n placeholders,
// which both drivers accept.
package sqlstore

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	stderrs "errors"
	"net"
	"strings"
	"time"

	"github.com/bobg/sqlutil"
	"github.com/pkg/errors"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/store"
)

var _ hive.Ledger = &Store{}

// Store is a SQL-based ledger acting for one agent.
type Store struct {
	db    *sql.DB
	agent string
	clock store.Clock
}

// New produces a new Store using db for storage.
// It executes schema first.
func New(ctx context.Context, db *sql.DB, schema, agent string) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(hive.StoreUnavailable(err), "pinging database")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Wrap(storeErr(err), "creating schema")
	}
	return &Store{db: db, agent: agent}, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Agent implements hive.Ledger.
func (s *Store) Agent(context.Context) (string, error) {
	return s.agent, nil
}

// Create implements hive.Ledger.
func (s *Store) Create(ctx context.Context, entry []byte) (hive.Ref, error) {
	at := s.clock.Next()
	ref := hive.RevisionRef(s.agent, at, hive.Zero, entry)
	err := s.insertRevision(ctx, ref, ref, hive.Zero, at, entry)
	return ref, errors.Wrap(storeErr(err), "inserting revision")
}

// Update implements hive.Ledger.
func (s *Store) Update(ctx context.Context, previous hive.Ref, entry []byte) (hive.Ref, error) {
	const q = `SELECT original FROM revisions WHERE ref = $1 AND NOT deleted`

	var original hive.Ref
	err := s.db.QueryRowContext(ctx, q, previous).Scan(&original)
	if stderrs.Is(err, sql.ErrNoRows) {
		return hive.Zero, errors.Wrapf(hive.ErrNotFound, "updating %s", previous)
	}
	if err != nil {
		return hive.Zero, errors.Wrapf(storeErr(err), "looking up %s", previous)
	}

	at := s.clock.Next()
	ref := hive.RevisionRef(s.agent, at, previous, entry)
	err = s.insertRevision(ctx, ref, original, previous, at, entry)
	return ref, errors.Wrap(storeErr(err), "inserting revision")
}

func (s *Store) insertRevision(ctx context.Context, ref, original, previous hive.Ref, at time.Time, entry []byte) error {
	const q = `INSERT INTO revisions (ref, original, previous, author, at, entry, deleted) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, q, ref, original, previous, s.agent, at.UnixNano(), entry, false)
	return err
}

const revisionCols = `ref, original, previous, author, at, entry, deleted`

func scanRevision(rev *hive.Revision) []interface{} {
	return []interface{}{&rev.Address, &rev.Original, &rev.Previous, &rev.Author, (*nanos)(&rev.Timestamp), &rev.Entry, &rev.Deleted}
}

// Get implements hive.Ledger.
func (s *Store) Get(ctx context.Context, ref hive.Ref, _ hive.Freshness) (*hive.Revision, error) {
	const q = `SELECT ` + revisionCols + ` FROM revisions WHERE ref = $1 AND NOT deleted`

	var rev hive.Revision
	err := s.db.QueryRowContext(ctx, q, ref).Scan(scanRevision(&rev)...)
	if stderrs.Is(err, sql.ErrNoRows) {
		return nil, hive.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(storeErr(err), "getting %s", ref)
	}
	return &rev, nil
}

// Details implements hive.Ledger.
func (s *Store) Details(ctx context.Context, ref hive.Ref, _ hive.Freshness) (*hive.Details, error) {
	const q = `SELECT ` + revisionCols + ` FROM revisions WHERE ref = $1`

	d := new(hive.Details)
	err := s.db.QueryRowContext(ctx, q, ref).Scan(scanRevision(&d.Revision)...)
	if stderrs.Is(err, sql.ErrNoRows) {
		return nil, hive.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(storeErr(err), "getting %s", ref)
	}
	d.Live = !d.Revision.Deleted

	const q2 = `SELECT ` + revisionCols + ` FROM revisions WHERE original = $1 AND ref <> original ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, q2, ref)
	if err != nil {
		return nil, errors.Wrapf(storeErr(err), "querying updates of %s", ref)
	}
	defer rows.Close()

	for rows.Next() {
		var u hive.Revision
		if err := rows.Scan(scanRevision(&u)...); err != nil {
			return nil, errors.Wrap(storeErr(err), "scanning update")
		}
		d.Updates = append(d.Updates, u)
	}
	return d, errors.Wrap(storeErr(rows.Err()), "iterating over updates")
}

// Delete implements hive.Ledger.
func (s *Store) Delete(ctx context.Context, ref hive.Ref) (hive.Ref, error) {
	const q = `UPDATE revisions SET deleted = $1 WHERE ref = $2`

	res, err := s.db.ExecContext(ctx, q, true, ref)
	if err != nil {
		return hive.Zero, errors.Wrapf(storeErr(err), "deleting %s", ref)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return hive.Zero, errors.Wrap(err, "counting affected rows")
	}
	if aff == 0 {
		return hive.Zero, errors.Wrapf(hive.ErrNotFound, "deleting %s", ref)
	}

	const q2 = `INSERT INTO deletes (ref, target, author, at) VALUES ($1, $2, $3, $4)`

	at := s.clock.Next()
	del := hive.DeleteRef(s.agent, at, ref)
	_, err = s.db.ExecContext(ctx, q2, del, ref, s.agent, at.UnixNano())
	return del, errors.Wrap(storeErr(err), "recording delete")
}

// CreateLink implements hive.Ledger.
func (s *Store) CreateLink(ctx context.Context, base hive.KeyHash, target hive.Ref, ns hive.Namespace, tag []byte) (hive.Ref, error) {
	if !ns.Valid() {
		return hive.Zero, errors.Errorf("invalid namespace %s", ns)
	}

	const q = `INSERT INTO links (ref, base, ns, target, tag, author, at) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	at := s.clock.Next()
	ref := hive.LinkRef(s.agent, at, base, target, ns, tag)
	_, err := s.db.ExecContext(ctx, q, ref, base, int64(ns), target, tag, s.agent, at.UnixNano())
	return ref, errors.Wrap(storeErr(err), "inserting link")
}

// Links implements hive.Ledger.
func (s *Store) Links(ctx context.Context, base hive.KeyHash, ns hive.Namespace, tagPrefix []byte) ([]hive.Link, error) {
	const q = `SELECT ref, target, tag, author, at FROM links WHERE base = $1 AND ns = $2 ORDER BY seq`

	var out []hive.Link
	err := sqlutil.ForQueryRows(ctx, s.db, q, base, int64(ns), func(ref, target hive.Ref, tag []byte, author string, at int64) {
		if !bytes.HasPrefix(tag, tagPrefix) {
			return
		}
		out = append(out, hive.Link{
			Address:   ref,
			Base:      base,
			Target:    target,
			Namespace: ns,
			Tag:       tag,
			Author:    author,
			Timestamp: time.Unix(0, at).UTC(),
		})
	})
	return out, errors.Wrap(storeErr(err), "querying links")
}

// storeErr marks errors meaning the database cannot be reached.
// database/sql does not export its closed-database error,
// so that one is recognized by its message.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var nerr net.Error
	if stderrs.Is(err, sql.ErrConnDone) || stderrs.Is(err, driver.ErrBadConn) || stderrs.As(err, &nerr) || strings.Contains(err.Error(), "database is closed") {
		return hive.StoreUnavailable(err)
	}
	return err
}

// nanos scans a unix-nanosecond column into a time.Time.
type nanos time.Time

func (n *nanos) Scan(src interface{}) error {
	v, ok := src.(int64)
	if !ok {
		return errors.Errorf("cannot scan %T into a timestamp", src)
	}
	*n = nanos(time.Unix(0, v).UTC())
	return nil
}
