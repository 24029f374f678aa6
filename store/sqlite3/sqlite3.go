// Package sqlite3 implements a hive.Ledger in a Sqlite database.
package sqlite3

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3" // register the sqlite3 type for sql.Open
	"github.com/pkg/errors"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/store"
	"github.com/hummearth/hive/store/sqlstore"
)

// Schema is the SQL that New executes.
// It creates the `revisions`, `deletes`, and `links` tables if they do not exist.
// (If they do exist, they must have the columns, constraints, and indexing described here.)
const Schema = `
CREATE TABLE IF NOT EXISTS revisions (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  ref BLOB NOT NULL UNIQUE,
  original BLOB NOT NULL,
  previous BLOB NOT NULL,
  author TEXT NOT NULL,
  at INTEGER NOT NULL,
  entry BLOB,
  deleted INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS revisions_original_idx ON revisions (original, seq);

CREATE TABLE IF NOT EXISTS deletes (
  ref BLOB PRIMARY KEY NOT NULL,
  target BLOB NOT NULL,
  author TEXT NOT NULL,
  at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS links (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  ref BLOB NOT NULL UNIQUE,
  base BLOB NOT NULL,
  ns INTEGER NOT NULL,
  target BLOB NOT NULL,
  tag BLOB,
  author TEXT NOT NULL,
  at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS links_base_idx ON links (base, ns, seq);
`

// New produces a new ledger using db for storage,
// acting for the given agent.
func New(ctx context.Context, db *sql.DB, agent string) (*sqlstore.Store, error) {
	return sqlstore.New(ctx, db, Schema, agent)
}

func init() {
	store.Register("sqlite3", func(ctx context.Context, conf map[string]interface{}) (hive.Ledger, error) {
		conn, ok := conf["conn"].(string)
		if !ok {
			return nil, errors.New(`missing "conn" parameter`)
		}
		agent, err := store.Agent(conf)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("sqlite3", conn)
		if err != nil {
			return nil, errors.Wrap(err, "opening db")
		}
		return New(ctx, db, agent)
	})
}
