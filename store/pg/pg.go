// Package pg implements a hive.Ledger in a Postgresql database.
package pg

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq" // register the postgres type for sql.Open
	"github.com/pkg/errors"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/store"
	"github.com/hummearth/hive/store/sqlstore"
)

// Schema is the SQL that New executes.
// It creates the `revisions`, `deletes`, and `links` tables if they do not exist.
// (If they do exist, they must have the columns, constraints, and indexing described here.)
//
// Timestamps are unix nanoseconds.
// TIMESTAMP WITH TIME ZONE keeps only microseconds,
// which would change the computed addresses of actions.
const Schema = `
CREATE TABLE IF NOT EXISTS revisions (
  seq BIGSERIAL PRIMARY KEY,
  ref BYTEA NOT NULL UNIQUE,
  original BYTEA NOT NULL,
  previous BYTEA NOT NULL,
  author TEXT NOT NULL,
  at BIGINT NOT NULL,
  entry BYTEA,
  deleted BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS revisions_original_idx ON revisions (original, seq);

CREATE TABLE IF NOT EXISTS deletes (
  ref BYTEA PRIMARY KEY NOT NULL,
  target BYTEA NOT NULL,
  author TEXT NOT NULL,
  at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS links (
  seq BIGSERIAL PRIMARY KEY,
  ref BYTEA NOT NULL UNIQUE,
  base BYTEA NOT NULL,
  ns INTEGER NOT NULL,
  target BYTEA NOT NULL,
  tag BYTEA,
  author TEXT NOT NULL,
  at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS links_base_idx ON links (base, ns, seq);
`

// New produces a new ledger using db for storage,
// acting for the given agent.
func New(ctx context.Context, db *sql.DB, agent string) (*sqlstore.Store, error) {
	return sqlstore.New(ctx, db, Schema, agent)
}

func init() {
	store.Register("pg", func(ctx context.Context, conf map[string]interface{}) (hive.Ledger, error) {
		conn, ok := conf["conn"].(string)
		if !ok {
			return nil, errors.New(`missing "conn" parameter`)
		}
		agent, err := store.Agent(conf)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("postgres", conn)
		if err != nil {
			return nil, errors.Wrap(err, "opening db")
		}
		return New(ctx, db, agent)
	})
}
