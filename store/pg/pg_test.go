package pg

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/hummearth/hive/store/sqlstore"
	"github.com/hummearth/hive/testutil"
)

func TestLedger(t *testing.T) {
	withStore(t, func(ctx context.Context, s *sqlstore.Store) {
		testutil.Ledger(ctx, t, s)
	})
}

const connVar = "HIVE_PG_TESTING_CONN"

func withStore(t *testing.T, f func(context.Context, *sqlstore.Store)) {
	connstr := os.Getenv(connVar)
	if connstr == "" {
		t.Skipf("to run %s, set %s to a valid Postgresql connection string", t.Name(), connVar)
	}

	db, err := sql.Open("postgres", connstr)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	s, err := New(ctx, db, "alice")
	if err != nil {
		t.Fatal(err)
	}

	f(ctx, s)
}
